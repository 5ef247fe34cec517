package trader

import (
	"context"
	"time"

	"rotation_bot/internal/models"
)

// OrderFailed is entered when a critical fill could not be verified and the
// in-memory picture of the account can no longer be trusted. Its only
// outgoing transition is to Initializing on the next cycle, forcing a full
// resynchronization against the broker's true holdings.
type OrderFailed struct {
	env *Env
	sig models.SignalData
}

func NewOrderFailed(env *Env, sig models.SignalData) *OrderFailed {
	return &OrderFailed{env: env, sig: sig}
}

func (s *OrderFailed) Name() string              { return StateOrderFailed }
func (s *OrderFailed) Signal() models.SignalData { return s.sig }

func (s *OrderFailed) Process(ctx context.Context, base, lev models.Position, now time.Time) (State, error) {
	s.env.Notify.Send("Recovering from failed order, reinitializing")
	return &Initializing{env: s.env, sig: s.sig}, nil
}
