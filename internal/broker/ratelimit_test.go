package broker

import (
	"os"
	"testing"
	"time"

	"rotation_bot/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestLimiterSpacesCalls(t *testing.T) {
	l := NewLimiter(map[string]time.Duration{
		"portfolio": 30 * time.Millisecond,
	})

	l.Wait("portfolio")
	start := time.Now()
	l.Wait("portfolio")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestLimiterFirstCallPassesImmediately(t *testing.T) {
	l := NewLimiter(map[string]time.Duration{
		"portfolio": time.Hour,
	})

	start := time.Now()
	l.Wait("portfolio")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestLimiterUnknownEndpointFailsOpen(t *testing.T) {
	l := NewLimiter(map[string]time.Duration{})

	// A missing quota entry must never block trading.
	start := time.Now()
	l.Wait("no_such_endpoint")
	l.Wait("no_such_endpoint")
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
