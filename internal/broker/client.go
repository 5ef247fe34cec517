package broker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"rotation_bot/internal/models"
	"rotation_bot/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

// Client talks to a Trading212-style equity REST API. All calls go through
// the rate limiter; the API offers no push channel of any kind.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	limiter *Limiter
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		limiter: NewLimiter(nil),
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return 0, errors.Wrap(err, "marshal payload")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	rb, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return resp.StatusCode, fmt.Errorf("%s %s: http %d: %s", method, path, resp.StatusCode, string(rb))
	}
	if out != nil {
		if err := sonic.Unmarshal(rb, out); err != nil {
			return resp.StatusCode, errors.Wrapf(err, "decode %s response", path)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) FetchPositions(ctx context.Context) ([]models.Position, error) {
	c.limiter.Wait("portfolio")
	var res []models.Position
	if _, err := c.do(ctx, http.MethodGet, "/api/v0/equity/portfolio", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) FetchAccountSummary(ctx context.Context) (models.AccountSummary, error) {
	c.limiter.Wait("account_summary")
	var res models.AccountSummary
	if _, err := c.do(ctx, http.MethodGet, "/api/v0/equity/account/summary", nil, &res); err != nil {
		return models.AccountSummary{}, err
	}
	return res, nil
}

func (c *Client) FetchInstruments(ctx context.Context) ([]models.TradableInstrument, error) {
	c.limiter.Wait("instruments")
	var res []models.TradableInstrument
	if _, err := c.do(ctx, http.MethodGet, "/api/v0/equity/metadata/instruments", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) FetchExchanges(ctx context.Context) ([]models.Exchange, error) {
	c.limiter.Wait("exchanges")
	var res []models.Exchange
	if _, err := c.do(ctx, http.MethodGet, "/api/v0/equity/metadata/exchanges", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) PlaceMarketOrder(ctx context.Context, ticker string, quantity float64) (models.Order, error) {
	c.limiter.Wait("orders_market")
	payload := map[string]any{
		"ticker":   ticker,
		"quantity": quantity,
	}
	var res models.Order
	if _, err := c.do(ctx, http.MethodPost, "/api/v0/equity/orders/market", payload, &res); err != nil {
		return models.Order{}, err
	}
	logger.Info("placed market order id=%d ticker=%s qty=%f", res.ID, ticker, quantity)
	return res, nil
}

func (c *Client) PlaceLimitOrder(ctx context.Context, ticker string, quantity, limitPrice float64) (models.Order, error) {
	c.limiter.Wait("orders_limit")
	payload := map[string]any{
		"ticker":       ticker,
		"quantity":     quantity,
		"limitPrice":   limitPrice,
		"timeValidity": "DAY",
	}
	var res models.Order
	if _, err := c.do(ctx, http.MethodPost, "/api/v0/equity/orders/limit", payload, &res); err != nil {
		return models.Order{}, err
	}
	logger.Info("placed limit order id=%d ticker=%s qty=%f px=%f", res.ID, ticker, quantity, limitPrice)
	return res, nil
}

func (c *Client) CancelOrder(ctx context.Context, id int64) error {
	c.limiter.Wait("orders_cancel")
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/v0/equity/orders/%d", id), nil, nil)
	return err
}

func (c *Client) FetchOpenOrders(ctx context.Context) ([]models.Order, error) {
	c.limiter.Wait("orders_get")
	var res []models.Order
	if _, err := c.do(ctx, http.MethodGet, "/api/v0/equity/orders", nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) CancelAllOpenOrders(ctx context.Context) error {
	open, err := c.FetchOpenOrders(ctx)
	if err != nil {
		return err
	}
	for _, o := range open {
		if o.ID == 0 {
			continue
		}
		side := "sell"
		if o.IsBuy() {
			side = "buy"
		}
		logger.Info("cancelling stale %s order id=%d ticker=%s", side, o.ID, o.Ticker)
		if err := c.CancelOrder(ctx, o.ID); err != nil {
			return errors.Wrapf(err, "cancel order %d", o.ID)
		}
	}
	return nil
}

func (c *Client) OrderByID(ctx context.Context, id int64) (models.Order, error) {
	c.limiter.Wait("order_by_id")
	var res models.Order
	status, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v0/equity/orders/%d", id), nil, &res)
	if status == http.StatusNotFound {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	return res, nil
}
