package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bildin8/postergram-juice-sub001/internal/dto"

	"github.com/shopspring/decimal"
)

// PosterClient talks to the Poster POS HTTP API. Every call goes through the
// circuit breaker, so a POS outage turns into fast ErrCircuitOpen failures
// that the sync callers log and retry on the next tick.
type PosterClient struct {
	baseURL        string
	token          string
	amountsInCents bool
	loc            *time.Location
	httpClient     *http.Client
	breaker        *CircuitBreaker
}

// PosterConfig configures NewPosterClient.
type PosterConfig struct {
	BaseURL        string
	Token          string
	AmountsInCents bool
	Location       *time.Location
	Timeout        time.Duration
}

// NewPosterClient returns nil when no token is configured; callers treat a nil
// client as "POS not configured".
func NewPosterClient(cfg PosterConfig, cb *CircuitBreaker) *PosterClient {
	if cfg.Token == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &PosterClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		amountsInCents: cfg.AmountsInCents,
		loc:            cfg.Location,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		breaker:        cb,
	}
}

// posterEnvelope is the wrapper every Poster endpoint responds with.
type posterEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    json.RawMessage `json:"error"`
}

// PosterError is an API-level error reported inside a 200 response.
type PosterError struct {
	Method  string
	Payload string
}

func (e *PosterError) Error() string {
	return fmt.Sprintf("poster: %s: api error %s", e.Method, e.Payload)
}

// ── Transactions ──────────────────────────────────────────────────────────────

// GetTransactionsSince returns closed transactions from the business day of
// since up to now. The POS filters by whole days, so callers still compare
// close times against their own watermark.
func (c *PosterClient) GetTransactionsSince(ctx context.Context, since time.Time) ([]dto.PosTransaction, error) {
	now := time.Now().In(c.loc)
	params := url.Values{}
	params.Set("dateFrom", since.In(c.loc).Format("20060102"))
	params.Set("dateTo", now.Format("20060102"))
	params.Set("include_products", "true")
	params.Set("status", "2") // closed only

	var txs []dto.PosTransaction
	if err := c.get(ctx, "dash.getTransactions", params, &txs); err != nil {
		return nil, err
	}
	for i := range txs {
		c.normaliseTransaction(&txs[i])
	}
	return txs, nil
}

// GetTodaysTransactions returns today's closed transactions in the business timezone.
func (c *PosterClient) GetTodaysTransactions(ctx context.Context) ([]dto.PosTransaction, error) {
	now := time.Now().In(c.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return c.GetTransactionsSince(ctx, start)
}

// ── Menu & storage ────────────────────────────────────────────────────────────

// GetAllProductsWithRecipes returns products with their embedded ingredient
// lines and modification groups.
func (c *PosterClient) GetAllProductsWithRecipes(ctx context.Context) ([]dto.PosProduct, error) {
	var products []dto.PosProduct
	if err := c.get(ctx, "menu.getProducts", url.Values{}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *PosterClient) GetIngredients(ctx context.Context) ([]dto.PosIngredient, error) {
	var ingredients []dto.PosIngredient
	if err := c.get(ctx, "menu.getIngredients", url.Values{}, &ingredients); err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (c *PosterClient) GetStockLevels(ctx context.Context) ([]dto.PosStockLevel, error) {
	var levels []dto.PosStockLevel
	if err := c.get(ctx, "storage.getStorageLeftovers", url.Values{}, &levels); err != nil {
		return nil, err
	}
	for i := range levels {
		levels[i].PrimeCost = c.money(levels[i].PrimeCost)
	}
	return levels, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (c *PosterClient) get(ctx context.Context, method string, params url.Values, out interface{}) error {
	params.Set("token", c.token)
	endpoint := c.baseURL + "/" + method + "?" + params.Encode()

	start := time.Now()
	outcome := "ok"
	defer func() {
		POSRequestDuration.WithLabelValues(method, outcome).Observe(time.Since(start).Seconds())
	}()

	err := c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("poster: %s: create request: %w", method, err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("poster: %s: unreachable: %w", method, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("poster: %s: returned %d", method, resp.StatusCode)
		}

		var env posterEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return fmt.Errorf("poster: %s: decode response: %w", method, err)
		}
		if len(env.Error) > 0 && string(env.Error) != "null" {
			return &PosterError{Method: method, Payload: string(env.Error)}
		}
		if len(env.Response) == 0 || string(env.Response) == "null" {
			return nil
		}
		if err := json.Unmarshal(env.Response, out); err != nil {
			return fmt.Errorf("poster: %s: decode payload: %w", method, err)
		}
		return nil
	})
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrCircuitOpen) {
			outcome = "circuit_open"
		}
	}
	return err
}

func (c *PosterClient) normaliseTransaction(t *dto.PosTransaction) {
	t.Total = c.money(t.Total)
	t.CashAmount = c.money(t.CashAmount)
	t.CardAmount = c.money(t.CardAmount)
	for i := range t.Products {
		t.Products[i].Amount = c.money(t.Products[i].Amount)
	}
}

var hundred = decimal.NewFromInt(100)

func (c *PosterClient) money(v decimal.Decimal) decimal.Decimal {
	if !c.amountsInCents {
		return v
	}
	return v.Div(hundred)
}
