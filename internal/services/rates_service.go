package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/salemfin/backend/internal/cache"
	"github.com/salemfin/backend/internal/config"
	"github.com/salemfin/backend/internal/money"
)

type RatesService struct {
	cache  cache.RateCache
	cfg    config.RatesConfig
	client *http.Client
}

// rateAPIResponse mirrors the upstream exchange rate payload.
type rateAPIResponse struct {
	Result string             `json:"result"`
	Base   string             `json:"base_code"`
	Rates  map[string]float64 `json:"rates"`
}

// RateResponse is the exchange rate payload returned to clients.
type RateResponse struct {
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
	// Set only when an amount was supplied for conversion
	ConvertedAmount    *int64  `json:"converted_amount,omitempty"`
	ConvertedFormatted *string `json:"converted_formatted,omitempty"`
}

func NewRatesService(rateCache cache.RateCache, cfg config.RatesConfig) *RatesService {
	return &RatesService{
		cache: rateCache,
		cfg:   cfg,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
}

// GetRate returns the exchange rate between two currencies
// @Summary Get exchange rate
// @Description Fetch the exchange rate between two currencies, optionally
// @Description converting an amount. Rates are cached.
// @Tags rates
// @Produce json
// @Security BearerAuth
// @Param base query string false "Base currency (defaults to BRL)"
// @Param quote query string true "Quote currency"
// @Param amount query string false "Locale-formatted amount to convert"
// @Success 200 {object} RateResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /rates [get]
func (s *RatesService) GetRate(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(r.URL.Query().Get("base"))
	if base == "" {
		base = s.cfg.DefaultBase
	}
	quote := strings.ToUpper(r.URL.Query().Get("quote"))
	if len(base) != 3 || len(quote) != 3 {
		SendErrorResponse(w, "base and quote must be 3-letter currency codes", http.StatusBadRequest, nil)
		return
	}

	rate, cached, err := s.ResolveRate(r.Context(), base, quote)
	if err != nil {
		log.Printf("[RATES] Failed to resolve %s/%s: %v", base, quote, err)
		SendErrorResponse(w, "Exchange rate unavailable", http.StatusBadGateway, nil)
		return
	}

	resp := RateResponse{
		Base:      rate.Base,
		Quote:     rate.Quote,
		Rate:      rate.Value,
		FetchedAt: rate.FetchedAt,
		Cached:    cached,
	}

	if raw := r.URL.Query().Get("amount"); raw != "" {
		minor := money.ParseAmount(raw)
		converted := money.ToMinorUnits(money.ToDecimal(minor) * rate.Value)
		formatted := money.Format(converted, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: quote,
		})
		resp.ConvertedAmount = &converted
		resp.ConvertedFormatted = &formatted
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// ResolveRate returns the rate for base/quote, hitting the cache before the
// upstream provider. The boolean reports whether the cache served it.
func (s *RatesService) ResolveRate(ctx context.Context, base, quote string) (*cache.Rate, bool, error) {
	key := fmt.Sprintf("%s:%s:%s", s.cfg.CacheKeyPrefix, base, quote)

	if hit, err := s.cache.Get(ctx, key); err != nil {
		log.Printf("[RATES] Cache lookup failed for %s: %v", key, err)
	} else if hit != nil {
		return hit, true, nil
	}

	rate, err := s.fetchRate(ctx, base, quote)
	if err != nil {
		return nil, false, err
	}

	if err := s.cache.Put(ctx, key, rate, s.cfg.CacheTTL); err != nil {
		log.Printf("[RATES] Cache store failed for %s: %v", key, err)
	}

	return rate, false, nil
}

func (s *RatesService) fetchRate(ctx context.Context, base, quote string) (*cache.Rate, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.BaseURL, "/"), base)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var payload rateAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("rate provider returned invalid payload: %w", err)
	}
	if payload.Result != "success" {
		return nil, fmt.Errorf("rate provider returned result %q", payload.Result)
	}

	value, ok := payload.Rates[quote]
	if !ok {
		return nil, fmt.Errorf("rate provider has no quote for %s", quote)
	}

	return &cache.Rate{
		Base:      base,
		Quote:     quote,
		Value:     value,
		FetchedAt: time.Now().UTC(),
	}, nil
}
