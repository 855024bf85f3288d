package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/salemfin/backend/internal/cache"
	"github.com/salemfin/backend/internal/config"
	"github.com/stretchr/testify/assert"
)

func ratesTestServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		json.NewEncoder(w).Encode(map[string]any{
			"result":    "success",
			"base_code": "BRL",
			"rates": map[string]float64{
				"USD": 0.19,
				"EUR": 0.17,
			},
		})
	}))
}

func newRatesService(upstream string) *RatesService {
	return NewRatesService(cache.NewMemoryCache(), config.RatesConfig{
		BaseURL:        upstream,
		RequestTimeout: 5 * time.Second,
		CacheTTL:       time.Hour,
		CacheKeyPrefix: "rate",
		DefaultBase:    "BRL",
	})
}

func TestRatesService_GetRate(t *testing.T) {
	var hits int32
	upstream := ratesTestServer(t, &hits)
	defer upstream.Close()

	service := newRatesService(upstream.URL)

	t.Run("fetches from the provider", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/rates?base=BRL&quote=USD", nil)
		w := httptest.NewRecorder()

		service.GetRate(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response RateResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "BRL", response.Base)
		assert.Equal(t, "USD", response.Quote)
		assert.Equal(t, 0.19, response.Rate)
		assert.False(t, response.Cached)
	})

	t.Run("second request is served from cache", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/rates?base=BRL&quote=USD", nil)
		w := httptest.NewRecorder()

		service.GetRate(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response RateResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.True(t, response.Cached)
		assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	})

	t.Run("converts a localized amount", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/rates?base=BRL&quote=USD&amount=R$%20100,00", nil)
		w := httptest.NewRecorder()

		service.GetRate(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response RateResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotNil(t, response.ConvertedAmount)
		// 100.00 BRL at 0.19 is 19.00 USD
		assert.Equal(t, int64(1900), *response.ConvertedAmount)
	})

	t.Run("defaults base currency", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/rates?quote=EUR", nil)
		w := httptest.NewRecorder()

		service.GetRate(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response RateResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "BRL", response.Base)
		assert.Equal(t, 0.17, response.Rate)
	})

	t.Run("rejects invalid currency codes", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/rates?quote=DOLLARS", nil)
		w := httptest.NewRecorder()

		service.GetRate(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestRatesService_UpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	service := newRatesService(upstream.URL)

	r := httptest.NewRequest("GET", "/rates?base=BRL&quote=USD", nil)
	w := httptest.NewRecorder()

	service.GetRate(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRatesService_UnknownQuote(t *testing.T) {
	var hits int32
	upstream := ratesTestServer(t, &hits)
	defer upstream.Close()

	service := newRatesService(upstream.URL)

	r := httptest.NewRequest("GET", "/rates?base=BRL&quote=XYZ", nil)
	w := httptest.NewRecorder()

	service.GetRate(w, r)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}
