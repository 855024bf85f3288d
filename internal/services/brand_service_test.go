package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrandService_GetAllBrands(t *testing.T) {
	service := NewBrandService()

	r := httptest.NewRequest("GET", "/brands", nil)
	w := httptest.NewRecorder()

	service.GetAllBrands(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))

	var brands []Brand
	json.Unmarshal(w.Body.Bytes(), &brands)
	assert.Len(t, brands, 6)

	codes := make([]string, len(brands))
	for i, b := range brands {
		codes[i] = b.Code
		assert.True(t, strings.HasPrefix(b.LogoData, "data:image/svg+xml;base64,"))
	}
	assert.Contains(t, codes, "visa")
	assert.Contains(t, codes, "hipercard")
}
