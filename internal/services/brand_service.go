package services

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/salemfin/backend/internal/models"
)

type Brand struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	LogoData string `json:"logoData"`
}

const (
	logosDir = "./static/brand-logos"
	demoSVG  = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 126"><rect width="200" height="126" rx="12" fill="#f0f0f0"/><rect x="16" y="20" width="40" height="30" rx="4" fill="#d4af37"/><text x="100" y="108" text-anchor="middle" font-family="Arial" font-size="14" fill="#666">CARD</text></svg>`
)

var brandLogos = map[string]string{
	models.CardBrandVisa:       "visa.svg",
	models.CardBrandMastercard: "mastercard.svg",
	models.CardBrandElo:        "elo.svg",
	models.CardBrandHipercard:  "hipercard.svg",
	models.CardBrandAmex:       "amex.svg",
	models.CardBrandDiners:     "diners.svg",
}

var cardBrands = []Brand{
	{Code: models.CardBrandVisa, Name: "Visa"},
	{Code: models.CardBrandMastercard, Name: "Mastercard"},
	{Code: models.CardBrandElo, Name: "Elo"},
	{Code: models.CardBrandHipercard, Name: "Hipercard"},
	{Code: models.CardBrandAmex, Name: "American Express"},
	{Code: models.CardBrandDiners, Name: "Diners Club"},
}

type BrandService struct{}

func NewBrandService() *BrandService {
	return &BrandService{}
}

// GetAllBrands lists the supported card brands with their logos
// @Summary List card brands
// @Description List the card brands accepted for registration
// @Tags brands
// @Produce json
// @Success 200 {array} Brand
// @Router /brands [get]
func (bs *BrandService) GetAllBrands(w http.ResponseWriter, r *http.Request) {
	brands := make([]Brand, len(cardBrands))
	copy(brands, cardBrands)

	for i := range brands {
		brands[i].LogoData = bs.LoadLogo(brands[i].Code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	json.NewEncoder(w).Encode(brands)
}

func (bs *BrandService) LoadLogo(code string) string {
	filename, ok := brandLogos[code]
	if !ok {
		return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(demoSVG))
	}

	path := filepath.Join(logosDir, filename)
	if data, err := os.ReadFile(path); err == nil {
		return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(data)
	}

	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(demoSVG))
}
