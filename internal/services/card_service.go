package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salemfin/backend/internal/models"
	"github.com/salemfin/backend/internal/money"
)

type CardService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// CreateCardRequest represents credit card registration payload
// @Description Card registration request structure
type CreateCardRequest struct {
	Alias      string `json:"alias" validate:"required,min=2" example:"Nubank Roxinho"`
	Brand      string `json:"brand" validate:"required,oneof=visa mastercard elo hipercard amex diners"`
	TotalLimit string `json:"totalLimit" validate:"required" example:"R$ 5.000,00"` // Locale-formatted credit limit
	ClosingDay int    `json:"closingDay" validate:"required,min=1,max=31"`          // Statement closing day of month
	DueDay     int    `json:"dueDay" validate:"required,min=1,max=31"`              // Payment due day of month
}

// UpdateCardRequest carries partial card updates
type UpdateCardRequest struct {
	Alias      *string `json:"alias,omitempty" validate:"omitempty,min=2"`
	TotalLimit *string `json:"totalLimit,omitempty"`
	ClosingDay *int    `json:"closingDay,omitempty" validate:"omitempty,min=1,max=31"`
	DueDay     *int    `json:"dueDay,omitempty" validate:"omitempty,min=1,max=31"`
}

// CardResponse carries a card with display-ready monetary fields.
type CardResponse struct {
	models.Card
	LimitDecimal   float64 `json:"limit_decimal"`
	LimitFormatted string  `json:"limit_formatted"`
}

func NewCardService(db *sql.DB) *CardService {
	return &CardService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

func cardResponse(card models.Card) CardResponse {
	return CardResponse{
		Card:         card,
		LimitDecimal: money.ToDecimal(card.TotalLimit),
		LimitFormatted: money.Format(card.TotalLimit, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: "BRL",
		}),
	}
}

// CreateCard registers a credit card for the authenticated user
// @Summary Register card
// @Description Register a credit card with billing cycle configuration
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param card body CreateCardRequest true "Card data"
// @Success 201 {object} CardResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /cards [post]
func (s *CardService) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateCardRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	card := models.Card{
		ID:         uuid.NewString(),
		UserID:     userID,
		Alias:      req.Alias,
		Brand:      req.Brand,
		TotalLimit: money.ParseAmount(req.TotalLimit),
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	}

	err := s.db.QueryRow(`
		INSERT INTO cards (id, user_id, alias, brand, total_limit, closing_day, due_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`, card.ID, card.UserID, card.Alias, card.Brand, card.TotalLimit, card.ClosingDay, card.DueDay).Scan(&card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		log.Printf("[CARD] Card registration failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to register card", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[CARD] Card %s (%s) registered for user %d", card.ID, card.Brand, userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(cardResponse(card))
}

// ListCards returns all cards owned by the authenticated user
// @Summary List cards
// @Description List the authenticated user's credit cards
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{cards=[]CardResponse,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /cards [get]
func (s *CardService) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, alias, brand, total_limit, closing_day, due_day, created_at, updated_at
		FROM cards
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		log.Printf("[CARD] Failed to list cards for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch cards", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	cards := []CardResponse{}
	for rows.Next() {
		var card models.Card
		if err := rows.Scan(&card.ID, &card.UserID, &card.Alias, &card.Brand, &card.TotalLimit, &card.ClosingDay, &card.DueDay, &card.CreatedAt, &card.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch cards", http.StatusInternalServerError, nil)
			return
		}
		cards = append(cards, cardResponse(card))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"cards": cards,
		"count": len(cards),
	})
}

// GetCard returns a single card by id
// @Summary Get card
// @Description Retrieve one card owned by the authenticated user
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Success 200 {object} CardResponse
// @Failure 404 {object} ErrorResponse
// @Router /cards/{cardId} [get]
func (s *CardService) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	cardID := chi.URLParam(r, "cardId")

	card, err := s.fetchCard(cardID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[CARD] Failed to fetch card %s: %v", cardID, err)
			SendErrorResponse(w, "Failed to fetch card", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cardResponse(*card))
}

// UpdateCard applies partial updates to a card
// @Summary Update card
// @Description Update card alias, limit or billing cycle days
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Param card body UpdateCardRequest true "Fields to update"
// @Success 200 {object} CardResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /cards/{cardId} [patch]
func (s *CardService) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	cardID := chi.URLParam(r, "cardId")

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1_048_576))
	dec.DisallowUnknownFields()

	var req UpdateCardRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	card, err := s.fetchCard(cardID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to fetch card", http.StatusInternalServerError, nil)
		}
		return
	}

	if req.Alias != nil {
		card.Alias = *req.Alias
	}
	if req.TotalLimit != nil {
		card.TotalLimit = money.ParseAmount(*req.TotalLimit)
	}
	if req.ClosingDay != nil {
		card.ClosingDay = *req.ClosingDay
	}
	if req.DueDay != nil {
		card.DueDay = *req.DueDay
	}

	err = s.db.QueryRow(`
		UPDATE cards
		SET alias = $1, total_limit = $2, closing_day = $3, due_day = $4, updated_at = NOW()
		WHERE id = $5 AND user_id = $6
		RETURNING updated_at
	`, card.Alias, card.TotalLimit, card.ClosingDay, card.DueDay, card.ID, userID).Scan(&card.UpdatedAt)
	if err != nil {
		log.Printf("[CARD] Failed to update card %s: %v", cardID, err)
		SendErrorResponse(w, "Failed to update card", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cardResponse(*card))
}

// DeleteCard removes a card
// @Summary Delete card
// @Description Delete a credit card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /cards/{cardId} [delete]
func (s *CardService) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	cardID := chi.URLParam(r, "cardId")

	result, err := s.db.Exec(`DELETE FROM cards WHERE id = $1 AND user_id = $2`, cardID, userID)
	if err != nil {
		log.Printf("[CARD] Failed to delete card %s: %v", cardID, err)
		SendErrorResponse(w, "Failed to delete card", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Card not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[CARD] Card %s deleted by user %d", cardID, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func (s *CardService) fetchCard(cardID string, userID int) (*models.Card, error) {
	var card models.Card
	err := s.db.QueryRow(`
		SELECT id, user_id, alias, brand, total_limit, closing_day, due_day, created_at, updated_at
		FROM cards
		WHERE id = $1 AND user_id = $2
	`, cardID, userID).Scan(&card.ID, &card.UserID, &card.Alias, &card.Brand, &card.TotalLimit, &card.ClosingDay, &card.DueDay, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &card, nil
}
