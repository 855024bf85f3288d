package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salemfin/backend/internal/audit"
	"github.com/salemfin/backend/internal/billing"
	"github.com/salemfin/backend/internal/models"
	"github.com/salemfin/backend/internal/money"
)

type InvoiceService struct {
	db        *sql.DB
	validator *ValidationHelper
	auditor   *audit.Logger
}

// UpdateInvoiceRequest carries partial invoice updates. Only the listed
// fields may change; anything else on the invoice is derived.
type UpdateInvoiceRequest struct {
	TotalAmount *string `json:"totalAmount,omitempty"`
	PaidAmount  *string `json:"paidAmount,omitempty"`
	DueDate     *string `json:"dueDate,omitempty" example:"2025-04-05"`
	ClosingDate *string `json:"closingDate,omitempty" example:"2025-03-25"`
	Status      *string `json:"status,omitempty" validate:"omitempty,oneof=open paid overdue"`
}

// PayInvoiceRequest optionally carries a partial payment amount. When
// absent the full remaining balance is settled.
type PayInvoiceRequest struct {
	Amount *string `json:"amount,omitempty" example:"R$ 1.200,00"`
}

// InvoiceResponse carries an invoice with display-ready amounts and the
// derived open flag.
type InvoiceResponse struct {
	models.Invoice
	IsOpen          bool    `json:"is_open"`
	TotalDecimal    float64 `json:"total_decimal"`
	TotalFormatted  string  `json:"total_formatted"`
	PaidDecimal     float64 `json:"paid_decimal"`
	RemainingAmount int64   `json:"remaining_amount"`
}

func NewInvoiceService(db *sql.DB) *InvoiceService {
	return &InvoiceService{
		db:        db,
		validator: NewValidationHelper(),
		auditor:   audit.NewLogger(),
	}
}

func invoiceResponse(inv models.Invoice) InvoiceResponse {
	remaining := inv.TotalAmount - inv.PaidAmount
	if remaining < 0 {
		remaining = 0
	}
	return InvoiceResponse{
		Invoice:      inv,
		IsOpen:       billing.IsOpen(&inv),
		TotalDecimal: money.ToDecimal(inv.TotalAmount),
		TotalFormatted: money.Format(inv.TotalAmount, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: "BRL",
		}),
		PaidDecimal:     money.ToDecimal(inv.PaidAmount),
		RemainingAmount: remaining,
	}
}

// ListInvoices returns the invoices for one of the user's cards
// @Summary List invoices
// @Description List invoices for a card, most recent billing period first
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param cardId path string true "Card ID"
// @Success 200 {object} object{invoices=[]InvoiceResponse,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /cards/{cardId}/invoices [get]
func (s *InvoiceService) ListInvoices(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	cardID := chi.URLParam(r, "cardId")

	rows, err := s.db.Query(`
		SELECT id, card_id, user_id, year, month, total_amount, paid_amount, status, closing_date, due_date, created_at, updated_at
		FROM invoices
		WHERE card_id = $1 AND user_id = $2
		ORDER BY year DESC, month DESC
	`, cardID, userID)
	if err != nil {
		log.Printf("[INVOICE] Failed to list invoices for card %s: %v", cardID, err)
		SendErrorResponse(w, "Failed to fetch invoices", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	invoices := []InvoiceResponse{}
	for rows.Next() {
		var inv models.Invoice
		if err := scanInvoice(rows.Scan, &inv); err != nil {
			SendErrorResponse(w, "Failed to fetch invoices", http.StatusInternalServerError, nil)
			return
		}
		invoices = append(invoices, invoiceResponse(inv))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"invoices": invoices,
		"count":    len(invoices),
	})
}

// GetInvoice returns a single invoice by id
// @Summary Get invoice
// @Description Retrieve one invoice owned by the authenticated user
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{invoiceId} [get]
func (s *InvoiceService) GetInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	invoiceID := chi.URLParam(r, "invoiceId")

	inv, err := s.fetchInvoice(invoiceID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Invoice not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[INVOICE] Failed to fetch invoice %s: %v", invoiceID, err)
			SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoiceResponse(*inv))
}

// PayInvoice settles an invoice, fully or partially
// @Summary Pay invoice
// @Description Mark an invoice as paid. Paying an already paid invoice is a
// @Description no-op. Without an amount the full remaining balance settles.
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param payment body PayInvoiceRequest false "Optional partial amount"
// @Success 200 {object} InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{invoiceId}/pay [post]
func (s *InvoiceService) PayInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	invoiceID := chi.URLParam(r, "invoiceId")

	var req PayInvoiceRequest
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1_048_576))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
			return
		}
	}

	inv, err := s.fetchInvoice(invoiceID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Invoice not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		}
		return
	}

	// Repeated payment of a settled invoice changes nothing
	if inv.Status == models.InvoiceStatusPaid {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(invoiceResponse(*inv))
		return
	}

	payment := inv.TotalAmount - inv.PaidAmount
	if req.Amount != nil {
		payment = money.ParseAmount(*req.Amount)
		if payment <= 0 {
			SendErrorResponse(w, "Payment amount must be positive", http.StatusBadRequest, nil)
			return
		}
	}

	previousStatus := inv.Status
	inv.PaidAmount += payment
	if inv.PaidAmount >= inv.TotalAmount {
		inv.Status = models.InvoiceStatusPaid
	}

	err = s.db.QueryRow(`
		UPDATE invoices SET paid_amount = $1, status = $2, updated_at = NOW()
		WHERE id = $3 AND user_id = $4
		RETURNING updated_at
	`, inv.PaidAmount, inv.Status, inv.ID, userID).Scan(&inv.UpdatedAt)
	if err != nil {
		log.Printf("[INVOICE] Failed to pay invoice %s: %v", invoiceID, err)
		SendErrorResponse(w, "Failed to pay invoice", http.StatusInternalServerError, nil)
		return
	}

	if inv.Status != previousStatus {
		s.auditor.LogInvoiceStatus(inv.ID, previousStatus, inv.Status)
	}
	log.Printf("[INVOICE] Invoice %s received payment of %d by user %d", inv.ID, payment, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoiceResponse(*inv))
}

// ReopenInvoice reverts a paid invoice back to open
// @Summary Reopen invoice
// @Description Revert a paid invoice to open and clear its paid amount
// @Tags invoices
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Success 200 {object} InvoiceResponse
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{invoiceId}/reopen [post]
func (s *InvoiceService) ReopenInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	invoiceID := chi.URLParam(r, "invoiceId")

	inv, err := s.fetchInvoice(invoiceID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Invoice not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		}
		return
	}

	previousStatus := inv.Status
	inv.Status = models.InvoiceStatusOpen
	inv.PaidAmount = 0

	err = s.db.QueryRow(`
		UPDATE invoices SET paid_amount = 0, status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3
		RETURNING updated_at
	`, inv.Status, inv.ID, userID).Scan(&inv.UpdatedAt)
	if err != nil {
		log.Printf("[INVOICE] Failed to reopen invoice %s: %v", invoiceID, err)
		SendErrorResponse(w, "Failed to reopen invoice", http.StatusInternalServerError, nil)
		return
	}

	if previousStatus != inv.Status {
		s.auditor.LogInvoiceStatus(inv.ID, previousStatus, inv.Status)
	}
	log.Printf("[INVOICE] Invoice %s reopened by user %d", inv.ID, userID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoiceResponse(*inv))
}

// UpdateInvoice applies partial updates to an invoice
// @Summary Update invoice
// @Description Update invoice amounts, dates or status
// @Tags invoices
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invoiceId path string true "Invoice ID"
// @Param invoice body UpdateInvoiceRequest true "Fields to update"
// @Success 200 {object} InvoiceResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /invoices/{invoiceId} [patch]
func (s *InvoiceService) UpdateInvoice(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	invoiceID := chi.URLParam(r, "invoiceId")

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1_048_576))
	dec.DisallowUnknownFields()

	var req UpdateInvoiceRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	inv, err := s.fetchInvoice(invoiceID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Invoice not found", http.StatusNotFound, nil)
		} else {
			SendErrorResponse(w, "Failed to fetch invoice", http.StatusInternalServerError, nil)
		}
		return
	}

	previousStatus := inv.Status

	if req.TotalAmount != nil {
		inv.TotalAmount = money.ParseAmount(*req.TotalAmount)
	}
	if req.PaidAmount != nil {
		inv.PaidAmount = money.ParseAmount(*req.PaidAmount)
	}
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			SendErrorResponse(w, "dueDate must be formatted as YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		inv.DueDate = parsed
	}
	if req.ClosingDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ClosingDate)
		if err != nil {
			SendErrorResponse(w, "closingDate must be formatted as YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		inv.ClosingDate = parsed
	}
	if req.Status != nil {
		inv.Status = *req.Status
	}

	err = s.db.QueryRow(`
		UPDATE invoices
		SET total_amount = $1, paid_amount = $2, status = $3, closing_date = $4, due_date = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`, inv.TotalAmount, inv.PaidAmount, inv.Status, inv.ClosingDate, inv.DueDate, inv.ID, userID).Scan(&inv.UpdatedAt)
	if err != nil {
		log.Printf("[INVOICE] Failed to update invoice %s: %v", invoiceID, err)
		SendErrorResponse(w, "Failed to update invoice", http.StatusInternalServerError, nil)
		return
	}

	if previousStatus != inv.Status {
		s.auditor.LogInvoiceStatus(inv.ID, previousStatus, inv.Status)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invoiceResponse(*inv))
}

func (s *InvoiceService) fetchInvoice(invoiceID string, userID int) (*models.Invoice, error) {
	var inv models.Invoice
	err := scanInvoice(s.db.QueryRow(`
		SELECT id, card_id, user_id, year, month, total_amount, paid_amount, status, closing_date, due_date, created_at, updated_at
		FROM invoices
		WHERE id = $1 AND user_id = $2
	`, invoiceID, userID).Scan, &inv)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func scanInvoice(scan func(dest ...any) error, inv *models.Invoice) error {
	return scan(&inv.ID, &inv.CardID, &inv.UserID, &inv.Year, &inv.Month, &inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.ClosingDate, &inv.DueDate, &inv.CreatedAt, &inv.UpdatedAt)
}
