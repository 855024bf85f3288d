package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salemfin/backend/internal/audit"
	"github.com/salemfin/backend/internal/billing"
	"github.com/salemfin/backend/internal/models"
	"github.com/salemfin/backend/internal/money"
)

type TransactionService struct {
	db        *sql.DB
	validator *ValidationHelper
	auditor   *audit.Logger
}

// CreateTransactionRequest represents transaction creation payload
// @Description Transaction creation request structure. Exactly one of
// @Description accountId or cardId must be present.
type CreateTransactionRequest struct {
	Amount      string  `json:"amount" validate:"required" example:"R$ 42,90"` // Locale-formatted amount
	Description string  `json:"description" validate:"required,min=1,max=255"`
	Type        string  `json:"type" validate:"required,oneof=expense income transfer withdrawal deposit"`
	AccountID   *string `json:"accountId,omitempty" validate:"omitempty,uuid4"`
	CardID      *string `json:"cardId,omitempty" validate:"omitempty,uuid4"`
	TxDate      *string `json:"txDate,omitempty" example:"2025-03-26"` // Defaults to today
}

// TransactionResponse carries a transaction with display-ready amounts.
type TransactionResponse struct {
	models.Transaction
	AmountDecimal   float64 `json:"amount_decimal"`
	AmountFormatted string  `json:"amount_formatted"`
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{
		db:        db,
		validator: NewValidationHelper(),
		auditor:   audit.NewLogger(),
	}
}

func transactionResponse(tx models.Transaction) TransactionResponse {
	return TransactionResponse{
		Transaction:   tx,
		AmountDecimal: money.ToDecimal(tx.Amount),
		AmountFormatted: money.Format(tx.Amount, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: "BRL",
		}),
	}
}

// signedAmount applies the sign convention: expenses and withdrawals are
// stored negative, everything else positive. The parsed magnitude's own
// sign is discarded.
func signedAmount(minor int64, txType string) int64 {
	if minor < 0 {
		minor = -minor
	}
	switch txType {
	case models.TransactionTypeExpense, models.TransactionTypeWithdrawal:
		return -minor
	default:
		return minor
	}
}

// CreateTransaction records a transaction against an account or a card
// @Summary Create transaction
// @Description Record a transaction. Account transactions adjust the account
// @Description balance; card transactions are allocated to the card's open
// @Description invoice for the billing period of the transaction date.
// @Tags transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param transaction body CreateTransactionRequest true "Transaction data"
// @Success 201 {object} TransactionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions [post]
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateTransactionRequest
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

	if (req.AccountID == nil) == (req.CardID == nil) {
		SendErrorResponse(w, "Exactly one of accountId or cardId is required", http.StatusBadRequest, nil)
		return
	}

	txDate := time.Now()
	if req.TxDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.TxDate)
		if err != nil {
			SendErrorResponse(w, "txDate must be formatted as YYYY-MM-DD", http.StatusBadRequest, nil)
			return
		}
		txDate = parsed
	}

	minor := money.ParseAmount(req.Amount)
	if minor == 0 {
		SendErrorResponse(w, "Amount must be a non-zero monetary value", http.StatusBadRequest, nil)
		return
	}

	transaction := models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		AccountID:   req.AccountID,
		CardID:      req.CardID,
		Description: req.Description,
		Type:        req.Type,
		TxDate:      txDate,
		Metadata: models.Metadata{
			"ip_address": r.RemoteAddr,
			"user_agent": r.UserAgent(),
		},
	}

	var err error
	if req.AccountID != nil {
		transaction.Amount = signedAmount(minor, req.Type)
		err = s.allocateToAccount(&transaction)
	} else {
		// Card charges are stored as magnitudes; the invoice total carries
		// the running balance of the period.
		if minor < 0 {
			minor = -minor
		}
		transaction.Amount = minor
		err = s.allocateToCard(&transaction)
	}

	if err != nil {
		switch err {
		case sql.ErrNoRows:
			SendErrorResponse(w, "Account or card not found", http.StatusNotFound, nil)
		default:
			log.Printf("[TRANSACTION] Allocation failed for user %d: %v", userID, err)
			s.auditor.LogError(transaction.ID, destinationID(&transaction), err)
			SendErrorResponse(w, "Failed to record transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	log.Printf("[TRANSACTION] Transaction %s recorded for user %d", transaction.ID, userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(transactionResponse(transaction))
}

// allocateToAccount inserts the transaction and adjusts the account balance
// inside a single database transaction.
func (s *TransactionService) allocateToAccount(t *models.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRow(`
		SELECT balance FROM accounts
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, *t.AccountID, t.UserID).Scan(&balance)
	if err != nil {
		return err
	}

	newBalance := balance + t.Amount

	if _, err := tx.Exec(`
		UPDATE accounts SET balance = $1, updated_at = NOW() WHERE id = $2
	`, newBalance, *t.AccountID); err != nil {
		return err
	}

	err = tx.QueryRow(`
		INSERT INTO transactions (id, user_id, account_id, amount, description, type, tx_date, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`, t.ID, t.UserID, *t.AccountID, t.Amount, t.Description, t.Type, t.TxDate, t.Metadata).Scan(&t.CreatedAt)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.auditor.LogBalanceChange(t.ID, *t.AccountID, t.Amount, newBalance)
	return nil
}

// allocateToCard resolves the billing period for the transaction date,
// finds or creates the matching invoice and books the charge against it,
// all inside a single database transaction.
func (s *TransactionService) allocateToCard(t *models.Transaction) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var closingDay, dueDay int
	err = tx.QueryRow(`
		SELECT closing_day, due_day FROM cards
		WHERE id = $1 AND user_id = $2
	`, *t.CardID, t.UserID).Scan(&closingDay, &dueDay)
	if err != nil {
		return err
	}

	period := billing.ResolvePeriod(t.TxDate, closingDay, dueDay)

	var invoiceID string
	err = tx.QueryRow(`
		SELECT id FROM invoices
		WHERE card_id = $1 AND year = $2 AND month = $3
		FOR UPDATE
	`, *t.CardID, period.Year, period.Month).Scan(&invoiceID)
	if err == sql.ErrNoRows {
		invoiceID = uuid.NewString()
		_, err = tx.Exec(`
			INSERT INTO invoices (id, card_id, user_id, year, month, total_amount, paid_amount, status, closing_date, due_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, 0, 0, $6, $7, $8, NOW(), NOW())
		`, invoiceID, *t.CardID, t.UserID, period.Year, period.Month, models.InvoiceStatusOpen, period.ClosingDate, period.DueDate)
	}
	if err != nil {
		return err
	}

	t.InvoiceID = &invoiceID

	if _, err := tx.Exec(`
		UPDATE invoices SET total_amount = total_amount + $1, updated_at = NOW() WHERE id = $2
	`, t.Amount, invoiceID); err != nil {
		return err
	}

	err = tx.QueryRow(`
		INSERT INTO transactions (id, user_id, card_id, invoice_id, amount, description, type, tx_date, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`, t.ID, t.UserID, *t.CardID, invoiceID, t.Amount, t.Description, t.Type, t.TxDate, t.Metadata).Scan(&t.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func destinationID(t *models.Transaction) string {
	if t.AccountID != nil {
		return *t.AccountID
	}
	if t.CardID != nil {
		return *t.CardID
	}
	return ""
}

// ListTransactions returns the authenticated user's transactions
// @Summary List transactions
// @Description List transactions, optionally filtered by account, card or invoice
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param accountId query string false "Filter by account"
// @Param cardId query string false "Filter by card"
// @Param invoiceId query string false "Filter by invoice"
// @Success 200 {object} object{transactions=[]TransactionResponse,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	query := `
		SELECT id, user_id, account_id, card_id, invoice_id, amount, description, type, tx_date, metadata, created_at
		FROM transactions
		WHERE user_id = $1`
	args := []any{userID}

	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		args = append(args, accountID)
		query += ` AND account_id = $2`
	} else if cardID := r.URL.Query().Get("cardId"); cardID != "" {
		args = append(args, cardID)
		query += ` AND card_id = $2`
	} else if invoiceID := r.URL.Query().Get("invoiceId"); invoiceID != "" {
		args = append(args, invoiceID)
		query += ` AND invoice_id = $2`
	}
	query += ` ORDER BY tx_date DESC, created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to list transactions for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// RecentTransactions returns the user's ten most recent transactions
// @Summary Recent transactions
// @Description List the ten most recent transactions
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{transactions=[]TransactionResponse,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /transactions/recent [get]
func (s *TransactionService) RecentTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, account_id, card_id, invoice_id, amount, description, type, tx_date, metadata, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY tx_date DESC, created_at DESC
		LIMIT 10
	`, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch recent transactions for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions, err := scanTransactions(rows)
	if err != nil {
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
	})
}

// GetTransaction returns a single transaction by id
// @Summary Get transaction
// @Description Retrieve one transaction owned by the authenticated user
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} TransactionResponse
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{transactionId} [get]
func (s *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transactionID := chi.URLParam(r, "transactionId")

	var t models.Transaction
	err := s.db.QueryRow(`
		SELECT id, user_id, account_id, card_id, invoice_id, amount, description, type, tx_date, metadata, created_at
		FROM transactions
		WHERE id = $1 AND user_id = $2
	`, transactionID, userID).Scan(&t.ID, &t.UserID, &t.AccountID, &t.CardID, &t.InvoiceID, &t.Amount, &t.Description, &t.Type, &t.TxDate, &t.Metadata, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", transactionID, err)
			SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactionResponse(t))
}

// DeleteTransaction removes a transaction. Removal is direct; balances and
// invoice totals already derived from it are left untouched.
// @Summary Delete transaction
// @Description Delete a transaction without reversing its effects
// @Tags transactions
// @Produce json
// @Security BearerAuth
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{transactionId} [delete]
func (s *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	transactionID := chi.URLParam(r, "transactionId")

	result, err := s.db.Exec(`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, transactionID, userID)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to delete transaction %s: %v", transactionID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[TRANSACTION] Transaction %s deleted by user %d", transactionID, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

func scanTransactions(rows *sql.Rows) ([]TransactionResponse, error) {
	transactions := []TransactionResponse{}
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CardID, &t.InvoiceID, &t.Amount, &t.Description, &t.Type, &t.TxDate, &t.Metadata, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, transactionResponse(t))
	}
	return transactions, rows.Err()
}
