package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/salemfin/backend/internal/models"
	"github.com/salemfin/backend/internal/money"
)

type AccountService struct {
	db        *sql.DB
	validator *ValidationHelper
}

// CreateAccountRequest represents account creation payload
// @Description Account creation request structure
type CreateAccountRequest struct {
	Name           string `json:"name" validate:"required,min=2" example:"Nubank"`                            // Account display name
	Type           string `json:"type" validate:"required,oneof=checking savings cash investment"`           // Account type
	Currency       string `json:"currency" validate:"required,len=3" example:"BRL"`                          // Currency code
	InitialBalance string `json:"initialBalance" validate:"omitempty" example:"R$ 1.500,00"`                 // Locale-formatted opening balance
}

// AccountResponse carries an account with display-ready monetary fields.
type AccountResponse struct {
	models.Account
	BalanceDecimal   float64 `json:"balance_decimal"`
	BalanceFormatted string  `json:"balance_formatted"`
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

func accountResponse(acc models.Account) AccountResponse {
	return AccountResponse{
		Account:        acc,
		BalanceDecimal: money.ToDecimal(acc.Balance),
		BalanceFormatted: money.Format(acc.Balance, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: acc.Currency,
		}),
	}
}

// CreateAccount creates a money account for the authenticated user
// @Summary Create account
// @Description Create a new money account
// @Tags accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param account body CreateAccountRequest true "Account data"
// @Success 201 {object} AccountResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /accounts [post]
func (s *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req CreateAccountRequest
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

	// Monetary input crosses the normalization boundary exactly once
	balance := money.ParseAmount(req.InitialBalance)

	acc := models.Account{
		ID:       uuid.NewString(),
		UserID:   userID,
		Name:     req.Name,
		Type:     req.Type,
		Currency: req.Currency,
		Balance:  balance,
	}

	err := s.db.QueryRow(`
		INSERT INTO accounts (id, user_id, name, type, currency, balance, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`, acc.ID, acc.UserID, acc.Name, acc.Type, acc.Currency, acc.Balance).Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		log.Printf("[ACCOUNT] Account creation failed for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNT] Account %s created for user %d", acc.ID, userID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(accountResponse(acc))
}

// ListAccounts returns all accounts owned by the authenticated user
// @Summary List accounts
// @Description List the authenticated user's accounts
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{accounts=[]AccountResponse,count=int}
// @Failure 401 {object} ErrorResponse
// @Router /accounts [get]
func (s *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, type, currency, balance, created_at, updated_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to list accounts for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []AccountResponse{}
	for rows.Next() {
		var acc models.Account
		if err := rows.Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Currency, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, accountResponse(acc))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// GetAccount returns a single account by id
// @Summary Get account
// @Description Retrieve one account owned by the authenticated user
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} AccountResponse
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [get]
func (s *AccountService) GetAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	var acc models.Account
	err := s.db.QueryRow(`
		SELECT id, user_id, name, type, currency, balance, created_at, updated_at
		FROM accounts
		WHERE id = $1 AND user_id = $2
	`, accountID, userID).Scan(&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Currency, &acc.Balance, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[ACCOUNT] Failed to fetch account %s: %v", accountID, err)
			SendErrorResponse(w, "Failed to fetch account", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accountResponse(acc))
}

// DeleteAccount removes an account
// @Summary Delete account
// @Description Delete an account; removal is direct, with no soft delete
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [delete]
func (s *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	result, err := s.db.Exec(`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to delete account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	log.Printf("[ACCOUNT] Account %s deleted by user %d", accountID, userID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
}

// AccountBalanceEnquiry retrieves the balance for one account
// @Summary Get account balance
// @Description Retrieve balance for a given account, as integer cents and formatted
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param accountId query string true "Account ID"
// @Success 200 {object} object{accountId=string,balance=int64,balanceDecimal=float64,balanceFormatted=string}
// @Failure 404 {object} ErrorResponse
// @Router /accounts/balance-enquiry [get]
func (s *AccountService) AccountBalanceEnquiry(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		SendErrorResponse(w, "accountId is required", http.StatusBadRequest, nil)
		return
	}

	var balance int64
	var currency string
	err := s.db.QueryRow(`
		SELECT balance, currency FROM accounts
		WHERE id = $1 AND user_id = $2
	`, accountID, userID).Scan(&balance, &currency)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[ACCOUNT] Balance enquiry failed for %s: %v", accountID, err)
			SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accountId":      accountID,
		"balance":        balance,
		"balanceDecimal": money.ToDecimal(balance),
		"balanceFormatted": money.Format(balance, money.FormatOptions{
			ShowSymbol:   true,
			CurrencyCode: currency,
		}),
	})
}

// userIDFromContext extracts the authenticated user id injected by the auth
// middleware.
func userIDFromContext(r *http.Request) (int, bool) {
	raw, ok := r.Context().Value("userID").(string)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return id, true
}
