package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestAccountService_CreateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	t.Run("successful creation parses the localized balance", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), 7, "Nubank", "checking", "BRL", int64(150000)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testTime(), testTime()))

		body, _ := json.Marshal(map[string]any{
			"name":           "Nubank",
			"type":           "checking",
			"currency":       "BRL",
			"initialBalance": "R$ 1.500,00",
		})
		r := withUserID(httptest.NewRequest("POST", "/accounts", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response AccountResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, int64(150000), response.Balance)
		assert.Equal(t, 1500.0, response.BalanceDecimal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid account type rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"name":     "Cofre",
			"type":     "piggybank",
			"currency": "BRL",
		})
		r := withUserID(httptest.NewRequest("POST", "/accounts", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/accounts", bytes.NewBuffer([]byte("{}")))
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAccountService_GetAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	router := chi.NewRouter()
	router.Get("/accounts/{accountId}", service.GetAccount)

	t.Run("successful fetch", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, type, currency, balance").
			WithArgs("acc123", 7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "type", "currency", "balance", "created_at", "updated_at"}).
				AddRow("acc123", 7, "Nubank", "checking", "BRL", 150000, testTime(), testTime()))

		r := withUserID(httptest.NewRequest("GET", "/accounts/acc123", nil), "7")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AccountResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, "Nubank", response.Name)
		assert.Equal(t, int64(150000), response.Balance)
	})

	t.Run("account not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, name, type, currency, balance").
			WithArgs("missing", 7).
			WillReturnError(sql.ErrNoRows)

		r := withUserID(httptest.NewRequest("GET", "/accounts/missing", nil), "7")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAccountService_AccountBalanceEnquiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	t.Run("successful balance enquiry", func(t *testing.T) {
		mock.ExpectQuery("SELECT balance, currency FROM accounts").
			WithArgs("acc123", 7).
			WillReturnRows(sqlmock.NewRows([]string{"balance", "currency"}).AddRow(5000, "BRL"))

		r := withUserID(httptest.NewRequest("GET", "/accounts/balance-enquiry?accountId=acc123", nil), "7")
		w := httptest.NewRecorder()

		service.AccountBalanceEnquiry(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, float64(5000), response["balance"])
		assert.Equal(t, float64(50), response["balanceDecimal"])
	})

	t.Run("missing accountId", func(t *testing.T) {
		r := withUserID(httptest.NewRequest("GET", "/accounts/balance-enquiry", nil), "7")
		w := httptest.NewRecorder()

		service.AccountBalanceEnquiry(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	router := chi.NewRouter()
	router.Delete("/accounts/{accountId}", service.DeleteAccount)

	t.Run("account not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM accounts").
			WithArgs("missing", 7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := withUserID(httptest.NewRequest("DELETE", "/accounts/missing", nil), "7")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
