package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestCardService_CreateCard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCardService(db)

	t.Run("successful registration", func(t *testing.T) {
		mock.ExpectQuery("INSERT INTO cards").
			WithArgs(sqlmock.AnyArg(), 7, "Nubank Roxinho", "mastercard", int64(500000), 25, 5).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testTime(), testTime()))

		body, _ := json.Marshal(map[string]any{
			"alias":      "Nubank Roxinho",
			"brand":      "mastercard",
			"totalLimit": "R$ 5.000,00",
			"closingDay": 25,
			"dueDay":     5,
		})
		r := withUserID(httptest.NewRequest("POST", "/cards", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		service.CreateCard(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response CardResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, int64(500000), response.TotalLimit)
		assert.Equal(t, 25, response.ClosingDay)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unsupported brand rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"alias":      "Cartão",
			"brand":      "discover",
			"totalLimit": "1.000,00",
			"closingDay": 10,
			"dueDay":     20,
		})
		r := withUserID(httptest.NewRequest("POST", "/cards", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		service.CreateCard(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("closing day out of range rejected", func(t *testing.T) {
		body, _ := json.Marshal(map[string]any{
			"alias":      "Cartão",
			"brand":      "visa",
			"totalLimit": "1.000,00",
			"closingDay": 32,
			"dueDay":     20,
		})
		r := withUserID(httptest.NewRequest("POST", "/cards", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		service.CreateCard(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCardService_UpdateCard(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCardService(db)

	router := chi.NewRouter()
	router.Patch("/cards/{cardId}", service.UpdateCard)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, alias, brand, total_limit").
			WithArgs("card123", 7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "alias", "brand", "total_limit", "closing_day", "due_day", "created_at", "updated_at"}).
				AddRow("card123", 7, "Nubank Roxinho", "mastercard", 500000, 25, 5, testTime(), testTime()))
		mock.ExpectQuery("UPDATE cards").
			WithArgs("Nubank Roxinho", int64(500000), 20, 5, "card123", 7).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(testTime()))

		body, _ := json.Marshal(map[string]any{"closingDay": 20})
		r := withUserID(httptest.NewRequest("PATCH", "/cards/card123", bytes.NewBuffer(body)), "7")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response CardResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 20, response.ClosingDay)
		assert.Equal(t, "Nubank Roxinho", response.Alias)
	})
}

func TestCardService_ListCards(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewCardService(db)

	t.Run("empty list", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, alias, brand, total_limit").
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "alias", "brand", "total_limit", "closing_day", "due_day", "created_at", "updated_at"}))

		r := withUserID(httptest.NewRequest("GET", "/cards", nil), "7")
		w := httptest.NewRecorder()

		service.ListCards(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Count int `json:"count"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 0, response.Count)
	})
}
