package audit

import (
	"encoding/json"
	"log"
	"time"
)

type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	EventType     string    `json:"event_type"`
	TransactionID string    `json:"transaction_id,omitempty"`
	EntityID      string    `json:"entity_id"`
	Amount        int64     `json:"amount,omitempty"`
	Status        string    `json:"status"`
	Details       any       `json:"details,omitempty"`
}

type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

// LogBalanceChange records a balance mutation on an account.
func (a *Logger) LogBalanceChange(transactionID, accountID string, delta, newBalance int64) {
	event := Event{
		Timestamp:     time.Now(),
		EventType:     "BALANCE_CHANGE",
		TransactionID: transactionID,
		EntityID:      accountID,
		Amount:        delta,
		Status:        "SUCCESS",
		Details: map[string]int64{
			"new_balance": newBalance,
		},
	}
	a.log(event)
}

// LogInvoiceStatus records an invoice status transition.
func (a *Logger) LogInvoiceStatus(invoiceID, from, to string) {
	event := Event{
		Timestamp: time.Now(),
		EventType: "INVOICE_STATUS",
		EntityID:  invoiceID,
		Status:    "SUCCESS",
		Details: map[string]string{
			"from": from,
			"to":   to,
		},
	}
	a.log(event)
}

// LogError records a failed operation.
func (a *Logger) LogError(transactionID, entityID string, err error) {
	event := Event{
		Timestamp:     time.Now(),
		EventType:     "ERROR",
		TransactionID: transactionID,
		EntityID:      entityID,
		Status:        "FAILED",
		Details:       map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
