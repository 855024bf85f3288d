package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/salemfin/backend/internal/audit"
	"github.com/salemfin/backend/internal/models"
	"github.com/skip2/go-qrcode"
)

// InvoiceQRService issues short-lived payment QR codes for card invoices
// and settles the invoice once a code is redeemed.
type InvoiceQRService struct {
	db      *sql.DB
	redis   *redis.Client
	auditor *audit.Logger
}

func NewInvoiceQRService(db *sql.DB, redis *redis.Client) *InvoiceQRService {
	return &InvoiceQRService{
		db:      db,
		redis:   redis,
		auditor: audit.NewLogger(),
	}
}

// GenerateInvoiceQR builds a payment payload for the invoice's remaining
// balance and returns the encoded payload together with a PNG rendering.
// The payload is only redeemable for five minutes.
func (s *InvoiceQRService) GenerateInvoiceQR(ctx context.Context, userID int, invoiceID string) (string, string, error) {
	var totalAmount, paidAmount int64
	var status string
	err := s.db.QueryRow(`
		SELECT total_amount, paid_amount, status FROM invoices
		WHERE id = $1 AND user_id = $2
	`, invoiceID, userID).Scan(&totalAmount, &paidAmount, &status)
	if err != nil {
		return "", "", err
	}

	if status == models.InvoiceStatusPaid {
		return "", "", fmt.Errorf("invoice is already paid")
	}

	remaining := totalAmount - paidAmount
	if remaining <= 0 {
		return "", "", fmt.Errorf("invoice has no remaining balance")
	}

	qrData := map[string]any{
		"invoiceId": invoiceID,
		"userId":    userID,
		"amount":    remaining,
		"timestamp": time.Now().Unix(),
		"nonce":     s.generateNonce(),
	}

	jsonData, err := json.Marshal(qrData)
	if err != nil {
		return "", "", err
	}

	payload := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("invoice_qr:%s", payload)
	if err := s.redis.Set(ctx, key, jsonData, 5*time.Minute).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	qrImage := base64.StdEncoding.EncodeToString(buf.Bytes())

	return payload, qrImage, nil
}

// SettleInvoiceQR redeems a payment payload, marking the referenced invoice
// as paid for the amount the payload carries. Each payload settles at most
// once.
func (s *InvoiceQRService) SettleInvoiceQR(ctx context.Context, qrData string) (map[string]any, error) {
	key := fmt.Sprintf("invoice_qr:%s", qrData)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired QR code")
	}
	if err != nil {
		return nil, err
	}

	var payload struct {
		InvoiceID string `json:"invoiceId"`
		UserID    int    `json:"userId"`
		Amount    int64  `json:"amount"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var totalAmount, paidAmount int64
	var status string
	err = tx.QueryRow(`
		SELECT total_amount, paid_amount, status FROM invoices
		WHERE id = $1
		FOR UPDATE
	`, payload.InvoiceID).Scan(&totalAmount, &paidAmount, &status)
	if err != nil {
		return nil, err
	}

	previousStatus := status
	paidAmount += payload.Amount
	if paidAmount >= totalAmount {
		status = models.InvoiceStatusPaid
	}

	if _, err := tx.Exec(`
		UPDATE invoices SET paid_amount = $1, status = $2, updated_at = NOW() WHERE id = $3
	`, paidAmount, status, payload.InvoiceID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	if previousStatus != status {
		s.auditor.LogInvoiceStatus(payload.InvoiceID, previousStatus, status)
	}

	return map[string]any{
		"invoiceId":  payload.InvoiceID,
		"amount":     payload.Amount,
		"paidAmount": paidAmount,
		"status":     status,
	}, nil
}

func (s *InvoiceQRService) generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
