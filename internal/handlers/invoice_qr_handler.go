package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/salemfin/backend/internal/services"
)

type InvoiceQRHandler struct {
	service   *services.InvoiceQRService
	validator *services.ValidationHelper
}

func NewInvoiceQRHandler(service *services.InvoiceQRService) *InvoiceQRHandler {
	return &InvoiceQRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateQR issues a payment QR code for an invoice
// @Summary Generate invoice QR code
// @Description Generate a payment QR code for an invoice's remaining balance
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{invoiceId=string} true "QR generation request"
// @Success 200 {object} object{qrCode=string,qrImage=string}
// @Failure 400 {object} services.ErrorResponse
// @Failure 401 {object} services.ErrorResponse
// @Router /invoices/qr/generate [post]
func (h *InvoiceQRHandler) GenerateQR(w http.ResponseWriter, r *http.Request) {
	rawUserID, ok := r.Context().Value("userID").(string)
	if !ok || rawUserID == "" {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	userID, err := strconv.Atoi(rawUserID)
	if err != nil {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		InvoiceID string `json:"invoiceId" validate:"required,uuid4"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	qrCode, qrImage, err := h.service.GenerateInvoiceQR(r.Context(), userID, req.InvoiceID)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"qrCode":  qrCode,
		"qrImage": qrImage,
	})
}

// SettleQR redeems a scanned invoice payment QR code
// @Summary Settle invoice QR code
// @Description Redeem a payment QR code, applying its amount to the invoice
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{qrData=string} true "QR settlement request"
// @Success 200 {object} object{invoiceId=string,amount=int64,status=string}
// @Failure 400 {object} services.ErrorResponse
// @Router /invoices/qr/settle [post]
func (h *InvoiceQRHandler) SettleQR(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QRData string `json:"qrData" validate:"required"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := h.service.SettleInvoiceQR(r.Context(), req.QRData)
	if err != nil {
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    result,
	})
}
