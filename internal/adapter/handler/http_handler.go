package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/logging"
	"github.com/rl1809/storefront/pkg/metrics"
)

const maxWebhookBytes = 64 << 10

type HTTPConfig struct {
	PublishableKey      string
	ExposeGatewayErrors bool
	// Metrics is optional.
	Metrics *metrics.ServerMetrics
}

type HTTPHandler struct {
	checkout *service.CheckoutService
	catalog  *service.CatalogService
	webhook  port.WebhookVerifier
	cfg      HTTPConfig
}

type CartLineRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity int64  `json:"quantity" validate:"gt=0"`
	// Price is accepted for client compatibility and never read.
	Price *int64 `json:"price,omitempty"`
}

type CheckoutHTTPRequest struct {
	Products []CartLineRequest `json:"products" validate:"required,min=1,dive"`
	// PaymentIntent is the client secret returned by the payment sheet.
	// Only /checkout/success reads it.
	PaymentIntent string `json:"paymentIntent,omitempty"`
}

func (r CheckoutHTTPRequest) Cart() domain.Cart {
	cart := make(domain.Cart, 0, len(r.Products))
	for _, p := range r.Products {
		cart = append(cart, domain.CartLine{ProductID: p.ID, Quantity: p.Quantity})
	}
	return cart
}

type PaymentSheetHTTPResponse struct {
	PaymentIntent  string `json:"paymentIntent"`
	EphemeralKey   string `json:"ephemeralKey"`
	Customer       string `json:"customer"`
	PublishableKey string `json:"publishableKey"`
}

type SuccessHTTPResponse struct {
	Success bool `json:"success"`
}

func NewHTTPHandler(checkout *service.CheckoutService, catalog *service.CatalogService, webhook port.WebhookVerifier, cfg HTTPConfig) *HTTPHandler {
	return &HTTPHandler{
		checkout: checkout,
		catalog:  catalog,
		webhook:  webhook,
		cfg:      cfg,
	}
}

func (h *HTTPHandler) PaymentSheet(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(r)
	if err != nil {
		h.writeError(w, "payment_sheet", err)
		return
	}

	session, err := h.checkout.PaymentSheet(r.Context(), req.Cart())
	recordOutcome(h.cfg.Metrics, "payment_sheet", err)
	if err != nil {
		h.writeError(w, "payment_sheet", err)
		return
	}

	writeJSON(w, http.StatusOK, PaymentSheetHTTPResponse{
		PaymentIntent:  session.ClientSecret,
		EphemeralKey:   session.EphemeralKeySecret,
		Customer:       session.CustomerID,
		PublishableKey: h.cfg.PublishableKey,
	})
}

// Success settles the cart. A paymentIntent in the body settles the purchase once
// together with the webhook. Otherwise an Idempotency-Key header makes retries
// safe; without either every call decrements stock again.
func (h *HTTPHandler) Success(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCheckout(r)
	if err != nil {
		h.writeError(w, "settle", err)
		return
	}

	settle, err := settleRequest(req.Cart(), req.PaymentIntent, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.writeError(w, "settle", err)
		return
	}

	err = h.checkout.Settle(r.Context(), settle)
	recordOutcome(h.cfg.Metrics, "settle", err)
	if err != nil {
		h.writeError(w, "settle", err)
		return
	}

	writeJSON(w, http.StatusOK, SuccessHTTPResponse{Success: true})
}

// Webhook receives gateway events. Only payment confirmations act on stock.
// Failures that a redelivery cannot fix are acknowledged so the gateway stops retrying.
func (h *HTTPHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	event, err := h.webhook.ParseEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid signature"})
		return
	}

	if event.Type != domain.GatewayEventPaymentSucceeded {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	err = h.checkout.HandlePaymentSucceeded(r.Context(), event.PaymentIntentID)
	recordOutcome(h.cfg.Metrics, "webhook", err)
	if err != nil {
		logging.Log(logging.Fields{
			Service:         "handler",
			PaymentIntentID: event.PaymentIntentID,
			Step:            "webhook",
			Status:          outcome(err),
			Error:           err.Error(),
		})
		if !acknowledgeable(err) {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func acknowledgeable(err error) bool {
	return errors.Is(err, service.ErrSessionNotFound) ||
		errors.Is(err, service.ErrDuplicateSettlement) ||
		domain.IsKind(err, domain.ErrorKindOutOfStock)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeCheckout(r *http.Request) (CheckoutHTTPRequest, error) {
	var req CheckoutHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, domain.InvalidField("body", "invalid request body")
	}
	if err := validateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}

// settleRequest keys the settlement by payment intent when the client names one,
// which lets it and the gateway webhook settle the purchase once between them.
func settleRequest(cart domain.Cart, paymentIntent, idempotencyKey string) (service.SettleRequest, error) {
	req := service.SettleRequest{Cart: cart, IdempotencyKey: idempotencyKey}
	if paymentIntent == "" {
		return req, nil
	}
	id, ok := domain.PaymentIntentIDFromSecret(paymentIntent)
	if !ok {
		return req, domain.InvalidField("paymentIntent", "must be a payment intent client secret")
	}
	req.PaymentIntentID = id
	return req, nil
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, operation string, err error) {
	logFailure(operation, err)
	status, body := httpError(err, h.cfg.ExposeGatewayErrors)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
