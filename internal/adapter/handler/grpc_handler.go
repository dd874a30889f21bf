package handler

import (
	"context"

	"github.com/rl1809/storefront/internal/adapter/handler/checkoutv1"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/metrics"
)

type GRPCHandler struct {
	checkout *service.CheckoutService
	cfg      HTTPConfig
}

var _ checkoutv1.CheckoutServer = (*GRPCHandler)(nil)

// NewGRPCHandler shares the HTTP handler's publishable key, error exposure and metrics.
func NewGRPCHandler(checkout *service.CheckoutService, cfg HTTPConfig) *GRPCHandler {
	return &GRPCHandler{checkout: checkout, cfg: cfg}
}

func (h *GRPCHandler) PaymentSheet(ctx context.Context, req *checkoutv1.PaymentSheetRequest) (*checkoutv1.PaymentSheetReply, error) {
	session, err := h.checkout.PaymentSheet(ctx, toCart(req.Products))
	recordOutcome(h.cfg.Metrics, "grpc_payment_sheet", err)
	if err != nil {
		logFailure("grpc_payment_sheet", err)
		return nil, grpcError(err, h.cfg.ExposeGatewayErrors)
	}

	return &checkoutv1.PaymentSheetReply{
		PaymentIntent:  session.ClientSecret,
		EphemeralKey:   session.EphemeralKeySecret,
		Customer:       session.CustomerID,
		PublishableKey: h.cfg.PublishableKey,
	}, nil
}

func (h *GRPCHandler) Settle(ctx context.Context, req *checkoutv1.SettleRequest) (*checkoutv1.SettleReply, error) {
	settle, err := settleRequest(toCart(req.Products), req.PaymentIntent, req.IdempotencyKey)
	if err == nil {
		err = h.checkout.Settle(ctx, settle)
	}
	recordOutcome(h.cfg.Metrics, "grpc_settle", err)
	if err != nil {
		logFailure("grpc_settle", err)
		return nil, grpcError(err, h.cfg.ExposeGatewayErrors)
	}
	return &checkoutv1.SettleReply{Success: true}, nil
}

func toCart(lines []checkoutv1.CartLine) domain.Cart {
	cart := make(domain.Cart, 0, len(lines))
	for _, l := range lines {
		cart = append(cart, domain.CartLine{ProductID: l.ID, Quantity: l.Quantity})
	}
	return cart
}

func recordOutcome(m *metrics.ServerMetrics, operation string, err error) {
	if m == nil {
		return
	}
	m.CheckoutOutcomes.WithLabelValues(operation, outcome(err)).Inc()
}
