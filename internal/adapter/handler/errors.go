package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/logging"
)

const (
	gatewayErrorMessage  = "payment gateway error"
	internalErrorMessage = "internal error"
)

type ErrorResponse struct {
	Error any `json:"error"`
}

// outcome is the checkout_outcomes_total status label for err.
func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, service.ErrDuplicateSettlement) {
		return "duplicate"
	}
	if errors.Is(err, service.ErrSessionNotFound) {
		return "session_not_found"
	}
	if kind, ok := domain.KindOf(err); ok {
		return kind.String()
	}
	return "internal"
}

func gatewayMessage(err error, expose bool) string {
	if expose {
		return err.Error()
	}
	return gatewayErrorMessage
}

// httpError maps an error to a status code and a response body.
func httpError(err error, exposeGatewayErrors bool) (int, ErrorResponse) {
	if errors.Is(err, service.ErrDuplicateSettlement) {
		return http.StatusConflict, ErrorResponse{Error: err.Error()}
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case domain.ErrorKindOutOfStock:
			return http.StatusBadRequest, ErrorResponse{Error: derr.Error()}
		case domain.ErrorKindValidation:
			if len(derr.Fields) > 0 {
				return http.StatusBadRequest, ErrorResponse{Error: derr.Fields}
			}
			return http.StatusBadRequest, ErrorResponse{Error: derr.Error()}
		case domain.ErrorKindGatewayFailure:
			return http.StatusInternalServerError, ErrorResponse{Error: gatewayMessage(derr, exposeGatewayErrors)}
		}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage}
}

func grpcError(err error, exposeGatewayErrors bool) error {
	if errors.Is(err, service.ErrDuplicateSettlement) {
		return status.Error(codes.AlreadyExists, err.Error())
	}

	var derr *domain.Error
	if errors.As(err, &derr) {
		switch derr.Kind {
		case domain.ErrorKindOutOfStock:
			return status.Error(codes.FailedPrecondition, derr.Error())
		case domain.ErrorKindValidation:
			return status.Error(codes.InvalidArgument, derr.Error())
		case domain.ErrorKindGatewayFailure:
			return status.Error(codes.Unavailable, gatewayMessage(derr, exposeGatewayErrors))
		}
	}

	return status.Error(codes.Internal, internalErrorMessage)
}

func logFailure(operation string, err error) {
	if kind, ok := domain.KindOf(err); ok && kind != domain.ErrorKindGatewayFailure {
		return
	}
	if errors.Is(err, service.ErrDuplicateSettlement) {
		return
	}
	logging.Log(logging.Fields{
		Service: "handler",
		Step:    operation,
		Status:  outcome(err),
		Error:   err.Error(),
	})
}
