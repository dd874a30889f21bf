package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorKind int

const (
	ErrorKindValidation ErrorKind = iota + 1
	ErrorKindOutOfStock
	ErrorKindGatewayFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindValidation:
		return "validation"
	case ErrorKindOutOfStock:
		return "out_of_stock"
	case ErrorKindGatewayFailure:
		return "gateway_failure"
	default:
		return "unknown"
	}
}

// Error is the tagged failure returned by every checkout and catalog component.
type Error struct {
	Kind      ErrorKind
	ProductID string              // set for ErrorKindOutOfStock
	Fields    map[string][]string // set for ErrorKindValidation
	Err       error
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrorKindOutOfStock:
		return fmt.Sprintf("Product %s is out of stock", e.ProductID)
	case ErrorKindValidation:
		if e.Err != nil {
			return e.Err.Error()
		}
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
		}
		return "invalid request: " + strings.Join(parts, "; ")
	case ErrorKindGatewayFailure:
		return fmt.Sprintf("payment gateway: %v", e.Err)
	default:
		return fmt.Sprintf("checkout error: %v", e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func OutOfStock(productID string) *Error {
	return &Error{Kind: ErrorKindOutOfStock, ProductID: productID}
}

func InvalidFields(fields map[string][]string) *Error {
	return &Error{Kind: ErrorKindValidation, Fields: fields}
}

func InvalidField(field, message string) *Error {
	return InvalidFields(map[string][]string{field: {message}})
}

func Invalid(err error) *Error {
	return &Error{Kind: ErrorKindValidation, Err: err}
}

func GatewayFailure(err error) *Error {
	return &Error{Kind: ErrorKindGatewayFailure, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
