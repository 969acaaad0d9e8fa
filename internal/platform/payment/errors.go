package payment

import (
	"errors"
	"fmt"
)

// 決済ゲートウェイの失敗種別。いずれも同期リトライはしない（呼び出し側が補償を決める）。
var (
	ErrNotConfigured            = errors.New("payment processing is not configured")
	ErrCardDeclined             = errors.New("card declined")
	ErrCustomerOrMethodNotFound = errors.New("customer or payment method not found")
	ErrGatewayUnavailable       = errors.New("payment gateway unavailable")
	ErrChargeRejected           = errors.New("charge rejected by payment gateway")
)

// ChargeError carries the processor's code next to one of the sentinel kinds.
type ChargeError struct {
	Kind    error
	Code    string
	Message string
}

func (e *ChargeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%v (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *ChargeError) Unwrap() error { return e.Kind }

// FailureCode は DB に残す短い失敗理由
func FailureCode(err error) string {
	var ce *ChargeError
	if errors.As(err, &ce) && ce.Code != "" {
		return ce.Code
	}
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrCardDeclined):
		return "card_declined"
	case errors.Is(err, ErrCustomerOrMethodNotFound):
		return "resource_missing"
	case errors.Is(err, ErrGatewayUnavailable):
		return "gateway_unavailable"
	case errors.Is(err, ErrChargeRejected):
		return "rejected"
	default:
		return "unknown"
	}
}
