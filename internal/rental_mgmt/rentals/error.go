package rentals

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/thenavnitdev/pawatasty-sub002/internal/platform/payment"
	"github.com/thenavnitdev/pawatasty-sub002/internal/rental_mgmt/stations"
)

type Code string

const (
	CodeInvalidArgument      Code = "INVALID_ARGUMENT"
	CodeNotFound             Code = "NOT_FOUND"
	CodeStationNotFound      Code = "STATION_NOT_FOUND"
	CodeStationUnavailable   Code = "STATION_UNAVAILABLE"
	CodeNoPaymentMethod      Code = "NO_PAYMENT_METHOD"
	CodeInvalidPaymentMethod Code = "INVALID_PAYMENT_METHOD"
	CodeNotActive            Code = "NOT_ACTIVE"
	CodePowerbankInUse       Code = "POWERBANK_IN_USE"
	CodePaymentFailed        Code = "PAYMENT_FAILED"
	CodePaymentNotConfigured Code = "PAYMENT_NOT_CONFIGURED"
	CodeInternal             Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

var (
	ErrNotFound             = &APIError{Code: CodeNotFound, Message: "rental not found"}
	ErrNotActive            = &APIError{Code: CodeNotActive, Message: "rental is not active"}
	ErrPowerbankInUse       = &APIError{Code: CodePowerbankInUse, Message: "power bank already has an active rental"}
	ErrNoPaymentMethod      = &APIError{Code: CodeNoPaymentMethod, Message: "add a payment method before renting"}
	ErrInvalidPaymentMethod = &APIError{Code: CodeInvalidPaymentMethod, Message: "payment method is not usable"}
	ErrPaymentNotConfigured = &APIError{Code: CodePaymentNotConfigured, Message: "payment processing is not configured"}
	ErrStationNotFound      = &APIError{Code: CodeStationNotFound, Message: "station not found"}
	ErrStationUnavailable   = &APIError{Code: CodeStationUnavailable, Message: "no power bank available at this station"}

	// 同じ (rental, purpose) の請求が既に台帳にある
	errChargeExists = errors.New("charge already recorded for rental and purpose")
)

func ErrInvalid(msg string) *APIError { return &APIError{Code: CodeInvalidArgument, Message: msg} }

func paymentFailed(err error) *APIError {
	if errors.Is(err, payment.ErrNotConfigured) {
		return &APIError{Code: CodePaymentNotConfigured, Message: ErrPaymentNotConfigured.Message, Err: err}
	}
	msg := "payment failed"
	switch {
	case errors.Is(err, payment.ErrCardDeclined):
		msg = "card was declined"
	case errors.Is(err, payment.ErrCustomerOrMethodNotFound):
		msg = "payment method could not be found at the processor"
	case errors.Is(err, payment.ErrGatewayUnavailable):
		msg = "payment processor is unavailable, try again later"
	}
	return &APIError{Code: CodePaymentFailed, Message: msg, Err: err}
}

// gatewayErr は決済側の失敗だけを PAYMENT_FAILED に寄せる。DB等のエラーはそのまま返す（500）
func gatewayErr(err error) error {
	for _, k := range []error{
		payment.ErrNotConfigured,
		payment.ErrCardDeclined,
		payment.ErrCustomerOrMethodNotFound,
		payment.ErrGatewayUnavailable,
		payment.ErrChargeRejected,
	} {
		if errors.Is(err, k) {
			return paymentFailed(err)
		}
	}
	return err
}

// 在庫台帳のエラーをこちらのコードに寄せる
func fromInventoryErr(err error) error {
	switch {
	case errors.Is(err, stations.ErrStationNotFound):
		return ErrStationNotFound
	case errors.Is(err, stations.ErrInsufficientInventory):
		return ErrStationUnavailable
	default:
		return err
	}
}

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeNoPaymentMethod, CodeInvalidPaymentMethod,
			CodeStationUnavailable, CodeNotActive:
			return http.StatusBadRequest
		case CodeNotFound, CodeStationNotFound:
			return http.StatusNotFound
		case CodePowerbankInUse:
			return http.StatusConflict
		case CodePaymentFailed:
			if errors.Is(api.Err, payment.ErrGatewayUnavailable) {
				return http.StatusBadGateway
			}
			return http.StatusBadRequest
		case CodePaymentNotConfigured:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
