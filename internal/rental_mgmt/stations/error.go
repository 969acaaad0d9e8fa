package stations

import (
	"errors"
	"fmt"
)

type Code string

const (
	CodeInvalidArgument    Code = "INVALID_ARGUMENT"
	CodeStationNotFound    Code = "STATION_NOT_FOUND"
	CodeStationUnavailable Code = "STATION_UNAVAILABLE"
	CodeConflict           Code = "CONFLICT"
	CodeInternal           Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

var (
	ErrStationNotFound       = &APIError{Code: CodeStationNotFound, Message: "station not found"}
	ErrInsufficientInventory = &APIError{Code: CodeStationUnavailable, Message: "no power bank available at this station"}
)

func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }

func ToHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument, CodeStationUnavailable:
			return 400
		case CodeStationNotFound:
			return 404
		case CodeConflict:
			return 409
		default:
			return 500
		}
	}
	return 500
}
