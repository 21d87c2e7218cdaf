package dto

import "net/http"

// Error code constants organized by category

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeValidation   = "ERR_VALIDATION"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeHasPayments is returned when deleting an expense with paid shares
	ErrCodeHasPayments = "ERR_HAS_PAYMENTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,
	ErrCodeHasPayments:  http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"STAGE_IN_USE":         ErrCodeConflict,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INVALID_STATE":        ErrCodeInvalidState,
	"HAS_PAYMENTS":         ErrCodeHasPayments,

	// Constructor validation failures -> 400 Bad Request
	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_AMOUNT":          ErrCodeInvalidInput,
	"INVALID_APARTMENT":       ErrCodeInvalidInput,
	"INVALID_BUILDING":        ErrCodeInvalidInput,
	"INVALID_DESCRIPTION":     ErrCodeInvalidInput,
	"INVALID_EXPENSE":         ErrCodeInvalidInput,
	"INVALID_MONTH":           ErrCodeInvalidInput,
	"INVALID_NAME":            ErrCodeInvalidInput,
	"INVALID_PERIOD":          ErrCodeInvalidInput,
	"INVALID_RECURRING_RANGE": ErrCodeInvalidInput,
	"INVALID_RECURRING_TYPE":  ErrCodeInvalidInput,
	"INVALID_STAGE_NUMBER":    ErrCodeInvalidInput,
	"INVALID_THRESHOLD":       ErrCodeInvalidInput,
	"INVALID_ACTION_TYPE":     ErrCodeInvalidInput,
	"INVALID_UNIT_NUMBER":     ErrCodeInvalidInput,
	"INVALID_ALLOCATION":      ErrCodeInvalidInput,

	// Business rule violations -> 422 Unprocessable Entity
	"APARTMENT_NOT_IN_BUILDING":  ErrCodeBusinessRule,
	"NO_APARTMENTS":              ErrCodeBusinessRule,
	"NOT_A_TEMPLATE":             ErrCodeBusinessRule,
	"INVALID_STAGE":              ErrCodeBusinessRule,
	"ALLOCATION_EXCEEDS_PAYMENT": ErrCodeBusinessRule,
	"EXCEEDS_PAID":               ErrCodeBusinessRule,
	"EXCEEDS_REMAINING":          ErrCodeBusinessRule,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Unknown codes are returned as-is (and map to 500 via GetHTTPStatus).
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
