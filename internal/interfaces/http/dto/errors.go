package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation and input error codes
const (
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
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
	ErrCodeInvalidState       = "ERR_INVALID_STATE"
	ErrCodeBusinessRule       = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientCredit = "ERR_INSUFFICIENT_CREDIT"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation and input errors -> 400 Bad Request
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:       http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:       http.StatusUnprocessableEntity,
	ErrCodeInsufficientCredit: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates domain error codes to the
// standardized API code families. Unmapped codes pass through
// NormalizeErrorCode as business rule violations so a new domain code
// never surfaces as a 500.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":          ErrCodeNotFound,
	"DOCUMENT_NOT_FOUND": ErrCodeNotFound,
	"CUSTOMER_NOT_FOUND": ErrCodeNotFound,
	"VENDOR_NOT_FOUND":   ErrCodeNotFound,
	"PRODUCT_NOT_FOUND":  ErrCodeNotFound,

	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,

	"INVALID_INPUT":           ErrCodeInvalidInput,
	"INVALID_CUSTOMER":        ErrCodeInvalidInput,
	"INVALID_VENDOR":          ErrCodeInvalidInput,
	"INVALID_PRODUCT":         ErrCodeInvalidInput,
	"INVALID_CUSTOMER_NAME":   ErrCodeInvalidInput,
	"INVALID_VENDOR_NAME":     ErrCodeInvalidInput,
	"INVALID_PRODUCT_NAME":    ErrCodeInvalidInput,
	"INVALID_DOCUMENT":        ErrCodeInvalidInput,
	"INVALID_DOCUMENT_KIND":   ErrCodeInvalidInput,
	"INVALID_DOCUMENT_NUMBER": ErrCodeInvalidInput,
	"INVALID_LINE_ITEM":       ErrCodeInvalidInput,
	"INVALID_QUANTITY":        ErrCodeInvalidInput,
	"INVALID_PRICE":           ErrCodeInvalidInput,
	"INVALID_COST":            ErrCodeInvalidInput,
	"INVALID_MARKUP":          ErrCodeInvalidInput,
	"INVALID_CATEGORY":        ErrCodeInvalidInput,
	"INVALID_PAYMENT_AMOUNT":  ErrCodeInvalidInput,
	"INVALID_PAYMENT_DATE":    ErrCodeInvalidInput,
	"INVALID_PAYMENT_METHOD":  ErrCodeInvalidInput,
	"INVALID_CREDIT_AMOUNT":   ErrCodeInvalidInput,
	"INVALID_BULK_REQUEST":    ErrCodeInvalidInput,
	"INVALID_STATUS":          ErrCodeInvalidInput,

	"INVALID_STATE":             ErrCodeInvalidState,
	"INVALID_STATUS_TRANSITION": ErrCodeInvalidState,
	"INVALID_CONVERSION":        ErrCodeInvalidState,
	"INVALID_TRANSACTION_TYPE":  ErrCodeInvalidState,
	"DOCUMENT_VOIDED":           ErrCodeInvalidState,
	"DOCUMENT_FINALIZED":        ErrCodeInvalidState,
	"DOCUMENT_COMPLETED":        ErrCodeInvalidState,
	"ALREADY_VOIDED":            ErrCodeInvalidState,
	"NOT_NON_STOCK":             ErrCodeInvalidState,

	"INSUFFICIENT_CREDIT": ErrCodeInsufficientCredit,
}

// NormalizeErrorCode converts a domain error code to the standardized
// format. Codes already in the ERR_ namespace pass through; unknown
// domain codes fall back to the generic business rule code.
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeBusinessRule
}
