package errors

import "net/http"

// 400
var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request is malformed or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingFields = &AppError{
		Code:       "MISSING_FIELDS",
		Message:    "Required fields are missing.",
		HTTPStatus: http.StatusBadRequest,
	}
)

// 404 / 405 / 409 / 410
var (
	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrUnknownBrokerage = &AppError{
		Code:       "UNKNOWN_BROKERAGE",
		Message:    "The openid brokerage does not exist or is disabled.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "The HTTP method is not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrDuplicateEmail = &AppError{
		Code:       "DUPLICATE_EMAIL",
		Message:    "A user with this email already exists.",
		HTTPStatus: http.StatusConflict,
	}

	ErrTicketExpired = &AppError{
		Code:       "TICKET_EXPIRED",
		Message:    "The registration ticket is invalid, expired or already used.",
		HTTPStatus: http.StatusGone,
	}
)

// 422 / 429
var (
	ErrInvalidEmail = &AppError{
		Code:       "INVALID_EMAIL",
		Message:    "A valid email is required to complete the registration.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrProvisioning = &AppError{
		Code:       "PROVISIONING_FAILED",
		Message:    "The user could not be created from the openid profile.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
)

// 5xx
var (
	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An unexpected server error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrServiceUnavailable = &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    "The service is temporarily unavailable.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
)
