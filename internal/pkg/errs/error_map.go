package errs

import "net/http"

// errorMap stores the CustomError template for every application error code.
// Reason keeps the short machine-readable vocabulary the web client switches on.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Reason: "bad_request", Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Reason: "bad_request", Message: "Unsupported request format.", Status: http.StatusUnsupportedMediaType},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Reason: "bad_request", Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Reason: "bad_request", Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:    {Code: ErrRateLimitExceeded, Reason: "rate_limited", Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrBadUserID:            {Code: ErrBadUserID, Reason: "bad_user_id", Message: "Invalid user id.", Status: http.StatusBadRequest},

	// 2xxx: Activity Economy and Profile Errors
	ErrUnknownSkin:          {Code: ErrUnknownSkin, Reason: "bad_request", Message: "Unknown skin %q.", Status: http.StatusBadRequest},
	ErrInsufficientActivity: {Code: ErrInsufficientActivity, Reason: "not_enough_activity", Message: "Not enough activity points.", Status: http.StatusBadRequest},
	ErrInfoTooLong:          {Code: ErrInfoTooLong, Reason: "too_long", Message: "Info must be at most %d characters.", Status: http.StatusBadRequest},
	ErrMessageTooLong:       {Code: ErrMessageTooLong, Reason: "too_long", Message: "Message is too long."},

	// 3xxx: User, Login and Session Errors
	ErrEmptyCode:     {Code: ErrEmptyCode, Reason: "empty_code", Message: "Login code is empty.", Status: http.StatusBadRequest},
	ErrInvalidCode:   {Code: ErrInvalidCode, Reason: "invalid_code", Message: "Login code is invalid or already used.", Status: http.StatusNotFound},
	ErrUserNotFound:  {Code: ErrUserNotFound, Reason: "user_not_found", Message: "User not found.", Status: http.StatusNotFound},
	ErrUnauthorized:  {Code: ErrUnauthorized, Reason: "unauthorized", Message: "Session does not match the requested user.", Status: http.StatusUnauthorized},
	ErrTokenRequired: {Code: ErrTokenRequired, Reason: "unauthorized", Message: "Log in with a bot code first.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown:          {Code: ErrUnknown, Reason: "internal", Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrStoreUnavailable: {Code: ErrStoreUnavailable, Reason: "store_unavailable", Message: "Storage is temporarily unavailable.", Status: http.StatusServiceUnavailable},
}
