/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrBadUserID indicates that the user identifier is missing or not a number.
	ErrBadUserID = 1008
)

// 2xxx: Activity Economy and Profile Errors
const (
	// ErrUnknownSkin indicates that the requested skin is not in the catalog.
	ErrUnknownSkin = 2101

	// ErrInsufficientActivity indicates that the activity score does not cover the skin cost.
	ErrInsufficientActivity = 2102

	// ErrInfoTooLong indicates that the profile info text exceeds its length limit.
	ErrInfoTooLong = 2201

	// ErrMessageTooLong indicates that a chat message exceeds its length limit.
	ErrMessageTooLong = 2202
)

// 3xxx: User, Login and Session Errors
const (
	// ErrEmptyCode indicates that the login request carried no code.
	ErrEmptyCode = 3001

	// ErrInvalidCode indicates that the login code is unknown or already used.
	ErrInvalidCode = 3002

	// ErrUserNotFound indicates that the user has no durable record.
	ErrUserNotFound = 3003

	// ErrUnauthorized indicates that the session token does not match the requested user.
	ErrUnauthorized = 3004

	// ErrTokenRequired indicates that the request carried no session token where one is required.
	ErrTokenRequired = 3005
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrStoreUnavailable indicates that the durable store could not serve a read.
	ErrStoreUnavailable = 5001
)
