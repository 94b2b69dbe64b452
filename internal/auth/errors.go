package auth

import "errors"

// Classified auth failures. Callers use errors.Is to distinguish
// "retry later" (network) from "fix input" (credential) from everything
// else, and present distinct guidance for each.
var (
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrInvalidCredential  = errors.New("invalid credential")
	ErrAccountConflict    = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrMalformedInput     = errors.New("malformed credentials")
	ErrTooManyRequests    = errors.New("too many requests")
)

// ErrorInfo maps a classified error to its HTTP status and error code.
type ErrorInfo struct {
	Status int
	Code   string
}

var errorMap = map[error]ErrorInfo{
	ErrNetworkUnavailable: {Status: 503, Code: "NETWORK_UNAVAILABLE"},
	ErrInvalidCredential:  {Status: 401, Code: "INVALID_CREDENTIAL"},
	ErrAccountConflict:    {Status: 409, Code: "ACCOUNT_CONFLICT"},
	ErrUserNotFound:       {Status: 404, Code: "USER_NOT_FOUND"},
	ErrMalformedInput:     {Status: 400, Code: "MALFORMED_CREDENTIALS"},
	ErrTooManyRequests:    {Status: 429, Code: "TOO_MANY_REQUESTS"},
}

// LookupError checks if the given error matches any classified auth error
// and returns the corresponding ErrorInfo. Returns false if no match.
func LookupError(err error) (ErrorInfo, bool) {
	for sentinel, info := range errorMap {
		if errors.Is(err, sentinel) {
			return info, true
		}
	}
	return ErrorInfo{}, false
}
