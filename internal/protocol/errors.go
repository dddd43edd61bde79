package protocol

// 错误码，形如 EMO-<HTTP 状态码>
const (
	ErrCodeBadRequest      = "EMO-400"
	ErrCodeUnauthenticated = "EMO-401"
	ErrCodeForbidden       = "EMO-403"
	ErrCodeNotFound        = "EMO-404"
	ErrCodeConflict        = "EMO-409"
	ErrCodeTooLarge        = "EMO-413"
	ErrCodeRateLimit       = "EMO-429"
	ErrCodeInternal        = "EMO-500"
)

// ErrorMessages 错误码对应的默认消息
var ErrorMessages = map[string]string{
	ErrCodeBadRequest:      "Invalid request",
	ErrCodeUnauthenticated: "Not authenticated",
	ErrCodeForbidden:       "Forbidden",
	ErrCodeNotFound:        "Not found",
	ErrCodeConflict:        "Invalid state",
	ErrCodeTooLarge:        "Payload too large",
	ErrCodeRateLimit:       "Too many messages",
	ErrCodeInternal:        "Internal server error",
}
