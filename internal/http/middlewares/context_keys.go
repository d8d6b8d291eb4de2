package middlewares

// gin context keys
const (
	CtxUserID    = "auth.userID"
	CtxEmail     = "auth.email"
	CtxRequestID = "request_id"
)
