package middleware

// localsKey namespaces the values this package stores in fiber Locals.
type localsKey string

const (
	RequestIDHeader     = "X-Request-ID"
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	requestIDKey    localsKey = "requestID"
	fileLoggerKey   localsKey = "requestFileLogger"
	sqliteLoggerKey localsKey = "requestSQLiteLogger"
	UserIDKey       localsKey = "userID" // uint set by the auth gate
)
