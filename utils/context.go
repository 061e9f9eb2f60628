package utils

type contextKey string

// Request-scoped context keys set by the HTTP layer
const (
	RequestIDKey contextKey = "request_id"
	EndpointKey  contextKey = "endpoint"
	ClientIPKey  contextKey = "ip_address"
)
