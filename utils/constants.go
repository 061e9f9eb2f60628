package utils

import (
	"time"
)

// Request handling constants
const (
	// DefaultRequestTimeout bounds a single command execution triggered by an HTTP request
	DefaultRequestTimeout = 10 * time.Second

	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Mail pipeline constants
const (
	// ContactKeyLength is the length of the opaque contact key (about 190 bits of entropy)
	ContactKeyLength = 32

	// DefaultFromAddress is used as broadcast reply-to when none is configured
	DefaultFromAddress = "noreply@tailwind.dev"

	// DefaultFanoutBatchSize is the number of message rows per INSERT statement
	DefaultFanoutBatchSize = 500
)
