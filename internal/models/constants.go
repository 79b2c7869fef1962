package models

const (
	// TimestampLayout is the UTC format the backend speaks.
	TimestampLayout = "2006-01-02T15:04:05Z"

	// DateLayout is used for picked dates and calendar tokens.
	DateLayout = "2006-01-02"

	// DisplayTimeLayout and DisplayDateLayout are what users see.
	DisplayTimeLayout = "15:04"
	DisplayDateLayout = "02.01.2006"
)

const (
	// DefaultSessionTTL is how long an unfinished flow survives, in minutes
	DefaultSessionTTL = 60

	// DefaultDisplayOffset is the UTC offset used when showing times
	DefaultDisplayOffset = "+01:00"

	// RateLimitMessages is the number of updates allowed per window
	RateLimitMessages = 20

	// RateLimitWindow is the rate limit window
	RateLimitWindow = 60 // seconds

	// DefaultHandlerTimeout bounds the handling of one update, in seconds
	DefaultHandlerTimeout = 30

	// DefaultBackendTimeout is the backend HTTP timeout, in seconds
	DefaultBackendTimeout = 10
)
