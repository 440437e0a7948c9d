package core

import "github.com/google/uuid"

// NewCorrelationID returns a fresh identifier that transport/httprpc's client
// attaches to each outbound request as its X-Correlation-Id header. The
// server and its request-logging middleware do not read it back.
func NewCorrelationID() string {
	return uuid.NewString()
}
