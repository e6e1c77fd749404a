// Package service provides the write queue's stateless helpers: remote error
// classification and payload encoding for the local durable log.
package service

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/allisson/writequeue/internal/writequeue/domain"
)

// transientPatterns are lower-cased message fragments that mark an untyped
// error as a network failure.
var transientPatterns = []string{
	"fetch failed",
	"failed to fetch",
	"network error",
	"network is unreachable",
	"network request failed",
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"no such host",
	"econnrefused",
	"enotfound",
	"etimedout",
	"econnreset",
	"socket hang up",
	"broken pipe",
}

// ErrorClassifier decides whether a remote store failure is transient.
type ErrorClassifier interface {
	IsTransient(err error) bool
}

type errorClassifier struct {
	patterns []string
}

// NewErrorClassifier returns the classifier used for every remote store call.
// A typed *domain.RemoteError always wins. Untyped errors are transient when
// they are a deadline, a network error, or their message matches a known
// network failure fragment. Everything else is permanent.
func NewErrorClassifier() ErrorClassifier {
	return &errorClassifier{patterns: transientPatterns}
}

func (c *errorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var remoteErr *domain.RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr.Transient()
	}

	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range c.patterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
