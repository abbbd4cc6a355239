// Package vendorutil provides error classification shared by vendor clients.
package vendorutil

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"conclave/pkg/llm/llmerrors"
)

var statusCodeRe = regexp.MustCompile(`\b([45]\d{2})\b`)

// extractStatusCode pulls an HTTP status code out of an SDK error string,
// returning 0 when none is present.
func extractStatusCode(errStr string) int {
	match := statusCodeRe.FindStringSubmatch(errStr)
	if match == nil {
		return 0
	}
	code, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return code
}

// Classify maps a vendor SDK error to a structured llmerrors.Error. The SDKs
// do not expose a uniform error type, so classification works from status
// codes embedded in the message plus text patterns.
func Classify(err error, vendor string) *llmerrors.Error {
	if err == nil {
		return nil
	}

	// Context errors first: timeouts are transient, cancellation is not a
	// vendor fault but must stop the call either way.
	if errors.Is(err, context.DeadlineExceeded) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, vendor+" request timeout")
	}
	if errors.Is(err, context.Canceled) {
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, vendor+" request canceled")
	}

	errStr := err.Error()

	if statusCode := extractStatusCode(errStr); statusCode != 0 {
		if et := llmerrors.ClassifyStatusCode(statusCode); et != llmerrors.ErrorTypeUnknown {
			return &llmerrors.Error{Type: et, Err: err, StatusCode: statusCode, Message: vendor + " API error"}
		}
	}

	lower := strings.ToLower(errStr)
	switch {
	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection"),
		strings.Contains(lower, "network"),
		strings.Contains(lower, "temporary"),
		strings.Contains(lower, "eof"),
		strings.Contains(lower, "reset"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeTransient, err, vendor+" network error")
	case strings.Contains(lower, "rate"),
		strings.Contains(lower, "quota"),
		strings.Contains(lower, "overloaded"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeRateLimit, err, vendor+" rate limiting detected")
	case strings.Contains(lower, "unauthorized"),
		strings.Contains(lower, "api key"),
		strings.Contains(lower, "auth"):
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeAuth, err, vendor+" authentication failure")
	default:
		return llmerrors.NewErrorWithCause(llmerrors.ErrorTypeUnknown, err, vendor+" API call failed")
	}
}
