package github

import (
	"errors"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v57/github"
)

// Typed failures surfaced by the remote adapter. The orchestrator maps
// these onto its error taxonomy; everything else is a network error.
var (
	// ErrRateLimited is returned when the upstream API rate limit has
	// been exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound is returned when the requested resource does not
	// exist upstream.
	ErrNotFound = errors.New("not found")

	// ErrAuth is returned when the credential is missing, invalid, or
	// lacks the required scope.
	ErrAuth = errors.New("authentication failed")

	// ErrNoToken is returned by write operations on a tokenless
	// (read-only) client.
	ErrNoToken = errors.New("write access requires a token")
)

// classify wraps an upstream error with the matching sentinel so
// callers can errors.Is against the taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) || errors.Is(err, ErrRateLimited) {
		return fmt.Errorf("%s: %w", op, ErrRateLimited)
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %v", op, ErrAuth, respErr.Message)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
