package google

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// Common Google API errors.
var (
	// ErrUnauthorized indicates invalid or expired credentials.
	ErrUnauthorized = errors.New("google: unauthorised (invalid credentials)")

	// ErrForbidden indicates insufficient permissions, usually a sheet that
	// was not shared with the service account.
	ErrForbidden = errors.New("google: forbidden (insufficient permissions)")

	// ErrNotFound indicates the requested spreadsheet, range or file was not found.
	ErrNotFound = errors.New("google: resource not found")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("google: rate limit exceeded")
)

// IsNotFound returns true if the error indicates a missing resource. The
// Sheets API reports an unknown worksheet as 400 "Unable to parse range".
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusNotFound {
			return true
		}
		return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
	}
	return false
}

// Diagnostic extracts the HTTP status and the upstream message from a Google
// API error. Non-API errors yield status 0 and the error text.
func Diagnostic(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = strings.TrimSpace(gerr.Body)
		}
		return gerr.Code, msg
	}
	return 0, err.Error()
}

// WrapError converts a Google API error to a more specific error while keeping
// the upstream message in the text.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	var base error
	switch gerr.Code {
	case http.StatusUnauthorized:
		base = ErrUnauthorized
	case http.StatusForbidden:
		base = ErrForbidden
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusTooManyRequests:
		base = ErrRateLimited
	default:
		return err
	}
	if gerr.Message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, gerr.Message)
}
