// Package collector retrieves the raw public-feed records for a username.
//
// The concrete implementation scrapes a lightweight feed mirror over HTTP.
// Collection is arbitrary, slow, failure-prone I/O; callers treat it as an
// external collaborator and own any retry policy.
package collector

import (
	"context"
	"fmt"

	"github.com/jonathan/persona-chat/internal/types"
)

// Collector turns a username into raw feed records.
type Collector interface {
	Collect(ctx context.Context, username string) ([]types.Post, error)
}

// Error represents a failure while fetching a feed page.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("collect error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("collect error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
