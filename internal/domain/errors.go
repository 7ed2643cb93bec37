package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSourceUnavailable indicates a network or collaborator failure.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSchemaMismatch indicates a collaborator response that cannot be mapped
	// to the expected record shape.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrInvalidRequest indicates a request parameter outside the supported vocabulary.
	ErrInvalidRequest = errors.New("invalid request")
)

// FetchError carries which collaborator failed and with which parameters so
// the caller can retry manually.
type FetchError struct {
	Collaborator string
	Params       map[string]string
	Err          error
}

func (e *FetchError) Error() string {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+e.Params[k])
	}
	return fmt.Sprintf("%s fetch failed (%s): %v", e.Collaborator, strings.Join(parts, " "), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
