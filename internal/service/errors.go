package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Shivanand-hulikatti/tour-booking/internal/repository"
)

// Error kinds surfaced to the HTTP boundary. Anything else is internal.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrNotFound      = errors.New("not found")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrUpstream      = errors.New("payment provider error")
	ErrUnauthorized  = errors.New("unauthorized")
)

// InputError collects per-field validation messages. It matches ErrBadRequest.
type InputError struct {
	fields map[string][]string
}

func newInputError() *InputError {
	return &InputError{fields: make(map[string][]string)}
}

func (ie *InputError) add(field, msg string) {
	ie.fields[field] = append(ie.fields[field], msg)
}

func (ie *InputError) orNil() error {
	if len(ie.fields) == 0 {
		return nil
	}
	return ie
}

func (ie *InputError) Error() string {
	keys := make([]string, 0, len(ie.fields))
	for k := range ie.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(ie.fields[k], ", "))
	}
	return strings.Join(parts, "; ")
}

// Fields returns the messages keyed by field name.
func (ie *InputError) Fields() map[string][]string {
	return ie.fields
}

func (ie *InputError) Unwrap() error {
	return ErrBadRequest
}

// AsInputError returns the InputError inside err, if any.
func AsInputError(err error) *InputError {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie
	}
	return nil
}

// translate maps repository not-found onto the service kind and wraps
// everything else with op for context.
func translate(err error, op, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%s: %w", op, err)
}
