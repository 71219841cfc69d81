package gitsource

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	fnderrors "git.home.luguber.info/inful/doccatalog/internal/foundation/errors"
)

// Base typed git errors enabling structured classification without string parsing upstream.

type AuthError struct {
	Op, URL string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth error for %s: %v", e.Op, e.URL, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Op, URL string
	Err     error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found %s: %v", e.Op, e.URL, e.Err)
}
func (e *NotFoundError) Unwrap() error { return e.Err }

type UnsupportedProtocolError struct {
	Op, URL string
	Err     error
}

func (e *UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s unsupported protocol %s: %v", e.Op, e.URL, e.Err)
}
func (e *UnsupportedProtocolError) Unwrap() error { return e.Err }

// isAuthFailure reports whether err indicates refused or missing credentials.
func isAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return true
	}
	l := strings.ToLower(err.Error())
	return strings.Contains(l, "authentication") ||
		strings.Contains(l, "authorization") ||
		strings.Contains(l, "invalid username or password")
}

// classifyTransportError wraps clone/fetch failures into typed variants and a
// classified transport error for aggregation.
func classifyTransportError(op, url string, err error) error {
	if err == nil {
		return nil
	}
	l := strings.ToLower(err.Error())
	switch {
	case isAuthFailure(err):
		return fnderrors.AuthError("git authentication failed").
			WithCause(&AuthError{Op: op, URL: url, Err: err}).
			WithContext("url", url).Build()
	case errors.Is(err, transport.ErrRepositoryNotFound) ||
		strings.Contains(l, "not found") || strings.Contains(l, "repository does not exist"):
		return fnderrors.NewError(fnderrors.CategoryNotFound, "repository not found").
			WithCause(&NotFoundError{Op: op, URL: url, Err: err}).
			WithContext("url", url).Build()
	case strings.Contains(l, "unsupported protocol") || strings.Contains(l, "protocol not supported"):
		return fnderrors.ConfigError("unsupported transport protocol").
			WithCause(&UnsupportedProtocolError{Op: op, URL: url, Err: err}).
			WithContext("url", url).Build()
	case strings.Contains(l, "timeout") || strings.Contains(l, "connection refused") ||
		strings.Contains(l, "no route to host") || strings.Contains(l, "connection reset"):
		return fnderrors.NetworkError("git transport failed").
			WithCause(err).WithContext("url", url).WithContext("op", op).Build()
	default:
		return fnderrors.GitError(fmt.Sprintf("git %s failed", op)).
			WithCause(err).WithContext("url", url).Build()
	}
}
