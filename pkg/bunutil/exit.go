package bunutil

import (
	"errors"
	"fmt"

	"github.com/materials-commons/mcbun/pkg/rerr"
)

const (
	ExitOK          = 0
	ExitUsage       = 1
	ExitConnect     = 2
	ExitFailed      = 3
	ExitAuthFailure = 7
)

// UsageError is a bad option, argument or client environment.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...interface{}) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// ErrNoInput is returned by iphybun when no collection was named.
var ErrNoInput = errors.New("no input collection given")

// ExitCode maps the outcome of a utility run to its process exit status.
func ExitCode(err error) int {
	var usageErr *UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usageErr):
		return ExitUsage
	case errors.Is(err, ErrNoInput):
		return ExitConnect
	}

	switch rerr.Code(err) {
	case rerr.UserSockConnectErr:
		return ExitConnect
	case rerr.CatInvalidAuthentication:
		return ExitAuthFailure
	default:
		return ExitFailed
	}
}

// FailureMessage formats "<op> failed with error <code> <name> <detail>".
func FailureMessage(op string, err error) string {
	code := rerr.Code(err)
	detail := err.Error()

	var e *rerr.Error
	if errors.As(err, &e) {
		detail = e.Msg
	}

	return fmt.Sprintf("%s failed with error %d %s %s", op, code, rerr.Name(code), detail)
}
