package rerr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Error carries a status code and a detail message. It is the error type returned
// across every layer, and is reconstructed verbatim from peer responses.
type Error struct {
	Code Status
	Msg  string
}

func New(code Status, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%d %s", e.Code, Name(e.Code))
	}

	return fmt.Sprintf("%d %s: %s", e.Code, Name(e.Code), e.Msg)
}

// Code extracts the status from any error chain. A nil error is 0 and an error
// carrying no status maps to SysInvalidInputParam.
func Code(err error) Status {
	if err == nil {
		return 0
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return SysInvalidInputParam
}

// Is reports whether err carries the given base status.
func Is(err error, code Status) bool {
	if err == nil {
		return false
	}

	c := Code(err)
	return c == code || Base(c) == code
}

// Unix folds the errno of an os/syscall error into base, giving base - errno.
func Unix(base Status, err error) *Error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return &Error{Code: base - Status(errno), Msg: err.Error()}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Code: base - Status(syscall.ENOENT), Msg: err.Error()}
	case errors.Is(err, fs.ErrExist):
		return &Error{Code: base - Status(syscall.EEXIST), Msg: err.Error()}
	case errors.Is(err, fs.ErrPermission):
		return &Error{Code: base - Status(syscall.EACCES), Msg: err.Error()}
	}

	return &Error{Code: base, Msg: err.Error()}
}

// IsNotFound recognises ENOENT-class statuses and the catalog not-found codes.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, os.ErrNotExist) {
		return true
	}

	c := Code(err)
	switch {
	case c == UserFileDoesNotExist, c == CatNoRowsFound, c == CatUnknownCollection:
		return true
	case c <= UnixFileOpenErr && c > UnixFileLinkErr-1000: // UNIX_FILE_*_ERR range
		return Errno(c) == int(syscall.ENOENT)
	}

	return false
}
