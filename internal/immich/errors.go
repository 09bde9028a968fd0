package immich

import (
	"errors"
	"fmt"
	"net/http"
)

// RetryableError is a transient failure: a timeout, a 5xx response or rate
// limiting. The call may succeed when repeated.
type RetryableError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s failed: %d %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// FatalError is a rejected request that repeating cannot fix.
type FatalError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s failed: %d %s", e.Op, e.StatusCode, e.Body)
}

// IsAuth reports whether the server rejected the credentials.
func (e *FatalError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsAuthError reports whether err is caused by rejected credentials. Such
// errors abort the whole run.
func IsAuthError(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal) && fatal.IsAuth()
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal) && fatal.StatusCode == http.StatusNotFound
}

// statusError classifies a non-2xx response.
func statusError(op string, status int, body string) error {
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return &RetryableError{Op: op, StatusCode: status, Err: errors.New(body)}
	}
	return &FatalError{Op: op, StatusCode: status, Body: body}
}
