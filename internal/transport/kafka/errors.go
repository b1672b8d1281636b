package kafka

import "errors"

// PermanentError marks a handler failure that redelivery will not fix.
type PermanentError struct {
	Err error
}

func (e PermanentError) Error() string {
	if e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}

func (e PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError. nil stays nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return PermanentError{Err: err}
}

// IsPermanent reports whether err carries a PermanentError.
func IsPermanent(err error) bool {
	var perm PermanentError
	return errors.As(err, &perm)
}
