package contracts

import "errors"

// Error taxonomy shared by the core and the HTTP shell.
// Call sites wrap these with a client-readable message:
//
//	fmt.Errorf("%w: Run Lifecycle step first.", ErrPrecondition)
var (
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrValidation   = errors.New("validation failed")
	ErrInternal     = errors.New("internal error")
	ErrRateLimited  = errors.New("rate limited")
)

// Message strips the sentinel prefix from a wrapped error so the
// remaining text can be shown to clients.
func Message(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrPrecondition, ErrValidation, ErrInternal, ErrRateLimited} {
		prefix := sentinel.Error() + ": "
		if errors.Is(err, sentinel) && len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
