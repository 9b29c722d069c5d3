// Package cli holds shared command plumbing with no dependencies of its own.
package cli

// ExitError carries a specific process exit code through cobra's RunE chain.
// main maps it onto os.Exit; hooks use it for the block (2) and warn (1)
// conventions the host interprets.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exit returns an ExitError with the given code and no message.
func Exit(code int) error {
	return &ExitError{Code: code}
}
