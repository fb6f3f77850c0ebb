package assistant

import "fmt"

// InputError reports a user input the session cannot act on.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("input error: %s", e.Message)
}
