package helper

import "fmt"

// NewError wraps an error with the context of the failed operation.
func NewError(context string, err error) error {
	return fmt.Errorf("error in %v: %w", context, err)
}
