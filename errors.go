package main

import "fmt"

// WrapOperationError wraps an error as "failed to {operation}: {err}",
// keeping the original error in the chain for errors.Is/As.
func WrapOperationError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// WrapOperationErrorf is WrapOperationError with a formatted operation name,
// for call sites that need to name the object that failed.
func WrapOperationErrorf(format string, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", fmt.Sprintf(format, args...), err)
}
