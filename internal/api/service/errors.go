package service

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every NotFoundError with errors.Is
var ErrNotFound = errors.New("not found")

// NotFoundError reports an unknown generator, code file or generator action.
// Message is shown to the client as is.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func generatorNotFound(id string) error {
	return &NotFoundError{Message: fmt.Sprintf("Code generator not found: %s", id)}
}

func fileNotFound(fileID string) error {
	return &NotFoundError{Message: fmt.Sprintf("Code file not found: %s", fileID)}
}

func actionNotFound(name string) error {
	return &NotFoundError{Message: fmt.Sprintf("Unknown generator action: %s", name)}
}
