package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every error that refers to a missing resource.
var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func TodoNotFound(id int64) error {
	return &NotFoundError{Message: fmt.Sprintf("Todo item with id %d does not exist.", id)}
}

func TodoNotUpdated(id int64) error {
	return &NotFoundError{Message: fmt.Sprintf("Todo item with id %d does not exist", id)}
}

func TodoNotDeleted(id int64) error {
	return &NotFoundError{Message: fmt.Sprintf("Can't delete todo item, id %d does not exist.", id)}
}

func LocationNotFound(name string) error {
	return &NotFoundError{Message: fmt.Sprintf("Location %s could not be found.", name)}
}
