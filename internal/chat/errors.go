package chat

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName      = errors.New("empty name")
	ErrNameTaken      = errors.New("name taken")
	ErrRoomExists     = errors.New("room already exists")
	ErrUnknownRoom    = errors.New("unknown room")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrInvalidPayload = errors.New("invalid payload")
)

// ClaimError is returned when a connection cannot take a display name.
// Its message is the text sent back to the client.
type ClaimError struct {
	Kind error
	Name string
}

func (e *ClaimError) Error() string {
	if errors.Is(e.Kind, ErrNameTaken) {
		return fmt.Sprintf("Username %s already exists", e.Name)
	}
	return "Username cannot be empty"
}

func (e *ClaimError) Unwrap() error {
	return e.Kind
}
