package scara

import (
	"errors"

	"scarastylus/core"
)

var (
	// ErrUnreachable reports a target outside the arm's workspace
	ErrUnreachable = errors.New("target unreachable")

	// ErrUnknownCommand reports a command byte with no meaning
	ErrUnknownCommand = core.ErrUnknownCommand

	// ErrDegenerateMove reports a line too short to yield a waypoint
	ErrDegenerateMove = errors.New("degenerate move")

	// ErrBusy reports a command issued while a slide is running
	ErrBusy = errors.New("choreography busy")
)
