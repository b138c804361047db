package core

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is matched by every UnknownCommandError
var ErrUnknownCommand = errors.New("unknown command")

// UnknownCommandError reports a command byte with no registered handler
type UnknownCommandError struct {
	Code byte
}

func (e *UnknownCommandError) Error() string {
	return "unknown command byte: " + quoteByte(e.Code)
}

// Is lets errors.Is match the ErrUnknownCommand sentinel
func (e *UnknownCommandError) Is(target error) bool {
	return target == ErrUnknownCommand
}

// CommandHandler runs the action bound to a command byte
type CommandHandler func() error

// Command represents a single-byte command
type Command struct {
	Code    byte
	Name    string
	Handler CommandHandler
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu         sync.RWMutex
	commands   map[byte]*Command
	order      []byte
	dictionary string // Serialized dictionary for host
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[byte]*Command),
	}
}

// Register binds a handler to a command byte. Registering the same byte
// again replaces the earlier handler.
func (r *CommandRegistry) Register(code byte, name string, handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[code]; !exists {
		r.order = append(r.order, code)
	}

	r.commands[code] = &Command{
		Code:    code,
		Name:    name,
		Handler: handler,
	}

	// Rebuild dictionary
	r.rebuildDictionary()
}

// GetCommand retrieves a command by its byte
func (r *CommandRegistry) GetCommand(code byte) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[code]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler registered for code
func (r *CommandRegistry) Dispatch(code byte) error {
	cmd, ok := r.GetCommand(code)
	if !ok || cmd.Handler == nil {
		return &UnknownCommandError{Code: code}
	}

	return cmd.Handler()
}

// GetDictionary returns one "byte name" line per command, in registration order
func (r *CommandRegistry) GetDictionary() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dictionary
}

// rebuildDictionary rebuilds the dictionary string
// Must be called with lock held
func (r *CommandRegistry) rebuildDictionary() {
	dict := ""
	for _, code := range r.order {
		dict += quoteByte(code) + " " + r.commands[code].Name + "\n"
	}
	r.dictionary = dict
}
