// Package admincmd describes slash commands reserved for bot admins.
package admincmd

import (
	"context"
	"strings"
)

// Handler runs a command with the raw text after the command name and returns the reply.
type Handler func(ctx context.Context, args string) (string, error)

type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// Find returns the command called name. Names are compared without surrounding spaces.
func Find(commands []Command, name string) (Command, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Command{}, false
	}
	for _, cmd := range commands {
		if strings.TrimSpace(cmd.Name) == name {
			return cmd, true
		}
	}
	return Command{}, false
}
