// Package cli provides a method for new application instantiation.

package cli

import (
	"catchall-api/internal/command"
	"catchall-api/internal/constants"

	"github.com/urfave/cli/v2"
)

// NewApp initializes a new cli.App service. The HTTP server command runs by
// default so that the binary can be started with no arguments.
func NewApp(definitions []command.Command) *cli.App {
	commands := make([]*cli.Command, 0, len(definitions))

	for _, definition := range definitions {
		commands = append(commands, definition.Describe())
	}

	return &cli.App{
		Name:           "Catchall API",
		Version:        constants.Version,
		Commands:       commands,
		DefaultCommand: "http:serve",
	}
}
