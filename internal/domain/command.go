package domain

import (
	"fmt"
	"strings"
)

// ExecCommand represents an external command to be executed.
// This type is used to pass command information between layers
// without exposing implementation details.
type ExecCommand struct {
	Program string
	Dir     string
	Args    []string
	Stdin   []byte // Fed to the process when non-nil
}

// NewCommand creates an ExecCommand.
func NewCommand(program string, args []string, dir string) *ExecCommand {
	return &ExecCommand{Program: program, Args: args, Dir: dir}
}

// NewShellCommand creates an ExecCommand that runs through sh -c.
func NewShellCommand(script, dir string) *ExecCommand {
	return &ExecCommand{Program: "sh", Args: []string{"-c", script}, Dir: dir}
}

func (c *ExecCommand) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// ExecError reports a command that exited with an error.
type ExecError struct {
	Err    error
	Cmd    string
	Stderr string
}

func (e *ExecError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s: %v", e.Cmd, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Cmd, e.Err, msg)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}
