package pm

import (
	"context"
	"os/exec"
)

// CommandRunner spawns an external package-manager process in a working
// directory and returns its combined output. Adapters take a runner rather
// than calling os/exec directly so tests can substitute one without any
// package manager installed.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec. It is the default runner.
type ExecRunner struct{}

// Run executes the command and blocks until it exits. A non-zero exit status
// is returned as the error alongside whatever output was produced.
func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}
