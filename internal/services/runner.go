package services

import (
	"bytes"
	"errors"
	"os/exec"
)

// CommandOutput is what an external tool left behind. Err is only set when the
// process could not be started or waited on; a tool that ran and exited
// non-zero reports through ExitCode.
type CommandOutput struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Launched reports whether the tool actually ran.
func (o CommandOutput) Launched() bool {
	return o.Err == nil
}

// CommandRunner runs external tools. Tests swap it for a mock.
type CommandRunner interface {
	Run(name string, args ...string) CommandOutput
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(name string, args ...string) CommandOutput {
	var stdout, stderr bytes.Buffer

	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := CommandOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		out.ExitCode = -1
		out.Err = err
	}

	return out
}
