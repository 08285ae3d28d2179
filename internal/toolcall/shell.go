package toolcall

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/tchow/agentdash/internal/logging"
)

var toolLog = logging.ForComponent(logging.CompTool)

const defaultShellTimeout = 30 * time.Second

// Shell runs a command line through `sh -c`. A timeout bounds each
// execution; the zero value is not usable, construct with NewShell.
type Shell struct {
	timeout time.Duration
}

func NewShell() *Shell {
	return &Shell{timeout: defaultShellTimeout}
}

func NewShellWithTimeout(timeout time.Duration) *Shell {
	return &Shell{timeout: timeout}
}

func (s *Shell) Schema() Schema {
	return Schema{
		Name:        "shell",
		Description: "Execute a shell command",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"command": {"type": "string", "description": "The shell command to execute"},
				"working_dir": {"type": "string", "description": "Working directory (optional)"}
			},
			"required": ["command"]
		}`),
	}
}

type shellParams struct {
	Command    string `json:"command"`
	WorkingDir string `json:"working_dir"`
}

// Execute runs the command and returns stdout, with stderr appended
// under a marker when present. A non-zero exit is reported in the
// Result rather than as an error so the agent sees the output too.
func (s *Shell) Execute(ctx context.Context, params json.RawMessage) (Result, error) {
	var p shellParams
	if err := json.Unmarshal(params, &p); err != nil {
		return Result{}, fmt.Errorf("shell parameters: %w", err)
	}
	if p.Command == "" {
		return Result{}, fmt.Errorf("missing 'command' parameter")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	toolLog.Info("shell_exec", slog.String("command", p.Command))

	cmd := exec.CommandContext(ctx, "sh", "-c", p.Command)
	if p.WorkingDir != "" {
		cmd.Dir = p.WorkingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("command timed out after %s", s.timeout)
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		output = output + "\nSTDERR:\n" + stderr.String()
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return Result{}, fmt.Errorf("shell exec: %w", runErr)
		}
		return Result{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("command failed with exit code %d", exitErr.ExitCode()),
		}, nil
	}

	return Result{Success: true, Output: output}, nil
}
