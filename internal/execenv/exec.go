package execenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	dserrors "github.com/systmms/smpull/internal/errors"
	"github.com/systmms/smpull/internal/logging"
)

// Executor runs a child process with pulled secrets in its environment.
type Executor struct {
	logger *logging.Logger
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// ExecOptions configures command execution
type ExecOptions struct {
	Command       []string          // Command and arguments to run
	Environment   map[string]string // Variables to add to the inherited environment
	AllowOverride bool              // Inherited variables win over pulled ones
	PrintVars     bool              // Print variable names with masked values before running
	WorkingDir    string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExitError carries the exit code of a child that ran but failed.
type ExitError struct {
	Command string
	Code    int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("command '%s' exited with code %d", e.Command, e.Code)
}

// Exec runs the command and waits for it. A non-zero exit is returned as an
// ExitError so the caller can propagate the code.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) error {
	if len(options.Command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., smpull exec -- ./gradlew test)",
		}
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return dserrors.WrapCommandNotFound(cmdName, err)
	}

	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := options.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdin := options.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	if options.PrintVars {
		printEnvironment(stderr, options.Environment)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = buildEnvironment(os.Environ(), options.Environment, options.AllowOverride)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Stdin = stdin
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("Executing command: %s", strings.Join(options.Command, " "))
	e.logger.Debug("Environment variables set: %d", len(options.Environment))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return ExitError{Command: strings.Join(options.Command, " "), Code: exitErr.ExitCode()}
		}
		return dserrors.CommandError{
			Command:    strings.Join(options.Command, " "),
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// buildEnvironment merges vars into the inherited KEY=VALUE list. Pulled
// values replace inherited ones unless allowOverride is set.
func buildEnvironment(inherited []string, vars map[string]string, allowOverride bool) []string {
	envMap := make(map[string]string, len(inherited)+len(vars))
	for _, entry := range inherited {
		if key, value, ok := strings.Cut(entry, "="); ok {
			envMap[key] = value
		}
	}

	for key, value := range vars {
		if _, exists := envMap[key]; exists && allowOverride {
			continue
		}
		envMap[key] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, key+"="+value)
	}
	sort.Strings(result)
	return result
}

func printEnvironment(w io.Writer, environment map[string]string) {
	if len(environment) == 0 {
		fmt.Fprintln(w, "No environment variables resolved")
		return
	}

	fmt.Fprintf(w, "Resolved %d environment variables:\n", len(environment))

	keys := make([]string, 0, len(environment))
	for key := range environment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(w, "  %s=%s\n", key, maskValue(environment[key]))
	}
	fmt.Fprintln(w)
}

// maskValue masks a secret value for display. Lengths are counted in
// runes so multi-byte characters are never split.
func maskValue(value string) string {
	runes := []rune(value)
	n := len(runes)
	if n == 0 {
		return "(empty)"
	}
	if n <= 3 {
		return strings.Repeat("*", n)
	}
	if n <= 8 {
		return string(runes[:1]) + strings.Repeat("*", n-2) + string(runes[n-1:])
	}
	return string(runes[:3]) + strings.Repeat("*", 8) + string(runes[n-2:])
}
