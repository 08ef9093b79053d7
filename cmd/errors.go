package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eykd/mintdraw/internal/allocator"
	"github.com/eykd/mintdraw/internal/domain"
	"github.com/eykd/mintdraw/internal/lock"
)

// ErrNotInProject is returned by commands run outside a mintdraw project.
var ErrNotInProject = errors.New("not in a mintdraw project (run 'mintdraw init <name> --capacity N' first)")

// Process exit codes.
const (
	ExitOK                 = 0
	ExitFailure            = 1
	ExitExhausted          = 3
	ExitAlreadyInitialized = 4
	ExitLocked             = 5
	ExitNotInProject       = 6
)

// ContextError adds operation and allocator context to an underlying error.
type ContextError struct {
	Op   string
	Name string
	Err  error
}

// Error returns the formatted error string with context.
func (e *ContextError) Error() string {
	if e.Op != "" && e.Name != "" {
		return e.Op + " " + e.Name + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + e.Err.Error()
	}
	if e.Name != "" {
		return e.Name + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ContextError) Unwrap() error {
	return e.Err
}

// ExitCoder is implemented by errors that carry a specific process exit code.
type ExitCoder interface {
	ExitCode() int
}

// sentinelExitCodes maps well-known errors to their exit codes.
var sentinelExitCodes = []struct {
	err  error
	code int
}{
	{domain.ErrExhausted, ExitExhausted},
	{domain.ErrAlreadyInitialized, ExitAlreadyInitialized},
	{lock.ErrAlreadyLocked, ExitLocked},
	{ErrNotInProject, ExitNotInProject},
}

// ExitCodeFromError returns the appropriate exit code for an error.
// nil returns 0, ExitCoder errors return their code, known sentinels return
// their mapped code, and all others return 1.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitOK
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	for _, s := range sentinelExitCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return ExitFailure
}

// FormatError formats an error with the "mintdraw: " prefix and trailing newline.
func FormatError(err error) string {
	return fmt.Sprintf("mintdraw: %s\n", err.Error())
}

// RunCLI executes the command with the given args, writing output to stdout
// and errors to stderr. It returns the appropriate exit code.
func RunCLI(ctx context.Context, cmd *cobra.Command, args []string, stdout io.Writer, stderr io.Writer) int {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprint(stderr, FormatError(err))
		return ExitCodeFromError(err)
	}
	return ExitOK
}

// notInProject is the runner used when no project is available.
type notInProject struct{}

func (notInProject) Init(context.Context, string, uint64) (*allocator.Status, error) {
	return nil, ErrNotInProject
}

func (notInProject) Draw(context.Context, string, int, string) ([]uint64, error) {
	return nil, ErrNotInProject
}

func (notInProject) Status(context.Context, string) (*allocator.Status, error) {
	return nil, ErrNotInProject
}

func (notInProject) List(context.Context) ([]allocator.Status, error) {
	return nil, ErrNotInProject
}

func (notInProject) Snapshot(context.Context, string) (*allocator.Snapshot, error) {
	return nil, ErrNotInProject
}
