package acceptance_test

import (
	"bytes"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"testing"
)

// runMintdraw executes the mintdraw binary and returns stdout, stderr, and exit code.
func runMintdraw(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(mintdrawBinary, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("failed to run mintdraw: %v", err)
		}
	}
	return stdout.String(), stderr.String(), exitCode
}

// runMintdrawSuccess runs mintdraw expecting exit code 0 and returns stdout.
func runMintdrawSuccess(t *testing.T, dir string, args ...string) string {
	t.Helper()
	stdout, stderr, exitCode := runMintdraw(t, dir, args...)
	if exitCode != 0 {
		t.Fatalf("expected exit 0, got %d\nargs: %v\nstdout: %s\nstderr: %s", exitCode, args, stdout, stderr)
	}
	return stdout
}

// initAllocator creates a temp dir holding an allocator with the given capacity.
func initAllocator(t *testing.T, name string, capacity int) string {
	t.Helper()
	dir := t.TempDir()
	runMintdrawSuccess(t, dir, "init", name, "--capacity", strconv.Itoa(capacity))
	return dir
}

// parseIDs reads one decimal id per line.
func parseIDs(t *testing.T, stdout string) []uint64 {
	t.Helper()
	var ids []uint64
	for _, line := range strings.Fields(stdout) {
		id, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			t.Fatalf("bad id line %q: %v", line, err)
		}
		ids = append(ids, id)
	}
	return ids
}

// statusJSON runs status --json and decodes the result.
func statusJSON(t *testing.T, dir, name string) map[string]interface{} {
	t.Helper()
	stdout := runMintdrawSuccess(t, dir, "status", name, "--json")
	var result map[string]interface{}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("failed to parse status JSON: %v\noutput: %s", err, stdout)
	}
	return result
}
