package executor

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecute(t *testing.T) {
	out, err := New().Execute(context.Background(), "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "hello" {
		t.Errorf("Execute() = %q, want %q", out, "hello")
	}
}

func TestExecuteInDir(t *testing.T) {
	dir := t.TempDir()
	out, err := New().ExecuteInDir(context.Background(), dir, "sh", "-c", "pwd")
	if err != nil {
		t.Fatalf("ExecuteInDir() error = %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(out), dir[strings.LastIndex(dir, "/"):]) {
		t.Errorf("ExecuteInDir() ran in %q, want %q", out, dir)
	}
}

func TestExecuteFailureIncludesStderr(t *testing.T) {
	_, err := New().Execute(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	if err == nil {
		t.Fatal("Execute() should fail")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("error %q does not include stderr", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New().Execute(ctx, "sh", "-c", "sleep 5")
	if err == nil || !strings.Contains(err.Error(), "interrupted") {
		t.Errorf("Execute() error = %v, want interrupted", err)
	}
}

func TestLookPath(t *testing.T) {
	if _, err := New().LookPath("sh"); err != nil {
		t.Errorf("LookPath(sh) error = %v", err)
	}
	if _, err := New().LookPath("definitely-not-a-binary-xyz"); err == nil {
		t.Error("LookPath() should fail for unknown binary")
	}
}

func TestTail(t *testing.T) {
	if got := tail("abcdef", 3); got != "...def" {
		t.Errorf("tail() = %q", got)
	}
	if got := tail("ab", 3); got != "ab" {
		t.Errorf("tail() = %q", got)
	}
}
