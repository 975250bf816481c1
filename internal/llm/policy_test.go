package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPolicyStoreFallsBackToDefault(t *testing.T) {
	tests := []struct {
		name  string
		store *PolicyStore
	}{
		{"nil store", nil},
		{"no directory", NewPolicyStore("")},
		{"missing directory", NewPolicyStore("/nonexistent/policy/dir")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.store.Load(); got != DefaultPolicy {
				t.Errorf("Load() did not fall back to the built-in policy")
			}
		})
	}
}

func TestPolicyStoreSaveDoesNotActivate(t *testing.T) {
	store := NewPolicyStore(t.TempDir())

	name, err := store.SaveVersion("REVISED POLICY")
	if err != nil {
		t.Fatalf("SaveVersion() error = %v", err)
	}
	if !strings.HasPrefix(name, "policy_") || !strings.HasSuffix(name, ".txt") {
		t.Errorf("version name = %q", name)
	}

	// Saving alone must not change what extraction sees.
	if got := store.Load(); got != DefaultPolicy {
		t.Errorf("Load() = saved text before activation")
	}
}

func TestPolicyStoreActivate(t *testing.T) {
	store := NewPolicyStore(t.TempDir())

	name, err := store.SaveVersion("REVISED POLICY")
	if err != nil {
		t.Fatalf("SaveVersion() error = %v", err)
	}
	if err := store.Activate(name); err != nil {
		t.Fatalf("Activate() error = %v", err)
	}

	if got := store.Load(); got != "REVISED POLICY" {
		t.Errorf("Load() = %q after activation", got)
	}
	if got := store.ActiveVersion(); got != name {
		t.Errorf("ActiveVersion() = %q, want %q", got, name)
	}
}

func TestPolicyStoreActivateUnknownVersion(t *testing.T) {
	store := NewPolicyStore(t.TempDir())
	if err := store.Activate("policy_nope.txt"); err == nil {
		t.Fatal("Activate() accepted a missing version")
	}
}

func TestPolicyStoreBrokenActivePointerDegrades(t *testing.T) {
	dir := t.TempDir()
	store := NewPolicyStore(dir)

	if err := os.WriteFile(filepath.Join(dir, "ACTIVE"), []byte("policy_gone.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := store.Load(); got != DefaultPolicy {
		t.Errorf("Load() with dangling active pointer should use the built-in policy")
	}
}

func TestPolicyStoreVersions(t *testing.T) {
	store := NewPolicyStore(t.TempDir())

	if _, err := store.SaveVersion("one"); err != nil {
		t.Fatal(err)
	}

	versions, err := store.Versions()
	if err != nil {
		t.Fatalf("Versions() error = %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("got %d versions, want 1", len(versions))
	}
}

func TestPolicyStoreAppendFeedback(t *testing.T) {
	dir := t.TempDir()
	store := NewPolicyStore(dir)

	if err := store.AppendFeedback("grant_aabbccdd00112233", "wrong funding type"); err != nil {
		t.Fatalf("AppendFeedback() error = %v", err)
	}
	if err := store.AppendFeedback("grant_ffee", "multi\nline reason"); err != nil {
		t.Fatalf("AppendFeedback() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "feedback_notes.txt"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d feedback lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], "grant_aabbccdd00112233") {
		t.Errorf("first line missing grant id: %q", lines[0])
	}
	if strings.Contains(lines[1], "\n") {
		t.Error("newlines in reasons must be flattened")
	}
}
