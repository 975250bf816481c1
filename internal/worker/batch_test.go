package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opensme/grantscout/internal/model"
)

type fakeIngestor struct {
	failOn map[string]error
}

func (f *fakeIngestor) IngestFile(ctx context.Context, path string) (*model.Grant, error) {
	if err, ok := f.failOn[filepath.Base(path)]; ok {
		return nil, err
	}
	return &model.Grant{ID: "grant_" + filepath.Base(path), Name: filepath.Base(path)}, nil
}

func TestBatchIngestorProcessFiles(t *testing.T) {
	ingestor := &fakeIngestor{failOn: map[string]error{"bad.txt": errors.New("unusable")}}
	batch := NewBatchIngestor(ingestor, 3)

	results := batch.ProcessFiles(context.Background(), []string{"a.txt", "bad.txt", "c.txt"})
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	var ok, failed int
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		} else {
			ok++
		}
	}
	if ok != 2 || failed != 1 {
		t.Errorf("ok=%d failed=%d, want 2/1", ok, failed)
	}
}

func TestListDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.md", "notes.TEXT", "image.png", ".hidden.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	paths, err := ListDocuments(dir)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}

	if len(paths) != 3 {
		t.Fatalf("got %d documents, want 3: %v", len(paths), paths)
	}
	// Sorted by full path, so a.md comes first.
	if filepath.Base(paths[0]) != "a.md" {
		t.Errorf("first document = %s, want a.md", paths[0])
	}
}

func TestListDocumentsMissingDir(t *testing.T) {
	if _, err := ListDocuments("/nonexistent/docs"); err == nil {
		t.Fatal("ListDocuments() accepted a missing directory")
	}
}
