package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opensme/grantscout/internal/model"
)

// Ingestor processes one document file end to end.
type Ingestor interface {
	IngestFile(ctx context.Context, path string) (*model.Grant, error)
}

// IngestJob wraps one document for pool execution.
type IngestJob struct {
	Path     string
	Ingestor Ingestor
}

// Execute runs the ingestion for this job's document.
func (j *IngestJob) Execute(ctx context.Context) Result {
	grant, err := j.Ingestor.IngestFile(ctx, j.Path)
	return &IngestResult{Path: j.Path, Grant: grant, Err: err}
}

// IngestResult is the outcome for one document. Grant is nil when the
// document was skipped or failed.
type IngestResult struct {
	Path  string
	Grant *model.Grant
	Err   error
}

// GetError returns the ingestion error, if any.
func (r *IngestResult) GetError() error {
	return r.Err
}

// BatchIngestor fans a set of document files out over a worker pool.
type BatchIngestor struct {
	ingestor    Ingestor
	concurrency int
}

// NewBatchIngestor creates a batch runner with the given concurrency.
func NewBatchIngestor(ingestor Ingestor, concurrency int) *BatchIngestor {
	return &BatchIngestor{ingestor: ingestor, concurrency: concurrency}
}

// ProcessFiles ingests the given documents concurrently. One failing
// document never aborts the batch; failures come back in the results.
func (b *BatchIngestor) ProcessFiles(ctx context.Context, paths []string) []*IngestResult {
	if len(paths) == 0 {
		return []*IngestResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for _, path := range paths {
		pool.Submit(&IngestJob{Path: path, Ingestor: b.ingestor})
	}

	raw := pool.Wait()
	results := make([]*IngestResult, len(raw))
	for i, r := range raw {
		results[i] = r.(*IngestResult)
	}
	return results
}

// ProcessDir ingests every document found directly under dir.
func (b *BatchIngestor) ProcessDir(ctx context.Context, dir string) ([]*IngestResult, error) {
	paths, err := ListDocuments(dir)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return b.ProcessFiles(ctx, paths), nil
}

// ListDocuments returns the text documents directly under dir, sorted by
// name. Hidden files and non-text extensions are skipped.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".txt", ".md", ".text":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
