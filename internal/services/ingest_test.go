package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dimasprasetya/screening-api/internal/store"
)

type stubParser struct {
	texts map[string]string
}

func (s *stubParser) ExtractText(path string) (string, error) {
	return s.texts[path], nil
}

func (s *stubParser) ExtractTextWithMetaData(path string) (*PDFContent, error) {
	return &PDFContent{Text: s.texts[path], PageCount: 1, FilePath: path}, nil
}

func writeTempFile(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-stub"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return path
}

func newIngestFixture(t *testing.T) (IngestionService, store.Collection, *stubParser, string) {
	t.Helper()

	corpus, err := store.NewMemoryStore().Collection(context.Background(), "candidates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parser := &stubParser{texts: make(map[string]string)}

	return NewIngestionService(corpus, parser), corpus, parser, t.TempDir()
}

func TestIngestCreatesLinkedPair(t *testing.T) {
	svc, corpus, parser, dir := newIngestFixture(t)

	cvPath := writeTempFile(t, dir, "cv.pdf")
	reportPath := writeTempFile(t, dir, "report.pdf")
	parser.texts[cvPath] = "  senior   backend\nengineer "
	parser.texts[reportPath] = "built a RAG pipeline"

	result, err := svc.Ingest(context.Background(), "7", cvPath, reportPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Added != 2 {
		t.Fatalf("expected 2 added, got %d", result.Added)
	}
	if result.IDs[0] != "7_cv" || result.IDs[1] != "7_report" {
		t.Fatalf("unexpected ids: %v", result.IDs)
	}

	records, err := corpus.Get(context.Background(), []string{"7_cv", "7_report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 corpus records, got %d", len(records))
	}
	if records[0].Text != "senior backend engineer" {
		t.Fatalf("expected normalized text, got %q", records[0].Text)
	}
	if records[0].Metadata["group_id"] != "7" || records[0].Metadata["kind"] != "cv" {
		t.Fatalf("unexpected metadata: %+v", records[0].Metadata)
	}
	if records[1].Metadata["kind"] != "report" {
		t.Fatalf("unexpected metadata: %+v", records[1].Metadata)
	}
}

func TestReingestReplacesPair(t *testing.T) {
	svc, corpus, parser, dir := newIngestFixture(t)

	cvPath := writeTempFile(t, dir, "cv.pdf")
	reportPath := writeTempFile(t, dir, "report.pdf")
	parser.texts[cvPath] = "first version"
	parser.texts[reportPath] = "first report"

	if _, err := svc.Ingest(context.Background(), "7", cvPath, reportPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	parser.texts[cvPath] = "second version"
	parser.texts[reportPath] = "second report"

	result, err := svc.Ingest(context.Background(), "7", cvPath, reportPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Added != 2 {
		t.Fatalf("expected 2 added, got %d", result.Added)
	}

	records, err := corpus.Get(context.Background(), []string{"7_cv", "7_report"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 corpus records, got %d", len(records))
	}
	if records[0].Text != "second version" || records[1].Text != "second report" {
		t.Fatalf("expected replaced texts, got %q / %q", records[0].Text, records[1].Text)
	}
}

func TestIngestMissingFileFails(t *testing.T) {
	svc, _, parser, dir := newIngestFixture(t)

	reportPath := writeTempFile(t, dir, "report.pdf")
	parser.texts[reportPath] = "report"

	_, err := svc.Ingest(context.Background(), "7", filepath.Join(dir, "absent.pdf"), reportPath)
	if err == nil {
		t.Fatal("expected error for missing CV file")
	}
}

func TestIngestDirectoryFails(t *testing.T) {
	svc, _, _, dir := newIngestFixture(t)

	reportPath := writeTempFile(t, dir, "report.pdf")

	_, err := svc.Ingest(context.Background(), "7", dir, reportPath)
	if err == nil {
		t.Fatal("expected error for non-regular CV path")
	}
}

func TestIngestEmptyExtractionGetsPlaceholder(t *testing.T) {
	svc, corpus, parser, dir := newIngestFixture(t)

	cvPath := writeTempFile(t, dir, "cv.pdf")
	reportPath := writeTempFile(t, dir, "report.pdf")
	parser.texts[cvPath] = "   "
	parser.texts[reportPath] = "report text"

	if _, err := svc.Ingest(context.Background(), "7", cvPath, reportPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := corpus.Get(context.Background(), []string{"7_cv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Text != EmptyTextPlaceholder {
		t.Fatalf("expected placeholder text, got %+v", records)
	}
}
