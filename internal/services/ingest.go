package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dimasprasetya/screening-api/internal/models"
	"github.com/dimasprasetya/screening-api/internal/store"
)

type IngestionService interface {
	Ingest(ctx context.Context, groupID, cvPath, reportPath string) (*IngestResult, error)
}

type IngestResult struct {
	Added int
	IDs   []string
}

type ingestionService struct {
	corpus store.Collection
	parser PDFParserService
}

func NewIngestionService(corpus store.Collection, parser PDFParserService) IngestionService {
	return &ingestionService{
		corpus: corpus,
		parser: parser,
	}
}

// CorpusID builds the corpus record id for one half of a submission.
func CorpusID(groupID string, kind models.DocumentKind) string {
	return fmt.Sprintf("%s_%s", groupID, kind)
}

// Ingest implements IngestionService. It extracts both documents, builds
// the linked corpus pair for groupID, and replaces any previous pair via a
// single batch upsert. The job ledger is never touched here.
func (s *ingestionService) Ingest(ctx context.Context, groupID, cvPath, reportPath string) (*IngestResult, error) {
	if err := assertRegularFile(cvPath, "CV"); err != nil {
		return nil, err
	}
	if err := assertRegularFile(reportPath, "project report"); err != nil {
		return nil, err
	}

	// the two extractions are independent, run them concurrently
	var cvText, reportText string
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.parser.ExtractText(cvPath)
		if err != nil {
			return fmt.Errorf("failed to extract CV text: %w", err)
		}
		cvText = NormalizeText(text)
		return nil
	})
	g.Go(func() error {
		text, err := s.parser.ExtractText(reportPath)
		if err != nil {
			return fmt.Errorf("failed to extract project report text: %w", err)
		}
		reportText = NormalizeText(text)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := []store.Record{
		{
			ID:   CorpusID(groupID, models.KindCV),
			Text: cvText,
			Metadata: map[string]any{
				"group_id": groupID,
				"kind":     string(models.KindCV),
				"filename": filepath.Base(cvPath),
				"path":     cvPath,
			},
		},
		{
			ID:   CorpusID(groupID, models.KindReport),
			Text: reportText,
			Metadata: map[string]any{
				"group_id": groupID,
				"kind":     string(models.KindReport),
				"filename": filepath.Base(reportPath),
				"path":     reportPath,
			},
		},
	}

	if err := store.Upsert(ctx, s.corpus, records); err != nil {
		return nil, fmt.Errorf("failed to store candidate pair: %w", err)
	}

	log.Printf("✅ Ingested candidate pair for group %s\n", groupID)

	return &IngestResult{
		Added: len(records),
		IDs:   []string{records[0].ID, records[1].ID},
	}, nil
}

func assertRegularFile(path, kind string) error {
	if path == "" {
		return fmt.Errorf("missing %s file path", kind)
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s file not found: %s", kind, path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s path is not a file: %s", kind, path)
	}

	return nil
}
