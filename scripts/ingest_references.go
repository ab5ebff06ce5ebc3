package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dimasprasetya/screening-api/internal/config"
	"github.com/dimasprasetya/screening-api/internal/services"
	"github.com/dimasprasetya/screening-api/internal/store"
)

// Ingests the ground-truth reference documents (job description, case
// study brief, scoring rubrics) into the reference collection so the
// evaluation prompt can cite them.
func main() {
	log.Println("🚀 Starting reference document ingestion...")

	cfg := config.Load()

	geminiService, err := services.NewGeminiService(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini: %v", err)
	}

	recordStore, err := store.NewQdrantStore(cfg.Qdrant.URL, cfg.Qdrant.APIKey, geminiService)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	ctx := context.Background()

	references, err := recordStore.Collection(ctx, cfg.Qdrant.ReferenceCollection)
	if err != nil {
		log.Fatalf("❌ Failed to initialize reference collection: %v", err)
	}

	pdfParser := services.NewPDFParserService()
	chunker := services.NewTextChunker()

	documents := []struct {
		Path string
		Kind string
	}{
		{Path: "./reference_docs/job_description.pdf", Kind: "job_description"},
		{Path: "./reference_docs/case_study_brief.pdf", Kind: "case_study"},
		{Path: "./reference_docs/cv_scoring_rubric.pdf", Kind: "cv_rubric"},
		{Path: "./reference_docs/project_scoring_rubric.pdf", Kind: "project_rubric"},
	}

	successCount := 0
	failCount := 0

	for _, doc := range documents {
		log.Printf("📄 Processing %s (%s)", doc.Path, doc.Kind)

		if _, err := os.Stat(doc.Path); os.IsNotExist(err) {
			log.Printf("   ⚠️  File not found, skipping...")
			failCount++
			continue
		}

		content, err := pdfParser.ExtractTextWithMetaData(doc.Path)
		if err != nil {
			log.Printf("   ❌ Failed to extract text: %v", err)
			failCount++
			continue
		}

		chunks := chunker.ChunkText(content.Text, 1000, 200)
		log.Printf("   ✂️  %d pages into %d chunks", content.PageCount, len(chunks))

		records := make([]store.Record, 0, len(chunks))
		for i, chunk := range chunks {
			records = append(records, store.Record{
				ID:   fmt.Sprintf("%s_chunk_%d", doc.Kind, i),
				Text: chunk,
				Metadata: map[string]any{
					"kind":     doc.Kind,
					"filename": filepath.Base(doc.Path),
				},
			})
		}

		if err := store.Upsert(ctx, references, records); err != nil {
			log.Printf("   ❌ Failed to store chunks: %v", err)
			failCount++
			continue
		}

		log.Printf("   ✅ Ingested %s", doc.Path)
		successCount++
	}

	log.Printf("📊 Ingestion summary: %d succeeded, %d failed", successCount, failCount)

	if failCount > 0 {
		os.Exit(1)
	}
}
