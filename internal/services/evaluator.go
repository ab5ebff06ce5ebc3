package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dimasprasetya/screening-api/internal/models"
	"github.com/dimasprasetya/screening-api/internal/store"
)

// EvaluationService is the job controller and result reader for candidate
// evaluations. Submit is the only writer of the ledger; Result never
// mutates it.
type EvaluationService interface {
	Submit(ctx context.Context, id, jobTitle string) (*models.EvaluateResponse, error)
	Result(ctx context.Context, id string) (*models.ResultResponse, error)

	// Wait blocks until all in-flight background evaluations finish. Used
	// during shutdown.
	Wait()
}

type evaluationService struct {
	corpus     store.Collection
	ledger     store.Collection
	gemini     GeminiService
	references ReferenceRetriever
	prompts    *PromptBuilder
	maxRetries int
	timeout    time.Duration
	tasks      sync.WaitGroup
}

// NewEvaluationService wires the controller. references may be nil; the
// evaluation then runs without ground-truth context.
func NewEvaluationService(
	corpus store.Collection,
	ledger store.Collection,
	gemini GeminiService,
	references ReferenceRetriever,
	maxRetries int,
	timeout time.Duration,
) EvaluationService {
	return &evaluationService{
		corpus:     corpus,
		ledger:     ledger,
		gemini:     gemini,
		references: references,
		prompts:    NewPromptBuilder(),
		maxRetries: maxRetries,
		timeout:    timeout,
	}
}

// Submit implements EvaluationService. It validates the request, looks up
// the candidate's corpus pair, writes the "processing" ledger entry
// synchronously, then detaches the scoring task and returns. Re-submitting
// the same id discards the previous entry and restarts the cycle.
func (s *evaluationService) Submit(ctx context.Context, id, jobTitle string) (*models.EvaluateResponse, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required: %w", ErrMissingParameter)
	}
	if jobTitle == "" {
		return nil, fmt.Errorf("job_title is required: %w", ErrMissingParameter)
	}

	cvID := CorpusID(id, models.KindCV)
	reportID := CorpusID(id, models.KindReport)

	records, err := s.corpus.Get(ctx, []string{cvID, reportID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up candidate %s: %w", id, err)
	}

	var cvText, reportText string
	for _, rec := range records {
		switch rec.ID {
		case cvID:
			cvText = rec.Text
		case reportID:
			reportText = rec.Text
		}
	}
	if cvText == "" || reportText == "" {
		return nil, fmt.Errorf("candidate %s has no ingested CV/report pair: %w", id, ErrNotFound)
	}

	// the processing entry must be visible before the caller gets a reply
	if err := s.writeStatus(ctx, id, models.StatusProcessing, nil, ""); err != nil {
		return nil, fmt.Errorf("failed to create evaluation job: %w", err)
	}

	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()

		// detached from the request context on purpose; the caller's
		// request ends long before scoring does
		taskCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.evaluate(taskCtx, id, jobTitle, cvText, reportText); err != nil {
			log.Printf("❌ Evaluation failed for job %s: %v\n", id, err)
			s.writeFailed(id, err)
		}
	}()

	log.Printf("🔄 Evaluation started for job %s\n", id)

	return &models.EvaluateResponse{
		ID:     id,
		Status: string(models.StatusProcessing),
	}, nil
}

// evaluate runs the scoring workflow and writes the completed ledger
// entry. Any returned error is turned into a failed entry by the caller.
func (s *evaluationService) evaluate(ctx context.Context, id, jobTitle, cvText, reportText string) error {
	combined := s.prompts.CombineTexts(cvText, reportText)

	referenceContext := ""
	if s.references != nil {
		refCtx, err := s.references.Retrieve(ctx, combined)
		if err != nil {
			log.Printf("⚠️  Failed to retrieve reference context for job %s: %v\n", id, err)
		} else {
			referenceContext = refCtx
		}
	}

	prompt := s.prompts.BuildEvaluationPrompt(jobTitle, combined, referenceContext)

	response, err := s.gemini.GenerateTextWithRetry(ctx, prompt, 0.3, s.maxRetries)
	if err != nil {
		return fmt.Errorf("scoring call failed: %w", err)
	}

	var result models.EvaluationData
	if err := json.Unmarshal([]byte(extractJSON(response)), &result); err != nil {
		return fmt.Errorf("failed to parse scoring response: %w", err)
	}

	if err := s.writeStatus(ctx, id, models.StatusCompleted, &result, ""); err != nil {
		return fmt.Errorf("failed to save result: %w", err)
	}

	log.Printf("✅ Evaluation completed for job %s\n", id)
	return nil
}

// writeFailed records the terminal failed state. Best effort with a fresh
// context: the task context may already be cancelled or expired.
func (s *evaluationService) writeFailed(id string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.writeStatus(ctx, id, models.StatusFailed, nil, cause.Error()); err != nil {
		log.Printf("❌ Failed to record failed state for job %s: %v\n", id, err)
	}
}

// writeStatus upserts the single ledger entry for id. Delete-then-add
// keeps exactly one entry per job; the last writer wins.
func (s *evaluationService) writeStatus(ctx context.Context, id string, status models.EvaluationStatus, result *models.EvaluationData, errMsg string) error {
	metadata := map[string]any{
		"status": string(status),
	}
	if result != nil {
		metadata["cv_match_rate"] = result.CVMatchRate
		metadata["cv_feedback"] = result.CVFeedback
		metadata["project_score"] = result.ProjectScore
		metadata["project_feedback"] = result.ProjectFeedback
		metadata["overall_summary"] = result.OverallSummary
	}
	if errMsg != "" {
		metadata["error"] = errMsg
	}

	record := store.Record{
		ID:       id,
		Text:     fmt.Sprintf("evaluation job %s, status %s", id, status),
		Metadata: metadata,
	}

	return store.Upsert(ctx, s.ledger, []store.Record{record})
}

// Result implements EvaluationService.
func (s *evaluationService) Result(ctx context.Context, id string) (*models.ResultResponse, error) {
	records, err := s.ledger.Get(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to look up job %s: %w", id, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("evaluation job %s: %w", id, ErrNotFound)
	}

	rec := records[0]
	status := metaString(rec.Metadata, "status")

	response := &models.ResultResponse{
		ID:     rec.ID,
		Status: status,
	}

	if status == string(models.StatusCompleted) {
		response.Result = &models.EvaluationData{
			CVMatchRate:     metaFloat(rec.Metadata, "cv_match_rate"),
			CVFeedback:      metaString(rec.Metadata, "cv_feedback"),
			ProjectScore:    metaFloat(rec.Metadata, "project_score"),
			ProjectFeedback: metaString(rec.Metadata, "project_feedback"),
			OverallSummary:  metaString(rec.Metadata, "overall_summary"),
		}
	}

	if status == string(models.StatusFailed) {
		if msg := metaString(rec.Metadata, "error"); msg != "" {
			response.ErrorMessage = &msg
		}
	}

	return response, nil
}

// Wait implements EvaluationService.
func (s *evaluationService) Wait() {
	s.tasks.Wait()
}

func metaString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func metaFloat(metadata map[string]any, key string) float64 {
	switch v := metadata[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}
