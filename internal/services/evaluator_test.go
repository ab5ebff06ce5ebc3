package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dimasprasetya/screening-api/internal/models"
	"github.com/dimasprasetya/screening-api/internal/store"
)

const scoringJSON = "```json\n" + `{
  "cv_match_rate": 0.82,
  "cv_feedback": "Strong backend background.",
  "project_score": 4.5,
  "project_feedback": "Solid RAG implementation.",
  "overall_summary": "Recommended hire."
}` + "\n```"

type stubGemini struct {
	mu       sync.Mutex
	response string
	err      error
	release  chan struct{}
	prompts  []string
}

func (s *stubGemini) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1, 0.2}, nil
}

func (s *stubGemini) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	return s.GenerateTextWithRetry(ctx, prompt, temperature, 1)
}

func (s *stubGemini) GenerateTextWithRetry(ctx context.Context, prompt string, _ float32, _ int) (string, error) {
	if gate := s.gate(); gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()

	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGemini) gate() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release
}

func (s *stubGemini) promptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func newEvalFixture(t *testing.T, gemini *stubGemini) (EvaluationService, store.Collection, store.Collection) {
	t.Helper()

	ctx := context.Background()
	mem := store.NewMemoryStore()

	corpus, err := mem.Collection(ctx, "candidates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ledger, err := mem.Collection(ctx, "eval_candidates")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = corpus.Add(ctx, []store.Record{
		{ID: "42_cv", Text: "cv text", Metadata: map[string]any{"group_id": "42", "kind": "cv"}},
		{ID: "42_report", Text: "report text", Metadata: map[string]any{"group_id": "42", "kind": "report"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc := NewEvaluationService(corpus, ledger, gemini, nil, 3, time.Minute)
	return svc, corpus, ledger
}

func waitForTerminalStatus(t *testing.T, svc EvaluationService, id string) *models.ResultResponse {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		result, err := svc.Result(context.Background(), id)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Status != string(models.StatusProcessing) {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}

	t.Fatal("job never reached a terminal status")
	return nil
}

func TestSubmitMissingJobTitle(t *testing.T) {
	svc, _, _ := newEvalFixture(t, &stubGemini{response: scoringJSON})

	_, err := svc.Submit(context.Background(), "42", "")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}

	// no ledger entry must exist for the rejected request
	_, err = svc.Result(context.Background(), "42")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitMissingID(t *testing.T) {
	svc, _, _ := newEvalFixture(t, &stubGemini{response: scoringJSON})

	_, err := svc.Submit(context.Background(), "", "Backend Engineer")
	if !errors.Is(err, ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}
}

func TestSubmitUnknownCandidate(t *testing.T) {
	svc, _, _ := newEvalFixture(t, &stubGemini{response: scoringJSON})

	_, err := svc.Submit(context.Background(), "99", "Backend Engineer")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = svc.Result(context.Background(), "99")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubmitDoesNotWaitForScoring(t *testing.T) {
	gemini := &stubGemini{response: scoringJSON, release: make(chan struct{})}
	svc, _, _ := newEvalFixture(t, gemini)

	start := time.Now()
	response, err := svc.Submit(context.Background(), "42", "Backend Engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("submit blocked on scoring call: %v", elapsed)
	}

	if response.ID != "42" || response.Status != string(models.StatusProcessing) {
		t.Fatalf("unexpected response: %+v", response)
	}

	// the scorer is still blocked, so the ledger must say processing
	result, err := svc.Result(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != string(models.StatusProcessing) {
		t.Fatalf("expected processing, got %s", result.Status)
	}
	if result.Result != nil {
		t.Fatal("expected no result payload while processing")
	}

	close(gemini.release)
	final := waitForTerminalStatus(t, svc, "42")
	if final.Status != string(models.StatusCompleted) {
		t.Fatalf("expected completed, got %s", final.Status)
	}
}

func TestEvaluationCompletesWithResult(t *testing.T) {
	gemini := &stubGemini{response: scoringJSON}
	svc, _, _ := newEvalFixture(t, gemini)

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := waitForTerminalStatus(t, svc, "42")
	if result.Status != string(models.StatusCompleted) {
		t.Fatalf("expected completed, got %s", result.Status)
	}
	if result.Result == nil {
		t.Fatal("expected result payload")
	}
	if result.Result.CVMatchRate != 0.82 {
		t.Fatalf("unexpected cv_match_rate: %v", result.Result.CVMatchRate)
	}
	if result.Result.CVFeedback != "Strong backend background." {
		t.Fatalf("unexpected cv_feedback: %q", result.Result.CVFeedback)
	}
	if result.Result.ProjectScore != 4.5 {
		t.Fatalf("unexpected project_score: %v", result.Result.ProjectScore)
	}
	if result.Result.ProjectFeedback == "" || result.Result.OverallSummary == "" {
		t.Fatalf("expected all feedback fields populated: %+v", result.Result)
	}
}

func TestScoringPromptCarriesJobAndTexts(t *testing.T) {
	gemini := &stubGemini{response: scoringJSON}
	svc, _, _ := newEvalFixture(t, gemini)

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.Wait()

	if gemini.promptCount() != 1 {
		t.Fatalf("expected 1 scoring call, got %d", gemini.promptCount())
	}

	prompt := gemini.prompts[0]
	for _, want := range []string{"Backend Engineer", "cv text", "report text"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q", want)
		}
	}
}

func TestScoringFailureMarksJobFailed(t *testing.T) {
	gemini := &stubGemini{err: errors.New("model unavailable")}
	svc, _, _ := newEvalFixture(t, gemini)

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := waitForTerminalStatus(t, svc, "42")
	if result.Status != string(models.StatusFailed) {
		t.Fatalf("expected failed, got %s", result.Status)
	}
	if result.ErrorMessage == nil || *result.ErrorMessage == "" {
		t.Fatal("expected error message on failed job")
	}
	if result.Result != nil {
		t.Fatal("expected no result payload on failed job")
	}
}

func TestUnparsableScoringResponseMarksJobFailed(t *testing.T) {
	gemini := &stubGemini{response: "sorry, I cannot help with that"}
	svc, _, _ := newEvalFixture(t, gemini)

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := waitForTerminalStatus(t, svc, "42")
	if result.Status != string(models.StatusFailed) {
		t.Fatalf("expected failed, got %s", result.Status)
	}
}

func TestResubmitRestartsCycle(t *testing.T) {
	gemini := &stubGemini{response: scoringJSON}
	svc, _, _ := newEvalFixture(t, gemini)

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := waitForTerminalStatus(t, svc, "42")
	if first.Status != string(models.StatusCompleted) {
		t.Fatalf("expected completed, got %s", first.Status)
	}

	// resubmission discards the previous result and starts over
	gemini.mu.Lock()
	gemini.release = make(chan struct{})
	gemini.mu.Unlock()

	if _, err := svc.Submit(context.Background(), "42", "Backend Engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.Result(context.Background(), "42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != string(models.StatusProcessing) {
		t.Fatalf("expected processing after resubmit, got %s", result.Status)
	}
	if result.Result != nil {
		t.Fatal("expected old result to be discarded")
	}

	close(gemini.release)
	final := waitForTerminalStatus(t, svc, "42")
	if final.Status != string(models.StatusCompleted) {
		t.Fatalf("expected completed, got %s", final.Status)
	}
}
