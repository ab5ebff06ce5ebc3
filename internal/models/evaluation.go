package models

type EvaluationStatus string

const (
	StatusProcessing EvaluationStatus = "processing"
	StatusCompleted  EvaluationStatus = "completed"
	StatusFailed     EvaluationStatus = "failed"
)

// DocumentKind distinguishes the two halves of a submission in the corpus.
type DocumentKind string

const (
	KindCV     DocumentKind = "cv"
	KindReport DocumentKind = "report"
)

// EvaluationData is the structured result the scoring model returns and
// the ledger stores for a completed job.
type EvaluationData struct {
	CVMatchRate     float64 `json:"cv_match_rate"`
	CVFeedback      string  `json:"cv_feedback"`
	ProjectScore    float64 `json:"project_score"`
	ProjectFeedback string  `json:"project_feedback"`
	OverallSummary  string  `json:"overall_summary"`
}
