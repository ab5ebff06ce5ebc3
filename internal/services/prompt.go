package services

import (
	"fmt"
	"strings"

	"github.com/dimasprasetya/screening-api/internal/store"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// CombineTexts merges the extracted CV and project-report texts into the
// single candidate body the scoring prompt consumes.
func (pb *PromptBuilder) CombineTexts(cvText, reportText string) string {
	return fmt.Sprintf("--- CV TEXT ---\n%s\n\n--- PROJECT REPORT TEXT ---\n%s", cvText, reportText)
}

// BuildEvaluationPrompt creates the scoring prompt for one candidate. The
// model must answer with a single JSON object carrying the five result
// fields. referenceContext may be empty when no ground-truth documents
// were retrievable.
func (pb *PromptBuilder) BuildEvaluationPrompt(jobTitle, combinedText, referenceContext string) string {
	if referenceContext == "" {
		referenceContext = "No reference documents available."
	}

	return fmt.Sprintf(`You are a meticulous AI recruitment analyst. Evaluate a candidate against a job position using their CV and project report.

### I. INPUT
1. JOB POSITION: "%s"
2. REFERENCE DOCUMENTS (job description, case study brief, scoring rubrics):
%s
3. COMBINED CANDIDATE TEXT (extracted from the CV and project report):
---
%s
---

### II. EVALUATION METHOD (1-5 scale per parameter)

#### A. CV Match Evaluation
1. Technical Skills Match (Weight: 40%%) - Alignment with job requirements (backend, databases, APIs, cloud, AI/LLM). 1=Irrelevant, 5=Excellent match.
2. Experience Level (Weight: 25%%) - Years of experience and project complexity. 1=<1 yr/trivial, 5=>5 yrs/high-impact.
3. Relevant Achievements (Weight: 20%%) - Impact of past work (scaling, performance, adoption). 1=No measurable impact, 5=Major measurable impact.
4. Cultural/Collaboration Fit (Weight: 15%%) - Communication, learning mindset, teamwork/leadership. 1=Not demonstrated, 5=Excellent.

#### B. Project Deliverable Evaluation
1. Correctness (Weight: 30%%) - Prompt design, LLM chaining, RAG context injection. 1=Not implemented, 5=Fully correct and thoughtful.
2. Code Quality & Structure (Weight: 25%%) - Clean, modular, reusable, tested. 1=Poor, 5=Excellent quality with strong tests.
3. Resilience & Error Handling (Weight: 20%%) - Long jobs, retries, randomness, API failures. 1=Missing, 5=Robust, production-ready.
4. Documentation & Explanation (Weight: 15%%) - README clarity, setup instructions, trade-off explanations. 1=Missing, 5=Excellent and insightful.
5. Creativity/Bonus (Weight: 10%%) - Extra features beyond requirements. 1=None, 5=Outstanding creativity.

### III. OUTPUT: STRUCTURED JSON

Return the entire analysis as a single JSON object:

{
  "cv_match_rate": <weighted CV average * 0.2, as decimal 0-1>,
  "cv_feedback": "<2-3 sentences on CV fit, covering strengths and gaps in technical match and experience level>",
  "project_score": <weighted project average, 1-5 as decimal>,
  "project_feedback": "<2-3 sentences on project quality, covering correctness and code quality as well as resilience and documentation gaps>",
  "overall_summary": "<3-5 sentences on overall candidate fit and a hiring recommendation>"
}

Return only the JSON object, no introduction or closing text.`,
		jobTitle, referenceContext, combinedText)
}

// FormatReferenceContext renders retrieved reference records into a prompt
// section.
func FormatReferenceContext(records []store.Record) string {
	if len(records) == 0 {
		return ""
	}

	var parts []string
	for i, rec := range records {
		parts = append(parts, fmt.Sprintf("--- Reference %d ---\n%s", i+1, strings.TrimSpace(rec.Text)))
	}

	return strings.Join(parts, "\n\n")
}

// extractJSON pulls a JSON object or array out of text that may wrap it in
// markdown fences or prose.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
