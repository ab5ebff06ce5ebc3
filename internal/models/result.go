package models

type UploadResponse struct {
	ID    string   `json:"id"`
	Added int      `json:"added"`
	IDs   []string `json:"ids"`
}

type EvaluateRequest struct {
	ID       string `json:"id" validate:"required"`
	JobTitle string `json:"job_title" validate:"required"`
}

type EvaluateResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type ResultResponse struct {
	ID           string          `json:"id"`
	Status       string          `json:"status"`
	Result       *EvaluationData `json:"result,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
}
