package domain

import "time"

// SubmissionStatus tracks one webhook submission through the pipeline.
type SubmissionStatus string

const (
	SubmissionRunning SubmissionStatus = "RUNNING"
	SubmissionDone    SubmissionStatus = "DONE"
	SubmissionFailed  SubmissionStatus = "FAILED"
)

// Submission is the persisted record of one fitness-form submission.
type Submission struct {
	ID            string
	SubmissionKey string
	Email         string
	Prompt        string
	Status        SubmissionStatus
	ImageURL      string
	ImageStage    string
	PlanPDFURL    string
	CreatedAt     time.Time
	CompletedAt   *time.Time
}
