package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fitforge/internal/domain"
	"fitforge/internal/imagegen"
)

// GoalImageGenerator produces the transformed goal image for a submission.
type GoalImageGenerator interface {
	Generate(ctx context.Context, req imagegen.Request) (*imagegen.Result, error)
}

// ReportBuilder renders the workout plan as a hosted PDF.
type ReportBuilder interface {
	CreateWithImage(ctx context.Context, imageURL, planHTML string) (string, error)
	CreatePlanOnly(ctx context.Context, planHTML string) (string, error)
}

// Notifier delivers the plan email. Enabled reports whether delivery is
// configured at all.
type Notifier interface {
	Enabled() bool
	Send(ctx context.Context, to, subject, bodyHTML string) error
}

// SubmissionDeduper claims a submission ID so webhook retries run once.
type SubmissionDeduper interface {
	FirstSeen(ctx context.Context, submissionID string) (bool, error)
}

// SubmissionStore persists submission records. Both deduper and store are
// optional; a nil value disables that concern. FindByKey backs webhook dedup
// when no Redis deduper is wired.
type SubmissionStore interface {
	Create(ctx context.Context, s *domain.Submission) error
	Complete(ctx context.Context, id string, status domain.SubmissionStatus, imageURL, imageStage, planPDFURL string) error
	FindByKey(ctx context.Context, key string) (*domain.Submission, error)
}

type App struct {
	Logger      zerolog.Logger
	Generator   GoalImageGenerator
	Reports     ReportBuilder
	Notifier    Notifier
	Deduper     SubmissionDeduper
	Submissions SubmissionStore

	// Overridable for tests.
	Now func() time.Time
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
