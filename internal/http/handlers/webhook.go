package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitforge/internal/domain"
	"fitforge/internal/form"
	"fitforge/internal/imagegen"
	"fitforge/internal/plan"
)

// submissionInput is everything a plan and image run needs, pulled out of the
// loosely structured form payload.
type submissionInput struct {
	Key        string
	Name       string
	Email      string
	Gender     string
	Age        int
	CurrentLbs string
	DesiredLbs string
	CurrentKg  float64
	DesiredKg  float64
	Height     string
	PhotoURL   string
}

// Webhook ingests a fitness-form submission: dedup, goal image, workout plan,
// PDF report, email. Provider failures degrade the result instead of failing
// the request; only an unusable payload is a client error.
func (a *App) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload form.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	in, err := a.parseSubmission(payload)
	if err != nil {
		a.jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	log := a.Logger.With().Str("submission", in.Key).Logger()

	if duplicate := a.alreadySeen(ctx, log, in.Key); duplicate {
		log.Info().Msg("duplicate submission, skipping")
		a.json(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	sub := &domain.Submission{
		ID:            uuid.NewString(),
		SubmissionKey: in.Key,
		Email:         in.Email,
	}

	var result *imagegen.Result
	var sourceFailed bool
	if a.Generator != nil && in.PhotoURL != "" {
		req := imagegen.Request{
			BasePrompt:    basePrompt(in),
			SourceURL:     in.PhotoURL,
			Gender:        in.Gender,
			CurrentWeight: in.CurrentLbs,
			DesiredWeight: in.DesiredLbs,
			Height:        in.Height,
			RequestID:     sub.ID,
		}
		sub.Prompt = req.BasePrompt

		res, err := a.Generator.Generate(ctx, req)
		switch {
		case errors.Is(err, imagegen.ErrSourceImage):
			sourceFailed = true
			log.Warn().Err(err).Msg("source photo unusable, falling back to plan only")
		case err != nil:
			log.Warn().Err(err).Msg("image generation failed, falling back to plan only")
		default:
			result = res
		}
	}

	if a.Submissions != nil {
		if err := a.Submissions.Create(ctx, sub); err != nil {
			log.Warn().Err(err).Msg("persist submission failed, continuing")
		}
	}

	planHTML := plan.Generate(plan.Input{
		Age:       in.Age,
		Gender:    in.Gender,
		CurrentKg: in.CurrentKg,
		DesiredKg: in.DesiredKg,
	})

	var pdfURL string
	if a.Reports != nil {
		if result != nil {
			pdfURL, err = a.Reports.CreateWithImage(ctx, result.URL, planHTML)
		} else {
			pdfURL, err = a.Reports.CreatePlanOnly(ctx, planHTML)
		}
		if err != nil {
			log.Warn().Err(err).Msg("report build failed, continuing")
			pdfURL = ""
		}
	}

	a.notify(ctx, log, in, planHTML, result, pdfURL)

	status := domain.SubmissionDone
	if sourceFailed {
		status = domain.SubmissionFailed
	}
	resp := map[string]string{
		"status":       "ok",
		"plan_pdf_url": pdfURL,
	}
	if result != nil {
		resp["image_url"] = result.URL
		resp["image_stage"] = string(result.Stage)
	}
	if a.Submissions != nil {
		var imageURL, imageStage string
		if result != nil {
			imageURL, imageStage = result.URL, string(result.Stage)
		}
		if err := a.Submissions.Complete(ctx, sub.ID, status, imageURL, imageStage, pdfURL); err != nil {
			log.Warn().Err(err).Msg("finalize submission failed")
		}
	}

	a.json(w, http.StatusOK, resp)
}

// alreadySeen reports whether this submission key was processed before. Redis
// is the fast path; the submissions table catches retries when Redis is not
// wired. With neither configured every delivery runs.
func (a *App) alreadySeen(ctx context.Context, log zerolog.Logger, key string) bool {
	if a.Deduper != nil {
		first, err := a.Deduper.FirstSeen(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("dedup check failed, continuing")
			return false
		}
		return !first
	}

	if a.Submissions != nil {
		prev, err := a.Submissions.FindByKey(ctx, key)
		switch {
		case err == nil && prev != nil:
			return true
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			log.Warn().Err(err).Msg("dedup lookup failed, continuing")
		}
	}
	return false
}

func (a *App) parseSubmission(payload form.Payload) (*submissionInput, error) {
	fields := payload.Data.Fields
	if len(fields) == 0 {
		return nil, fmt.Errorf("payload has no form fields")
	}

	in := &submissionInput{
		Name:       form.Value(fields, "first name", "name"),
		Email:      form.Value(fields, "email"),
		Gender:     form.Value(fields, "gender", "sex"),
		CurrentLbs: form.Value(fields, "current weight", "weight now", "weight"),
		DesiredLbs: form.Value(fields, "desired weight", "goal weight", "target"),
		Height:     form.Value(fields, "height"),
		PhotoURL:   form.Value(fields, "photo", "picture", "image", "upload"),
	}

	in.Key = strings.TrimSpace(payload.Data.SubmissionID)
	if in.Key == "" {
		in.Key = strings.TrimSpace(payload.EventID)
	}
	if in.Key == "" {
		in.Key = uuid.NewString()
	}

	if in.Email == "" {
		return nil, fmt.Errorf("email field is required")
	}

	var ok bool
	if in.CurrentKg, ok = form.PoundsToKg(in.CurrentLbs); !ok {
		return nil, fmt.Errorf("current weight is missing or not numeric")
	}
	if in.DesiredKg, ok = form.PoundsToKg(in.DesiredLbs); !ok {
		return nil, fmt.Errorf("desired weight is missing or not numeric")
	}

	if birthday := form.Value(fields, "birth"); birthday != "" {
		if age, ok := form.CalculateAge(birthday, a.now()); ok {
			in.Age = age
		}
	}

	return in, nil
}

func basePrompt(in *submissionInput) string {
	subject := strings.ToLower(strings.TrimSpace(in.Gender))
	if subject == "" {
		subject = "adult"
	}
	if in.Age > 0 {
		subject = fmt.Sprintf("%d-year-old %s", in.Age, subject)
	}
	return fmt.Sprintf(
		"%s person at %s lbs, athletic, healthy body, fit appearance, soft lighting, full-body studio portrait",
		subject, in.CurrentLbs,
	)
}
