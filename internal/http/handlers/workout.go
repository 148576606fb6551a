package handlers

import (
	"encoding/json"
	"net/http"

	"fitforge/internal/form"
	"fitforge/internal/plan"
)

// Workout builds and delivers a workout plan without touching the image
// pipeline. Same form payload as the webhook, minus the photo requirement.
func (a *App) Workout(w http.ResponseWriter, r *http.Request) {
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

	planHTML := plan.Generate(plan.Input{
		Age:       in.Age,
		Gender:    in.Gender,
		CurrentKg: in.CurrentKg,
		DesiredKg: in.DesiredKg,
	})

	var pdfURL string
	if a.Reports != nil {
		if pdfURL, err = a.Reports.CreatePlanOnly(ctx, planHTML); err != nil {
			log.Warn().Err(err).Msg("report build failed, continuing")
			pdfURL = ""
		}
	}

	a.notify(ctx, log, in, planHTML, nil, pdfURL)

	a.json(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"plan_pdf_url": pdfURL,
	})
}
