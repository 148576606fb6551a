package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"fitforge/internal/imagegen"
)

const emailSubject = "Your Personalized Fitness Plan"

func (a *App) notify(ctx context.Context, log zerolog.Logger, in *submissionInput, planHTML string, result *imagegen.Result, pdfURL string) {
	if a.Notifier == nil || !a.Notifier.Enabled() {
		log.Info().Msg("email delivery not configured, skipping")
		return
	}
	var imageURL string
	if result != nil {
		imageURL = result.URL
	}
	body := emailBody(in, planHTML, imageURL, pdfURL)
	if err := a.Notifier.Send(ctx, in.Email, emailSubject, body); err != nil {
		log.Warn().Err(err).Msg("email delivery failed")
		return
	}
	log.Info().Str("to", in.Email).Msg("plan email sent")
}

// emailBody assembles the HTML email: a personal greeting, the submitted
// metrics, the plan itself, then links to the goal image and the PDF report
// when available.
func emailBody(in *submissionInput, planHTML, imageURL, pdfURL string) string {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Hi %s,<br><br>", name))
	b.WriteString("Here is your personalized fitness plan.<br><br>")

	b.WriteString("<b>Your details:</b><br>")
	if in.Age > 0 {
		b.WriteString(fmt.Sprintf("Age: %d<br>", in.Age))
	}
	if g := strings.TrimSpace(in.Gender); g != "" {
		b.WriteString(fmt.Sprintf("Gender: %s<br>", g))
	}
	b.WriteString(fmt.Sprintf("Current weight: %s lbs<br>", in.CurrentLbs))
	b.WriteString(fmt.Sprintf("Desired weight: %s lbs<br><br>", in.DesiredLbs))

	b.WriteString(planHTML)
	if imageURL != "" {
		b.WriteString("<br><br>")
		b.WriteString(fmt.Sprintf(`<b>Your goal physique:</b><br><img src=%q alt="Your goal physique" width="360">`, imageURL))
	}
	if pdfURL != "" {
		b.WriteString("<br><br>")
		b.WriteString(fmt.Sprintf(`<a href=%q>Download your full plan as PDF</a>`, pdfURL))
	}
	return b.String()
}
