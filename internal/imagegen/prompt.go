package imagegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const promptSuffix = "photorealistic, preserve face, close resemblance to original photo"

// ComposePrompt derives the provider-facing prompt from the base prompt and
// body metrics. Deterministic: identical inputs yield identical strings.
// Weights that fail numeric parsing are treated as 0; callers can detect that
// via WeightDelta and log it.
func ComposePrompt(base, gender, currentWeight, desiredWeight, height string) string {
	delta, _ := WeightDelta(currentWeight, desiredWeight)

	// The 2-unit dead zone keeps noisy inputs from flipping the descriptor.
	var body string
	switch {
	case math.Abs(delta) < 2:
		body = "similar body type"
	case delta < 0:
		body = "slimmer, toned, healthy appearance"
	default:
		body = "stronger, athletic build"
	}

	genderDesc := "realistic human body appearance"
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male", "man":
		genderDesc = "masculine features, realistic male fitness aesthetic"
	case "female", "woman":
		genderDesc = "feminine features, realistic female fitness aesthetic"
	}

	parts := []string{strings.TrimSpace(base), body, genderDesc}
	if h := strings.TrimSpace(height); h != "" {
		if _, err := strconv.ParseFloat(h, 64); err == nil {
			parts = append(parts, fmt.Sprintf("approximately %s cm tall", h))
		}
	}
	parts = append(parts, promptSuffix)
	return strings.Join(parts, ", ")
}

// WeightDelta computes desired minus current weight. Missing operands count as
// 0. The bool reports whether both operands parsed cleanly.
func WeightDelta(currentWeight, desiredWeight string) (float64, bool) {
	current, okCurrent := parseWeight(currentWeight)
	desired, okDesired := parseWeight(desiredWeight)
	return desired - current, okCurrent && okDesired
}

func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
