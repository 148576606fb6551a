package form

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Field is one form answer as delivered by the form webhook. Values arrive in
// several shapes (string, list of options, file objects), so they are kept raw
// until a caller asks for them.
type Field struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

// Payload is the webhook envelope.
type Payload struct {
	EventID string `json:"eventId"`
	Data    struct {
		SubmissionID string  `json:"submissionId"`
		Fields       []Field `json:"fields"`
	} `json:"data"`
}

// Value finds the first field whose label contains one of the keywords
// (case-insensitive, checked in keyword order) and flattens its value to a
// string. Returns "" when nothing matches.
func Value(fields []Field, keywords ...string) string {
	for _, keyword := range keywords {
		needle := strings.ToLower(strings.TrimSpace(keyword))
		if needle == "" {
			continue
		}
		for _, field := range fields {
			if !strings.Contains(strings.ToLower(field.Label), needle) {
				continue
			}
			if v := flattenValue(field.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// flattenValue normalizes the known value shapes: a plain string, a list whose
// first entry is a string or an object, or an object carrying url/text/label.
func flattenValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		return flattenValue(list[0])
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"url", "text", "label", "value"} {
			if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	// Numbers and booleans land here.
	return strings.Trim(strings.TrimSpace(string(raw)), `"`)
}

// PoundsToKg converts a pounds string to kilograms rounded to two decimals.
func PoundsToKg(lbs string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(lbs), 64)
	if err != nil {
		return 0, false
	}
	kg := v * 0.453592
	return float64(int(kg*100+0.5)) / 100, true
}

// CalculateAge derives full years between a YYYY-MM-DD birthdate and now.
func CalculateAge(birthdate string, now time.Time) (int, bool) {
	dob, err := time.Parse("2006-01-02", strings.TrimSpace(birthdate))
	if err != nil {
		return 0, false
	}
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}
