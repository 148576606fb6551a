package plan

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Goal classifies the weight direction a plan is built around.
type Goal string

const (
	GoalLose     Goal = "lose"
	GoalGain     Goal = "gain"
	GoalMaintain Goal = "maintain"
)

// Input carries the validated metrics a plan is derived from.
type Input struct {
	Age       int
	Gender    string
	CurrentKg float64
	DesiredKg float64
}

const lbsPerKg = 2.20462

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Classify maps the weight delta onto a goal. The 2 lbs dead zone mirrors the
// prompt composer's hysteresis.
func Classify(currentKg, desiredKg float64) Goal {
	diffLbs := (desiredKg - currentKg) * lbsPerKg
	switch {
	case diffLbs < -2:
		return GoalLose
	case diffLbs > 2:
		return GoalGain
	default:
		return GoalMaintain
	}
}

// Generate renders a personalized workout and meal plan as simple HTML
// (line-broken with <br>, section headers in <b>). Deterministic per input.
func Generate(in Input) string {
	goal := Classify(in.CurrentKg, in.DesiredKg)
	diffLbs := math.Abs((in.DesiredKg - in.CurrentKg) * lbsPerKg)
	titler := cases.Title(language.English)

	lines := []string{
		salutation(in.Gender) + ", here's your personalized workout plan:",
		fmt.Sprintf("Goal: %s %d lbs", titler.String(string(goal)), int(diffLbs+0.5)),
		"<br><b>Weekly Workout Schedule:</b>",
	}
	lines = append(lines, schedule(goal)...)

	lines = append(lines, "<br><b>Sample Meal Plan:</b>")
	lines = append(lines,
		"Breakfast: Oats with berries and protein powder",
		"Lunch: Grilled chicken salad with quinoa",
		"Snack: Greek yogurt and almonds",
		"Dinner: Salmon with sweet potatoes and broccoli",
	)
	switch goal {
	case GoalGain:
		lines = append(lines, "Extra: Peanut butter banana shake after dinner")
	case GoalLose:
		lines = append(lines, "Avoid: Sugary drinks, fried food, heavy sauces")
	}

	switch strings.ToLower(strings.TrimSpace(in.Gender)) {
	case "female", "woman":
		lines = append(lines, "Emphasize glutes, legs, and core strength")
	case "male", "man":
		lines = append(lines, "Emphasize upper body, core, and functional lifts")
	}

	if in.Age > 40 {
		lines = append(lines,
			"Add joint-friendly routines and longer warmups",
			"Prioritize recovery: sleep, hydration, mobility",
		)
	}

	lines = append(lines, "You got this. Let's make it happen!")
	return strings.Join(lines, "<br>")
}

func salutation(gender string) string {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "female", "woman":
		return "Hey Queen"
	case "male", "man":
		return "Hey King"
	default:
		return "Hey Champion"
	}
}

func schedule(goal Goal) []string {
	out := make([]string, 0, len(weekdays))
	for i, day := range weekdays {
		switch goal {
		case GoalLose:
			if i%2 == 0 {
				out = append(out, day+": Cardio (30-45 min) + Core")
			} else {
				out = append(out, day+": Strength (Full-body) or Active Rest")
			}
		case GoalGain:
			switch i % 3 {
			case 0:
				out = append(out, day+": Push workout (Chest/Triceps)")
			case 1:
				out = append(out, day+": Pull workout (Back/Biceps)")
			default:
				out = append(out, day+": Legs/Core")
			}
		default:
			out = append(out, day+": Balanced full-body training or light yoga")
		}
	}
	return out
}
