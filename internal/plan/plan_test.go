package plan

import (
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name      string
		currentKg float64
		desiredKg float64
		want      Goal
	}{
		{"big loss", 90, 70, GoalLose},
		{"big gain", 60, 75, GoalGain},
		{"no change", 70, 70, GoalMaintain},
		{"small change inside dead zone", 70, 70.5, GoalMaintain},
		{"just past dead zone down", 70, 68, GoalLose},
		{"just past dead zone up", 70, 72, GoalGain},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.currentKg, tc.desiredKg); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGenerateLosePlan(t *testing.T) {
	out := Generate(Input{Age: 30, Gender: "female", CurrentKg: 80, DesiredKg: 70})

	if !strings.HasPrefix(out, "Hey Queen") {
		t.Fatalf("salutation missing: %q", out[:40])
	}
	if !strings.Contains(out, "Goal: Lose 22 lbs") {
		t.Fatalf("goal line missing: %s", out)
	}
	if !strings.Contains(out, "Monday: Cardio (30-45 min) + Core") {
		t.Fatalf("lose schedule missing")
	}
	if !strings.Contains(out, "Avoid: Sugary drinks") {
		t.Fatalf("lose meal note missing")
	}
	if !strings.Contains(out, "Emphasize glutes, legs, and core strength") {
		t.Fatalf("female emphasis missing")
	}
	if strings.Contains(out, "joint-friendly") {
		t.Fatalf("age advice should not appear for age 30")
	}
}

func TestGenerateGainPlanForOlderMale(t *testing.T) {
	out := Generate(Input{Age: 45, Gender: "Male", CurrentKg: 70, DesiredKg: 80})

	if !strings.HasPrefix(out, "Hey King") {
		t.Fatalf("salutation missing")
	}
	if !strings.Contains(out, "Goal: Gain 22 lbs") {
		t.Fatalf("goal line missing: %s", out)
	}
	if !strings.Contains(out, "Monday: Push workout (Chest/Triceps)") {
		t.Fatalf("gain schedule missing")
	}
	if !strings.Contains(out, "Peanut butter banana shake") {
		t.Fatalf("gain meal extra missing")
	}
	if !strings.Contains(out, "Add joint-friendly routines and longer warmups") {
		t.Fatalf("age advice missing for age 45")
	}
}

func TestGenerateMaintainNeutral(t *testing.T) {
	out := Generate(Input{Age: 25, Gender: "", CurrentKg: 70, DesiredKg: 70})

	if !strings.HasPrefix(out, "Hey Champion") {
		t.Fatalf("neutral salutation missing")
	}
	if !strings.Contains(out, "Goal: Maintain 0 lbs") {
		t.Fatalf("goal line missing: %s", out)
	}
	if !strings.Contains(out, "Balanced full-body training or light yoga") {
		t.Fatalf("maintain schedule missing")
	}
	if strings.Contains(out, "Emphasize") {
		t.Fatalf("gender emphasis should not appear without a gender")
	}
}
