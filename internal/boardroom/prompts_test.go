package boardroom

import (
	"strings"
	"testing"

	"github.com/FarhanAnis005/Founders-Gauntlet-Backend/internal/extraction"
)

func TestKnownPersona(t *testing.T) {
	for _, persona := range extraction.Personas {
		if !KnownPersona(persona) {
			t.Fatalf("expected %q to be known", persona)
		}
	}
	if KnownPersona("elon") {
		t.Fatalf("expected unknown persona to be rejected")
	}
}

func TestBuildInstructionsWithoutAnalysis(t *testing.T) {
	got := BuildInstructions("kevin", nil)

	if !strings.Contains(got, "Kevin from Shark Tank") {
		t.Fatalf("expected persona header, got:\n%s", got)
	}
	if !strings.Contains(got, "No deck context provided") {
		t.Fatalf("expected no-context fallback, got:\n%s", got)
	}
	if !strings.Contains(got, "unit economics") {
		t.Fatalf("expected persona angle, got:\n%s", got)
	}
}

func TestBuildInstructionsWithAnalysis(t *testing.T) {
	analysis := &extraction.Result{
		OneLiner:  "Robot baristas for offices",
		Themes:    []string{"automation", "food service"},
		Strengths: []string{"recurring revenue"},
		Risks:     []string{"hardware margins"},
		QuestionsByPersona: extraction.PersonaQuestions{
			Mark: []string{"What is the data moat?", "How does this scale?"},
		},
	}

	got := BuildInstructions("mark", analysis)
	if !strings.Contains(got, "Startup summary: Robot baristas for offices") {
		t.Fatalf("expected summary line, got:\n%s", got)
	}
	if !strings.Contains(got, "automation; food service") {
		t.Fatalf("expected joined themes, got:\n%s", got)
	}
	if !strings.Contains(got, "Starter questions for Mark: What is the data moat? | How does this scale?") {
		t.Fatalf("expected starter questions, got:\n%s", got)
	}
}

func TestBuildInstructionsCapsQuestions(t *testing.T) {
	questions := make([]string, 15)
	for i := range questions {
		questions[i] = "q"
	}
	analysis := &extraction.Result{
		QuestionsByPersona: extraction.PersonaQuestions{Lori: questions},
	}

	got := BuildInstructions("lori", analysis)
	if count := strings.Count(got, " | "); count != maxStarterQuestions-1 {
		t.Fatalf("expected %d questions, found %d separators", maxStarterQuestions, count)
	}
}
