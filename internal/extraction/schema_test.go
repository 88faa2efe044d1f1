package extraction

import (
	"errors"
	"strings"
	"testing"
)

func TestParseResultDefaults(t *testing.T) {
	raw := `{"one_liner":"A marketplace for vintage synths"}`

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("expected sparse JSON to parse, got error: %v", err)
	}
	if result.OneLiner != "A marketplace for vintage synths" {
		t.Fatalf("unexpected one_liner: %q", result.OneLiner)
	}
	if result.Themes == nil || result.Strengths == nil || result.Risks == nil || result.Evidence == nil {
		t.Fatalf("expected nil slices to be defaulted to empty, got %+v", result)
	}
	for _, persona := range Personas {
		if result.QuestionsByPersona.For(persona) == nil {
			t.Fatalf("expected persona %q questions defaulted to empty slice", persona)
		}
	}
}

func TestParseResultStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"one_liner\":\"fenced\",\"themes\":[\"ai\"]}\n```"

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("expected fenced JSON to parse, got error: %v", err)
	}
	if result.OneLiner != "fenced" {
		t.Fatalf("unexpected one_liner: %q", result.OneLiner)
	}
	if len(result.Themes) != 1 || result.Themes[0] != "ai" {
		t.Fatalf("unexpected themes: %v", result.Themes)
	}
}

func TestParseResultLeadingJSONToken(t *testing.T) {
	raw := "json\n{\"one_liner\":\"bare token\"}"

	result, err := ParseResult(raw)
	if err != nil {
		t.Fatalf("expected leading json token to be stripped, got error: %v", err)
	}
	if result.OneLiner != "bare token" {
		t.Fatalf("unexpected one_liner: %q", result.OneLiner)
	}
}

func TestParseResultMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "prose", raw: "I could not analyze this document."},
		{name: "truncated", raw: `{"one_liner":"cut off`},
		{name: "array", raw: `["not","an","object"]`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResult(tt.raw)
			if err == nil {
				t.Fatalf("expected parse error for %q", tt.raw)
			}
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got: %v", err)
			}
		})
	}
}

func TestPersonaQuestionsFor(t *testing.T) {
	q := PersonaQuestions{
		Kevin: []string{"What are your royalties?"},
		Lori:  []string{"Is this a hero product?"},
	}

	if got := q.For("kevin"); len(got) != 1 || !strings.Contains(got[0], "royalties") {
		t.Fatalf("unexpected kevin questions: %v", got)
	}
	if got := q.For("lori"); len(got) != 1 {
		t.Fatalf("unexpected lori questions: %v", got)
	}
	if got := q.For("unknown"); got != nil {
		t.Fatalf("expected nil for unknown persona, got %v", got)
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "payload", err: ErrPayloadTooLarge, want: "PayloadTooLarge"},
		{name: "malformed wrapped", err: errWrap(ErrMalformedResponse), want: "MalformedResponse"},
		{name: "upstream wrapped", err: errWrap(ErrUpstreamUnavailable), want: "UpstreamUnavailable"},
		{name: "other", err: errors.New("boom"), want: "Internal"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Kind(tt.err); got != tt.want {
				t.Fatalf("Kind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func errWrap(base error) error {
	return errors.Join(errors.New("context"), base)
}
