package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaVersion identifies the result payload contract.
const SchemaVersion = "1.0.0"

// Personas is the closed set of question-asking viewpoints.
var Personas = []string{"kevin", "mark", "lori", "barbara", "robert"}

// Result is the typed analysis payload. Every field survives serialization
// with a value: defaulting replaces absent fields with empty ones so the
// stored JSON never has missing keys.
type Result struct {
	OneLiner           string           `json:"one_liner"`
	Themes             []string         `json:"themes"`
	Strengths          []string         `json:"strengths"`
	Risks              []string         `json:"risks"`
	QuestionsByPersona PersonaQuestions `json:"questions_by_persona"`
	Evidence           []EvidenceItem   `json:"evidence"`
	Meta               Meta             `json:"meta"`
}

// PersonaQuestions holds starter questions partitioned by persona.
type PersonaQuestions struct {
	Kevin   []string `json:"kevin"`
	Mark    []string `json:"mark"`
	Lori    []string `json:"lori"`
	Barbara []string `json:"barbara"`
	Robert  []string `json:"robert"`
}

// EvidenceItem grounds a topic in 1-based page numbers; pages may be empty.
type EvidenceItem struct {
	Topic string `json:"topic"`
	Pages []int  `json:"pages"`
}

// Meta carries locally computed facts about the extraction run.
type Meta struct {
	ModelUsed     string `json:"model_used"`
	PagesCount    int    `json:"pages_count"`
	ProcessedAt   string `json:"processed_at"`
	SchemaVersion string `json:"schema_version"`
}

// For returns the questions for the given persona, or nil if unknown.
func (q PersonaQuestions) For(persona string) []string {
	switch strings.ToLower(strings.TrimSpace(persona)) {
	case "kevin":
		return q.Kevin
	case "mark":
		return q.Mark
	case "lori":
		return q.Lori
	case "barbara":
		return q.Barbara
	case "robert":
		return q.Robert
	default:
		return nil
	}
}

// ApplyDefaults replaces nil sequences with empty ones so that marshaled
// output always contains every field.
func (r *Result) ApplyDefaults() {
	if r.Themes == nil {
		r.Themes = []string{}
	}
	if r.Strengths == nil {
		r.Strengths = []string{}
	}
	if r.Risks == nil {
		r.Risks = []string{}
	}
	if r.QuestionsByPersona.Kevin == nil {
		r.QuestionsByPersona.Kevin = []string{}
	}
	if r.QuestionsByPersona.Mark == nil {
		r.QuestionsByPersona.Mark = []string{}
	}
	if r.QuestionsByPersona.Lori == nil {
		r.QuestionsByPersona.Lori = []string{}
	}
	if r.QuestionsByPersona.Barbara == nil {
		r.QuestionsByPersona.Barbara = []string{}
	}
	if r.QuestionsByPersona.Robert == nil {
		r.QuestionsByPersona.Robert = []string{}
	}
	if r.Evidence == nil {
		r.Evidence = []EvidenceItem{}
	}
	for i := range r.Evidence {
		if r.Evidence[i].Pages == nil {
			r.Evidence[i].Pages = []int{}
		}
	}
	if r.Meta.SchemaVersion == "" {
		r.Meta.SchemaVersion = SchemaVersion
	}
}

// ParseResult decodes a raw model response body into a Result, stripping
// markdown wrapping artifacts first. Empty or invalid JSON is reported as
// ErrMalformedResponse.
func ParseResult(raw string) (Result, error) {
	cleaned := StripWrapping(raw)
	if cleaned == "" {
		return Result{}, fmt.Errorf("%w: empty response body", ErrMalformedResponse)
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	result.ApplyDefaults()
	return result, nil
}

// StripWrapping removes code-fence markers and a leading "json" language tag
// that models sometimes emit around structured output.
func StripWrapping(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "`")
	cleaned = strings.TrimLeft(cleaned, " \t\r\n")
	if len(cleaned) >= 4 && strings.EqualFold(cleaned[:4], "json") {
		cleaned = strings.TrimLeft(cleaned[4:], " \t\r\n")
	}
	return strings.TrimSpace(cleaned)
}
