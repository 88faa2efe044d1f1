package extraction

import _ "embed"

//go:embed prompts/analyze_v1.txt
var analyzePromptV1 string

// AnalyzePrompt returns the instruction prompt for deck analysis.
func AnalyzePrompt() string {
	return analyzePromptV1
}
