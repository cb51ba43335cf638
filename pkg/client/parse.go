package client

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/menta2k/image-annotator/pkg/types"
)

var (
	reBlockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment   = regexp.MustCompile(`(?m)//.*$`)
	reTrailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// FallbackTag marks results synthesized when the model answer was unusable.
const FallbackTag = "fallback"

func fallback(label, description string, tags ...string) *types.AnalysisResult {
	return &types.AnalysisResult{
		Primary: types.Primary{
			Label:      label,
			Confidence: 0.1,
			Box:        types.Box{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
		},
		Description: description,
		Tags:        append(tags, FallbackTag),
	}
}

// ParseAnalysis turns a model answer into a result. Answers that are not
// JSON never fail; they yield a result tagged FallbackTag.
func ParseAnalysis(raw string) *types.AnalysisResult {
	raw = SanitizeJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return fallback("unclear image", "Model returned non-JSON response", "unclear", "non-json")
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return fallback("parse error", "Failed to parse model response", "parse-error")
	}
	if result.Primary.Label == "" && result.Primary.Box.W == 0 && result.Primary.Box.H == 0 {
		return fallback("no object", "Model returned an empty answer", "empty")
	}
	return &result
}

// SanitizeJSON strips code fences, comments and trailing commas and keeps
// the outermost object.
func SanitizeJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailingComma.ReplaceAllString(raw, "$1")

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}
