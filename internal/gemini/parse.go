package gemini

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Default confidence when the model omits or garbles the confidence field.
const defaultParsedConfidence = 0.5

var (
	leadingFencePattern = regexp.MustCompile("(?s)^\\s*```.*?\\n")

	// Loose "Category: X, Confidence: 0.8" prose, the second parse tier.
	categoryLinePattern = regexp.MustCompile(`(?i)Category[:\s]*([A-Za-z0-9 _-]+)[,;\s]*Confidence[:\s]*([0-9.]+)`)
)

// stripCodeFences removes a leading markdown fence line and a trailing fence.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFencePattern.ReplaceAllString(s, "")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONObject finds the outermost {...} span and unmarshals it into v.
// Falls back to treating the whole string as JSON.
func extractJSONObject(raw string, v any) bool {
	s := stripCodeFences(raw)

	first := strings.Index(s, "{")
	last := strings.LastIndex(s, "}")
	if first != -1 && last > first {
		if err := json.Unmarshal([]byte(s[first:last+1]), v); err == nil {
			return true
		}
	}

	return json.Unmarshal([]byte(s), v) == nil
}

// categoryPayload accepts the field aliases models actually emit.
type categoryPayload struct {
	Subcategory  string   `json:"subcategory"`
	Category     string   `json:"category"`
	MainCategory string   `json:"mainCategory"`
	Main         string   `json:"main"`
	Confidence   *float64 `json:"confidence"`
	IsPhoto      *bool    `json:"isPhoto"`
	Explanation  string   `json:"explanation"`
}

// parseCategoryResponse normalizes raw model output into a classification.
// Three tiers: a JSON object, a loose "Category: X, Confidence: Y" line,
// and finally keyword classification of the whole response text. The
// returned main category is always a valid taxonomy name.
func parseCategoryResponse(raw string, keywords *classifier.KeywordClassifier) domain.ClassificationResult {
	trimmed := strings.TrimSpace(raw)

	var p categoryPayload
	if extractJSONObject(trimmed, &p) && (p.MainCategory != "" || p.Category != "" || p.Subcategory != "") {
		sub := p.Subcategory
		if sub == "" {
			sub = p.Category
		}
		main := p.MainCategory
		if main == "" {
			main = p.Main
		}
		if main == "" || !taxonomy.IsValid(main) {
			main = taxonomy.MapToStandard(sub)
		}

		confidence := defaultParsedConfidence
		if p.Confidence != nil {
			confidence = domain.Clamp01(*p.Confidence)
		}
		isPhoto := true
		if p.IsPhoto != nil {
			isPhoto = *p.IsPhoto
		}

		return domain.ClassificationResult{
			Subcategory:  sub,
			MainCategory: main,
			Confidence:   confidence,
			IsPhoto:      isPhoto,
			Explanation:  p.Explanation,
			Raw:          trimmed,
		}
	}

	if m := categoryLinePattern.FindStringSubmatch(trimmed); m != nil {
		sub := strings.TrimSpace(m[1])
		confidence := defaultParsedConfidence
		if f, err := strconv.ParseFloat(m[2], 64); err == nil {
			confidence = domain.Clamp01(f)
		}
		return domain.ClassificationResult{
			Subcategory:  sub,
			MainCategory: taxonomy.MapToStandard(sub),
			Confidence:   confidence,
			IsPhoto:      true,
			Raw:          trimmed,
		}
	}

	res := keywords.Classify(trimmed)
	res.IsPhoto = true
	res.Raw = trimmed
	return res
}

type safetyPayload struct {
	IsAppropriate *bool   `json:"isAppropriate"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// Safety parse fallback confidences. A missing verdict passes at half
// confidence so it can never trip the flagging gate.
const (
	safetyDefaultConfidence     = 0.8
	safetyUnparseableConfidence = 0.5
)

func parseSafetyResponse(raw string) domain.SafetyResult {
	var p safetyPayload
	if extractJSONObject(strings.TrimSpace(raw), &p) && p.IsAppropriate != nil {
		confidence := p.Confidence
		if confidence == 0 {
			confidence = safetyDefaultConfidence
		}
		return domain.SafetyResult{
			IsAppropriate: *p.IsAppropriate,
			Confidence:    confidence,
			Reason:        p.Reason,
		}
	}

	return domain.SafetyResult{IsAppropriate: true, Confidence: safetyUnparseableConfidence}
}
