package domain

import (
	"strings"
	"time"
)

// Source identifies the evidence modality behind a classification.
type Source string

// Classification sources.
const (
	SourceImage    Source = "image"
	SourceText     Source = "text"
	SourceVoice    Source = "voice"
	SourceKeyword  Source = "keyword-fallback"
	SourcePath     Source = "path-analysis"
	SourceFallback Source = "default-image-fallback"
	SourceNone     Source = "none"
)

// ClassificationResult is the normalized output of a single modality
// classification. MainCategory is always a valid taxonomy name and
// Confidence is always within [0,1] once the result leaves its producer.
type ClassificationResult struct {
	Subcategory  string  `json:"subcategory"`
	MainCategory string  `json:"main_category"`
	Confidence   float64 `json:"confidence"`
	// IsPhoto is false when the image is not a genuine photograph
	// (artwork, screenshot). Only meaningful for image results.
	IsPhoto     bool   `json:"is_photo"`
	Explanation string `json:"explanation,omitempty"`
	Source      Source `json:"source"`
	Raw         string `json:"raw,omitempty"`
}

// Candidate annotates a ClassificationResult with its static source weight
// and the resulting ranking score. Never persisted.
type Candidate struct {
	ClassificationResult
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"`
}

// ConsensusResult is present only when two or more modalities agree on the
// same category.
type ConsensusResult struct {
	MainCategory string   `json:"main_category"`
	Confidence   float64  `json:"confidence"`
	Sources      []Source `json:"sources"`
	Votes        int      `json:"votes"`
}

// BestResult is the single winning pick of the consensus engine.
type BestResult struct {
	MainCategory string  `json:"main_category"`
	Confidence   float64 `json:"confidence"`
	Source       Source  `json:"source"`
	Explanation  string  `json:"explanation,omitempty"`
}

// SafetyGateConfidence is the minimum confidence required before an
// inappropriate verdict is allowed to flag a report. The high bar keeps
// false positives from suppressing real reports.
const SafetyGateConfidence = 0.8

// SafetyResult is the outcome of the image appropriateness screen.
type SafetyResult struct {
	IsAppropriate bool    `json:"is_appropriate"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason,omitempty"`
}

// Blocks reports whether this safety result should short-circuit the
// pipeline into the flagged terminal state.
func (s SafetyResult) Blocks() bool {
	return !s.IsAppropriate && s.Confidence >= SafetyGateConfidence
}

// AnalysisResult is the aggregate output of the consensus engine. Per-source
// results are nil when that modality was absent from the input.
type AnalysisResult struct {
	Image     *ClassificationResult `json:"image"`
	Text      *ClassificationResult `json:"text"`
	Voice     *ClassificationResult `json:"voice"`
	Best      BestResult            `json:"best"`
	Consensus *ConsensusResult      `json:"consensus"`
	Safety    *SafetyResult         `json:"safety"`
	// Candidates is the ranked scoring table, kept for the audit payload.
	Candidates []Candidate `json:"candidates,omitempty"`
}

// DecisionSource names the decision-ladder rung that produced the final
// category.
type DecisionSource string

// Decision ladder rungs, in trust order.
const (
	DecisionUser      DecisionSource = "user-override"
	DecisionImageHigh DecisionSource = "image-high"
	DecisionConsensus DecisionSource = "consensus"
	DecisionBest      DecisionSource = "best"
	DecisionImageLow  DecisionSource = "image-low"
	DecisionText      DecisionSource = "text"
	DecisionVoice     DecisionSource = "voice"
	DecisionDefault   DecisionSource = "default"
	DecisionSafety    DecisionSource = "safety-gate"
)

// AnalysisHistory is one audit row per terminal analysis pass.
type AnalysisHistory struct {
	ID                  int64          `db:"id"                   json:"id"`
	ReportID            string         `db:"report_id"            json:"report_id"`
	ImageCategory       string         `db:"image_category"       json:"image_category"`
	ImageConfidence     float64        `db:"image_confidence"     json:"image_confidence"`
	TextCategory        string         `db:"text_category"        json:"text_category"`
	TextConfidence      float64        `db:"text_confidence"      json:"text_confidence"`
	VoiceCategory       string         `db:"voice_category"       json:"voice_category"`
	VoiceConfidence     float64        `db:"voice_confidence"     json:"voice_confidence"`
	BestCategory        string         `db:"best_category"        json:"best_category"`
	BestConfidence      float64        `db:"best_confidence"      json:"best_confidence"`
	BestSource          string         `db:"best_source"          json:"best_source"`
	ConsensusCategory   string         `db:"consensus_category"   json:"consensus_category"`
	ConsensusConfidence float64        `db:"consensus_confidence" json:"consensus_confidence"`
	ConsensusVotes      int            `db:"consensus_votes"      json:"consensus_votes"`
	FinalCategory       string         `db:"final_category"       json:"final_category"`
	DecisionSource      DecisionSource `db:"decision_source"      json:"decision_source"`
	Flagged             bool           `db:"flagged"              json:"flagged"`
	ProcessingTimeMs    int            `db:"processing_time_ms"   json:"processing_time_ms"`
	CreatedAt           time.Time      `db:"created_at"           json:"created_at"`
}

// Clamp01 clamps a confidence value to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// NormalizeUserCategory collapses the intake placeholder and blank values to
// the empty string so callers can test for a real override.
func NormalizeUserCategory(userCategory string) string {
	trimmed := strings.TrimSpace(userCategory)
	if trimmed == "" || strings.EqualFold(trimmed, UserCategoryPlaceholder) {
		return ""
	}
	return trimmed
}
