// Package domain contains the core types shared across the service.
package domain

import (
	"encoding/json"
	"errors"
	"time"
)

// AI processing status values for a report.
const (
	AIStatusPending    = "pending"
	AIStatusProcessing = "processing"
	AIStatusCompleted  = "completed"
	AIStatusFailed     = "failed"
)

// StatusFlagged is the report status assigned when the safety gate trips.
const StatusFlagged = "flagged"

// UserCategoryPlaceholder is the sentinel value the intake form stores when
// the citizen made no explicit category selection. It must never be treated
// as a real override.
const UserCategoryPlaceholder = "citizen"

// Sentinel errors.
var (
	// ErrReportNotFound is returned when a report id does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrNotFound is returned by lookups with no matching row.
	ErrNotFound = errors.New("not found")
	// ErrModelUnavailable is returned when the remote model cannot be reached
	// or was never initialized.
	ErrModelUnavailable = errors.New("remote model unavailable")
)

// Report is the durable record this pipeline classifies. Only the AI and
// safety fields are owned here; intake and resolution fields belong to the
// reporting API.
type Report struct {
	ID          string `db:"id"          json:"id"`
	Status      string `db:"status"      json:"status"`
	Description string `db:"description" json:"description"`
	PhotoURL    string `db:"photo_url"   json:"photo_url"`
	VoiceURL    string `db:"voice_url"   json:"voice_url"`

	VoiceTranscript string `db:"voice_transcript" json:"voice_transcript"`
	UserCategory    string `db:"user_category"    json:"user_category"`

	AIStatus             string  `db:"ai_status"               json:"ai_status"`
	AICategory           string  `db:"ai_category"             json:"ai_category"`
	AICategoryConfidence float64 `db:"ai_category_confidence"  json:"ai_category_confidence"`

	AICategoryImage           string  `db:"ai_category_image"            json:"ai_category_image"`
	AICategoryImageConfidence float64 `db:"ai_category_image_confidence" json:"ai_category_image_confidence"`
	AICategoryText            string  `db:"ai_category_text"             json:"ai_category_text"`
	AICategoryTextConfidence  float64 `db:"ai_category_text_confidence"  json:"ai_category_text_confidence"`
	AICategoryVoice           string  `db:"ai_category_voice"            json:"ai_category_voice"`
	AICategoryVoiceConfidence float64 `db:"ai_category_voice_confidence" json:"ai_category_voice_confidence"`

	AICategoryConsensus           string  `db:"ai_category_consensus"            json:"ai_category_consensus"`
	AICategoryConsensusConfidence float64 `db:"ai_category_consensus_confidence" json:"ai_category_consensus_confidence"`

	FinalCategory string `db:"final_category" json:"final_category"`

	ContentSafetyFlag   bool   `db:"content_safety_flag"   json:"content_safety_flag"`
	ContentSafetyReason string `db:"content_safety_reason" json:"content_safety_reason"`
	NeedsManualReview   bool   `db:"needs_manual_review"   json:"needs_manual_review"`
	Flagged             bool   `db:"flagged"               json:"flagged"`
	FlaggedReason       string `db:"flagged_reason"        json:"flagged_reason"`

	AIAttempts    int             `db:"ai_attempts"     json:"ai_attempts"`
	AIError       string          `db:"ai_error"        json:"ai_error"`
	AIRawResponse json.RawMessage `db:"ai_raw_response" json:"ai_raw_response,omitempty"`

	AssignedDepartment string `db:"assigned_department" json:"assigned_department"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasUserOverride reports whether the citizen or an admin explicitly selected
// a category. The intake placeholder counts as no selection.
func (r *Report) HasUserOverride() bool {
	return NormalizeUserCategory(r.UserCategory) != ""
}
