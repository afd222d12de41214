// Package worker runs the per-report classification state machine: load,
// transcribe, analyze, fuse, decide, route, persist.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicpulse/classifier/internal/analysis"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/queue"
	"github.com/civicpulse/classifier/internal/taxonomy"
	"github.com/civicpulse/classifier/internal/telemetry"
)

// ReportStore is the persistence surface the worker needs.
type ReportStore interface {
	GetByID(ctx context.Context, id string) (*domain.Report, error)
	SetAIStatus(ctx context.Context, id, status string) error
	Update(ctx context.Context, report *domain.Report) error
}

// Transcriber converts a voice recording URL into text.
type Transcriber interface {
	Enabled() bool
	TranscribeFromURL(ctx context.Context, url string) (string, error)
}

// Analyzer fuses the report's modalities into one verdict.
type Analyzer interface {
	AnalyzeAll(ctx context.Context, in analysis.Input) *domain.AnalysisResult
}

// Router assigns a report to the department owning its category.
type Router interface {
	Assign(ctx context.Context, reportID, category string) string
}

// HistoryStore records one audit row per terminal analysis pass.
type HistoryStore interface {
	Create(ctx context.Context, h *domain.AnalysisHistory) error
}

// Handler processes classification jobs.
type Handler struct {
	reports     ReportStore
	transcriber Transcriber
	analyzer    Analyzer
	router      Router
	history     HistoryStore
	telemetry   *telemetry.Provider
	logger      logging.Logger
}

// NewHandler wires the worker's collaborators. telemetry may be nil.
func NewHandler(
	reports ReportStore,
	transcriber Transcriber,
	analyzer Analyzer,
	router Router,
	history HistoryStore,
	tp *telemetry.Provider,
	logger logging.Logger,
) *Handler {
	return &Handler{
		reports:     reports,
		transcriber: transcriber,
		analyzer:    analyzer,
		router:      router,
		history:     history,
		telemetry:   tp,
		logger:      logger,
	}
}

// Process classifies one report. Reprocessing a completed report is a no-op
// so duplicate deliveries never double-write. A returned error sends the job
// back through the queue's retry path.
func (h *Handler) Process(ctx context.Context, job queue.Job) error {
	start := time.Now()

	if h.telemetry != nil {
		var span trace.Span
		ctx, span = h.telemetry.StartSpan(ctx, "classifier.process",
			attribute.String("report_id", job.ReportID),
			attribute.Int("attempt", job.Attempts))
		defer span.End()
	}

	report, err := h.reports.GetByID(ctx, job.ReportID)
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			h.logger.Warn("job references missing report, dropping",
				logging.String("job_id", job.ID),
				logging.String("report_id", job.ReportID))
			return nil
		}
		return fmt.Errorf("load report: %w", err)
	}

	if report.AIStatus == domain.AIStatusCompleted {
		h.logger.Debug("report already classified, skipping",
			logging.String("report_id", report.ID))
		return nil
	}

	if err := h.reports.SetAIStatus(ctx, report.ID, domain.AIStatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}
	report.AIStatus = domain.AIStatusProcessing

	h.transcribeVoice(ctx, report)

	res := h.analyzer.AnalyzeAll(ctx, analysis.Input{
		ImageURL:        report.PhotoURL,
		Text:            report.Description,
		VoiceTranscript: report.VoiceTranscript,
	})

	if res.Safety != nil && res.Safety.Blocks() {
		return h.completeFlagged(ctx, report, res, start)
	}

	return h.completeClassified(ctx, report, res, start)
}

// transcribeVoice is best effort: a transcription failure only means the
// voice modality stays absent.
func (h *Handler) transcribeVoice(ctx context.Context, report *domain.Report) {
	if report.VoiceURL == "" || report.VoiceTranscript != "" {
		return
	}
	if h.transcriber == nil || !h.transcriber.Enabled() {
		return
	}

	transcript, err := h.transcriber.TranscribeFromURL(ctx, report.VoiceURL)
	if err != nil {
		h.logger.Warn("voice transcription failed",
			logging.String("report_id", report.ID),
			logging.Error(err))
		return
	}
	report.VoiceTranscript = transcript
}

// completeFlagged is the safety terminal state: the report is suppressed
// for manual review and never routed to a department.
func (h *Handler) completeFlagged(ctx context.Context, report *domain.Report, res *domain.AnalysisResult, start time.Time) error {
	reason := res.Safety.Reason

	report.Flagged = true
	report.FlaggedReason = reason
	report.Status = domain.StatusFlagged
	report.AIStatus = domain.AIStatusCompleted
	report.AIError = ""
	report.ContentSafetyFlag = true
	report.ContentSafetyReason = reason
	report.NeedsManualReview = true

	report.FinalCategory = taxonomy.Other
	report.AICategory = taxonomy.Other
	report.AICategoryConfidence = 0
	clearPerSourceFields(report)

	report.AIRawResponse = marshalRaw(res)

	if err := h.reports.Update(ctx, report); err != nil {
		return h.failed(ctx, report, fmt.Errorf("persist flagged report: %w", err))
	}

	h.recordHistory(ctx, report, res, domain.DecisionSafety, start)

	if h.telemetry != nil {
		h.telemetry.RecordFlagged()
		h.telemetry.RecordDecision(string(domain.DecisionSafety))
	}

	h.logger.Info("report flagged by safety screen",
		logging.String("report_id", report.ID),
		logging.String("reason", reason))

	return nil
}

// completeClassified writes the full analysis outcome, decides the final
// category, and routes the report to its department.
func (h *Handler) completeClassified(ctx context.Context, report *domain.Report, res *domain.AnalysisResult, start time.Time) error {
	applyPerSourceFields(report, res)

	report.AICategory = res.Best.MainCategory
	report.AICategoryConfidence = res.Best.Confidence
	if res.Consensus != nil {
		report.AICategoryConsensus = res.Consensus.MainCategory
		report.AICategoryConsensusConfidence = res.Consensus.Confidence
	} else {
		report.AICategoryConsensus = ""
		report.AICategoryConsensusConfidence = 0
	}
	report.AIRawResponse = marshalRaw(res)

	finalCategory, source := analysis.Decide(report.UserCategory, res)
	report.FinalCategory = finalCategory
	// The intake placeholder is not a real selection; clear it so readers
	// of the record see exactly one source of truth for the category.
	if source != domain.DecisionUser {
		report.UserCategory = ""
	}

	report.AIStatus = domain.AIStatusCompleted
	report.AIError = ""
	report.AIAttempts++

	report.Flagged = false
	report.FlaggedReason = ""
	report.ContentSafetyFlag = false
	report.ContentSafetyReason = ""
	report.NeedsManualReview = false

	if dept := h.router.Assign(ctx, report.ID, finalCategory); dept != "" {
		report.AssignedDepartment = dept
	}

	if err := h.reports.Update(ctx, report); err != nil {
		return h.failed(ctx, report, fmt.Errorf("persist classified report: %w", err))
	}

	h.recordHistory(ctx, report, res, source, start)

	if h.telemetry != nil {
		h.telemetry.RecordProcessed(finalCategory, time.Since(start))
		h.telemetry.RecordDecision(string(source))
	}

	h.logger.Info("report classified",
		logging.String("report_id", report.ID),
		logging.String("final_category", finalCategory),
		logging.String("decision_source", string(source)),
		logging.Float64("confidence", res.Best.Confidence),
		logging.Duration("elapsed", time.Since(start)))

	return nil
}

// failed marks the report failed before handing the error back to the
// queue's retry machinery. The marking itself is best effort.
func (h *Handler) failed(ctx context.Context, report *domain.Report, cause error) error {
	report.AIStatus = domain.AIStatusFailed
	report.AIError = cause.Error()
	report.AIAttempts++

	if err := h.reports.Update(ctx, report); err != nil {
		h.logger.Error("marking report failed also failed",
			logging.String("report_id", report.ID),
			logging.Error(err))
	}

	if h.telemetry != nil {
		h.telemetry.RecordFailure("persist")
	}

	return cause
}

func (h *Handler) recordHistory(ctx context.Context, report *domain.Report, res *domain.AnalysisResult, source domain.DecisionSource, start time.Time) {
	if h.history == nil {
		return
	}

	row := &domain.AnalysisHistory{
		ReportID:         report.ID,
		BestCategory:     res.Best.MainCategory,
		BestConfidence:   res.Best.Confidence,
		BestSource:       string(res.Best.Source),
		FinalCategory:    report.FinalCategory,
		DecisionSource:   source,
		Flagged:          report.Flagged,
		ProcessingTimeMs: int(time.Since(start).Milliseconds()),
	}
	if res.Image != nil {
		row.ImageCategory = res.Image.MainCategory
		row.ImageConfidence = res.Image.Confidence
	}
	if res.Text != nil {
		row.TextCategory = res.Text.MainCategory
		row.TextConfidence = res.Text.Confidence
	}
	if res.Voice != nil {
		row.VoiceCategory = res.Voice.MainCategory
		row.VoiceConfidence = res.Voice.Confidence
	}
	if res.Consensus != nil {
		row.ConsensusCategory = res.Consensus.MainCategory
		row.ConsensusConfidence = res.Consensus.Confidence
		row.ConsensusVotes = res.Consensus.Votes
	}

	if err := h.history.Create(ctx, row); err != nil {
		h.logger.Warn("saving analysis history failed",
			logging.String("report_id", report.ID),
			logging.Error(err))
	}
}

func applyPerSourceFields(report *domain.Report, res *domain.AnalysisResult) {
	report.AICategoryImage = ""
	report.AICategoryImageConfidence = 0
	report.AICategoryText = ""
	report.AICategoryTextConfidence = 0
	report.AICategoryVoice = ""
	report.AICategoryVoiceConfidence = 0

	if res.Image != nil {
		report.AICategoryImage = res.Image.MainCategory
		report.AICategoryImageConfidence = res.Image.Confidence
	}
	if res.Text != nil {
		report.AICategoryText = res.Text.MainCategory
		report.AICategoryTextConfidence = res.Text.Confidence
	}
	if res.Voice != nil {
		report.AICategoryVoice = res.Voice.MainCategory
		report.AICategoryVoiceConfidence = res.Voice.Confidence
	}
}

func clearPerSourceFields(report *domain.Report) {
	report.AICategoryImage = ""
	report.AICategoryImageConfidence = 0
	report.AICategoryText = ""
	report.AICategoryTextConfidence = 0
	report.AICategoryVoice = ""
	report.AICategoryVoiceConfidence = 0
	report.AICategoryConsensus = ""
	report.AICategoryConsensusConfidence = 0
}

func marshalRaw(res *domain.AnalysisResult) json.RawMessage {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil
	}
	return raw
}
