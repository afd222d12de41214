package gemini

import (
	"context"
	"math"

	"github.com/google/generative-ai-go/genai"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Image post-processing constants. Non-photos lose most of their
// confidence; a confident non-Other call earns a small boost.
const (
	nonPhotoPenalty     = 0.3
	confidentImageBoost = 0.1
)

// Analyzer implements the per-modality classification surface used by the
// analysis engine. A nil client degrades every call to the local keyword
// and path classifiers.
type Analyzer struct {
	client             *Client
	fetcher            *ImageFetcher
	keywords           *classifier.KeywordClassifier
	minImageConfidence float64
	logger             logging.Logger
}

// NewAnalyzer wires the model client to its local fallbacks. client may be
// nil when no remote model is available.
func NewAnalyzer(
	client *Client,
	fetcher *ImageFetcher,
	keywords *classifier.KeywordClassifier,
	minImageConfidence float64,
	logger logging.Logger,
) *Analyzer {
	return &Analyzer{
		client:             client,
		fetcher:            fetcher,
		keywords:           keywords,
		minImageConfidence: minImageConfidence,
		logger:             logger,
	}
}

// Available reports whether a remote model was selected at startup.
func (a *Analyzer) Available() bool { return a.client != nil }

// ClassifyImage screens the image for appropriateness, then classifies it.
// Model failures never surface as errors: classification degrades to path
// analysis and a failed fetch yields a zero-confidence Other. When the
// safety screen blocks, the classification result is empty and the caller
// must consult the safety verdict.
func (a *Analyzer) ClassifyImage(ctx context.Context, imageURL string) (domain.ClassificationResult, domain.SafetyResult, error) {
	passSafety := domain.SafetyResult{IsAppropriate: true, Confidence: 1.0}

	if !a.Available() {
		return classifier.ClassifyImagePath(imageURL), passSafety, nil
	}

	data, err := a.fetcher.Fetch(ctx, imageURL)
	if err != nil {
		a.logger.Warn("image fetch failed",
			logging.String("url", imageURL),
			logging.Error(err))
		return domain.ClassificationResult{
			Subcategory:  "other",
			MainCategory: taxonomy.Other,
			Confidence:   0,
			IsPhoto:      true,
			Source:       domain.SourceImage,
		}, passSafety, nil
	}

	safety := a.checkSafety(ctx, data)
	if safety.Blocks() {
		a.logger.Warn("image failed safety screen",
			logging.String("url", imageURL),
			logging.String("reason", safety.Reason))
		return domain.ClassificationResult{Source: domain.SourceImage}, safety, nil
	}

	raw, err := a.client.generate(ctx,
		&genai.Blob{MIMEType: "image/jpeg", Data: data},
		genai.Text(imagePrompt()),
	)
	if err != nil {
		a.logger.Warn("image classification failed, using path analysis",
			logging.Error(err))
		return classifier.ClassifyImagePath(imageURL), safety, nil
	}

	res := parseCategoryResponse(raw, a.keywords)
	res.Source = domain.SourceImage
	if !res.IsPhoto {
		res.Confidence *= nonPhotoPenalty
	}
	if res.MainCategory != taxonomy.Other && res.Confidence > a.minImageConfidence {
		res.Confidence = math.Min(1.0, res.Confidence+confidentImageBoost)
	}

	return res, safety, nil
}

// ClassifyText classifies a free-text description or voice transcript.
// Falls back to keyword classification when the model is unavailable or
// the call fails.
func (a *Analyzer) ClassifyText(ctx context.Context, text string) (domain.ClassificationResult, error) {
	if !a.Available() {
		return a.keywords.Classify(text), nil
	}

	raw, err := a.client.generate(ctx, genai.Text(textPrompt(text)))
	if err != nil {
		a.logger.Warn("text classification failed, using keywords",
			logging.Error(err))
		return a.keywords.Classify(text), nil
	}

	return parseCategoryResponse(raw, a.keywords), nil
}

// checkSafety is fail-open: no verdict, an unparseable verdict, or a call
// failure all pass, with a confidence that records how weak the pass is.
func (a *Analyzer) checkSafety(ctx context.Context, imageData []byte) domain.SafetyResult {
	raw, err := a.client.generate(ctx,
		&genai.Blob{MIMEType: "image/jpeg", Data: imageData},
		genai.Text(safetyPrompt()),
	)
	if err != nil {
		a.logger.Warn("safety check failed", logging.Error(err))
		return domain.SafetyResult{IsAppropriate: true, Confidence: 0.0, Reason: "Safety check failed"}
	}

	return parseSafetyResponse(raw)
}
