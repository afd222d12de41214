// Package analysis fuses per-modality classifications into a single ranked
// verdict with an optional cross-modality consensus.
package analysis

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Weight adjustments applied before ranking. Non-photos are nearly
// discarded; a low-confidence image loses half its weight.
const (
	nonPhotoWeightPenalty      = 0.2
	lowConfidenceWeightPenalty = 0.5

	// Discount applied to the keyword fallback confidence when it
	// replaces an Other-or-empty best pick.
	keywordFallbackDiscount = 0.8
)

// ModalityClassifier is the per-modality classification surface, implemented
// by the gemini analyzer.
type ModalityClassifier interface {
	// ClassifyImage screens and classifies the image at the URL. A blocked
	// safety verdict comes back with an empty classification.
	ClassifyImage(ctx context.Context, imageURL string) (domain.ClassificationResult, domain.SafetyResult, error)
	// ClassifyText classifies a description or voice transcript.
	ClassifyText(ctx context.Context, text string) (domain.ClassificationResult, error)
}

// Input is the evidence available for one report. Empty fields mean the
// modality is absent.
type Input struct {
	ImageURL        string
	Text            string
	VoiceTranscript string
}

// Engine runs the modalities concurrently and fuses their results.
type Engine struct {
	modalities ModalityClassifier
	keywords   *classifier.KeywordClassifier
	cfg        config.AnalysisConfig
	logger     logging.Logger
}

// NewEngine builds an engine with the given modality weights.
func NewEngine(
	modalities ModalityClassifier,
	keywords *classifier.KeywordClassifier,
	cfg config.AnalysisConfig,
	logger logging.Logger,
) *Engine {
	return &Engine{
		modalities: modalities,
		keywords:   keywords,
		cfg:        cfg,
		logger:     logger,
	}
}

// AnalyzeAll classifies every present modality in parallel and fuses the
// results. A failed modality contributes a zero-confidence Other instead of
// failing the whole analysis.
func (e *Engine) AnalyzeAll(ctx context.Context, in Input) *domain.AnalysisResult {
	var (
		wg       sync.WaitGroup
		imageRes *domain.ClassificationResult
		textRes  *domain.ClassificationResult
		voiceRes *domain.ClassificationResult
		safety   *domain.SafetyResult
	)

	if in.ImageURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, saf, err := e.modalities.ClassifyImage(ctx, in.ImageURL)
			if err != nil {
				e.logger.Warn("image analysis failed", logging.Error(err))
				res = neutralResult(domain.SourceImage)
				saf = domain.SafetyResult{IsAppropriate: true, Confidence: 1.0}
			}
			res.Source = domain.SourceImage
			imageRes = &res
			safety = &saf
		}()
	}

	if in.Text != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.modalities.ClassifyText(ctx, in.Text)
			if err != nil {
				e.logger.Warn("text analysis failed", logging.Error(err))
				res = neutralResult(domain.SourceText)
			}
			res.Source = domain.SourceText
			textRes = &res
		}()
	}

	if in.VoiceTranscript != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.modalities.ClassifyText(ctx, in.VoiceTranscript)
			if err != nil {
				e.logger.Warn("voice analysis failed", logging.Error(err))
				res = neutralResult(domain.SourceVoice)
			}
			res.Source = domain.SourceVoice
			voiceRes = &res
		}()
	}

	wg.Wait()

	candidates := e.buildCandidates(imageRes, textRes, voiceRes)
	best := pickBest(candidates)
	consensus := e.findConsensus(candidates)

	// A confident non-Other image verdict overrules the score ranking.
	if imageRes != nil &&
		imageRes.Confidence >= e.cfg.ImageMinConfidence &&
		imageRes.MainCategory != taxonomy.Other {
		for _, c := range candidates {
			if c.Source == domain.SourceImage {
				best = domain.BestResult{
					MainCategory: c.MainCategory,
					Confidence:   c.Confidence,
					Source:       c.Source,
					Explanation:  c.Explanation,
				}
				break
			}
		}
	}

	// Last resort: keyword-classify the description when the ranking
	// produced nothing better than Other.
	if (best.MainCategory == "" || best.MainCategory == taxonomy.Other) && in.Text != "" {
		if kw := e.keywords.Classify(in.Text); kw.MainCategory != taxonomy.Other {
			confidence := kw.Confidence * keywordFallbackDiscount
			if best.Confidence > confidence {
				confidence = best.Confidence
			}
			best = domain.BestResult{
				MainCategory: kw.MainCategory,
				Confidence:   confidence,
				Source:       domain.SourceKeyword,
			}
		}
	}

	if best.MainCategory == "" {
		best.MainCategory = taxonomy.Other
	}
	best.Confidence = domain.Clamp01(best.Confidence)

	return &domain.AnalysisResult{
		Image:      imageRes,
		Text:       textRes,
		Voice:      voiceRes,
		Best:       best,
		Consensus:  consensus,
		Safety:     safety,
		Candidates: candidates,
	}
}

func neutralResult(source domain.Source) domain.ClassificationResult {
	return domain.ClassificationResult{
		Subcategory:  "other",
		MainCategory: taxonomy.Other,
		Confidence:   0,
		IsPhoto:      true,
		Source:       source,
	}
}

func (e *Engine) buildCandidates(imageRes, textRes, voiceRes *domain.ClassificationResult) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, 3)

	if imageRes != nil {
		weight := e.cfg.ImageWeight
		if !imageRes.IsPhoto {
			weight *= nonPhotoWeightPenalty
		}
		if imageRes.Confidence < e.cfg.ImageMinConfidence {
			weight *= lowConfidenceWeightPenalty
		}
		candidates = append(candidates, newCandidate(*imageRes, weight))
	}
	if textRes != nil {
		candidates = append(candidates, newCandidate(*textRes, e.cfg.TextWeight))
	}
	if voiceRes != nil {
		candidates = append(candidates, newCandidate(*voiceRes, e.cfg.VoiceWeight))
	}

	// Stable sort keeps the image, text, voice order on equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	return candidates
}

func newCandidate(res domain.ClassificationResult, weight float64) domain.Candidate {
	if res.MainCategory == "" {
		res.MainCategory = taxonomy.MapToStandard(res.Subcategory)
	}
	return domain.Candidate{
		ClassificationResult: res,
		Weight:               weight,
		Score:                res.Confidence * weight,
	}
}

func pickBest(candidates []domain.Candidate) domain.BestResult {
	if len(candidates) == 0 {
		return domain.BestResult{MainCategory: taxonomy.Other, Source: domain.SourceNone}
	}
	top := candidates[0]
	return domain.BestResult{
		MainCategory: top.MainCategory,
		Confidence:   top.Confidence,
		Source:       top.Source,
		Explanation:  top.Explanation,
	}
}

// findConsensus looks for a category at least two modalities agree on.
// Ties break on vote count, then average confidence, then category name,
// so the outcome never depends on map iteration order.
func (e *Engine) findConsensus(candidates []domain.Candidate) *domain.ConsensusResult {
	type tally struct {
		category        string
		votes           int
		totalConfidence float64
		sources         []domain.Source
	}

	byCategory := make(map[string]*tally)
	order := make([]string, 0, len(candidates))

	for _, c := range candidates {
		key := strings.ToLower(c.MainCategory)
		t, ok := byCategory[key]
		if !ok {
			t = &tally{category: c.MainCategory}
			byCategory[key] = t
			order = append(order, key)
		}
		t.votes++
		t.totalConfidence += c.Confidence
		t.sources = append(t.sources, c.Source)
	}

	tallies := make([]*tally, 0, len(order))
	for _, key := range order {
		if t := byCategory[key]; t.votes >= 2 {
			tallies = append(tallies, t)
		}
	}
	if len(tallies) == 0 {
		return nil
	}

	sort.Slice(tallies, func(i, j int) bool {
		if tallies[i].votes != tallies[j].votes {
			return tallies[i].votes > tallies[j].votes
		}
		avgI := tallies[i].totalConfidence / float64(tallies[i].votes)
		avgJ := tallies[j].totalConfidence / float64(tallies[j].votes)
		if avgI != avgJ {
			return avgI > avgJ
		}
		return tallies[i].category < tallies[j].category
	})

	winner := tallies[0]
	avg := winner.totalConfidence / float64(winner.votes)

	return &domain.ConsensusResult{
		MainCategory: winner.category,
		Confidence:   domain.Clamp01(avg + e.cfg.ConsensusBoost),
		Sources:      winner.sources,
		Votes:        winner.votes,
	}
}
