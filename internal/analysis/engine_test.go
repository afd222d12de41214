package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/config"
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

type stubModalities struct {
	image    domain.ClassificationResult
	safety   domain.SafetyResult
	imageErr error

	text    map[string]domain.ClassificationResult
	textErr error
}

func (s *stubModalities) ClassifyImage(_ context.Context, _ string) (domain.ClassificationResult, domain.SafetyResult, error) {
	return s.image, s.safety, s.imageErr
}

func (s *stubModalities) ClassifyText(_ context.Context, text string) (domain.ClassificationResult, error) {
	if s.textErr != nil {
		return domain.ClassificationResult{}, s.textErr
	}
	return s.text[text], nil
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		ImageWeight:        4.0,
		TextWeight:         1.5,
		VoiceWeight:        1.2,
		ConsensusBoost:     0.15,
		ImageMinConfidence: 0.6,
	}
}

func newTestEngine(m ModalityClassifier) *Engine {
	return NewEngine(m, classifier.NewKeywordClassifier(logging.NewNop()), testAnalysisConfig(), logging.NewNop())
}

func passSafety() domain.SafetyResult {
	return domain.SafetyResult{IsAppropriate: true, Confidence: 1.0}
}

func TestAnalyzeAllImageDominates(t *testing.T) {
	m := &stubModalities{
		image:  domain.ClassificationResult{Subcategory: "pothole", MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.8, IsPhoto: true},
		safety: passSafety(),
		text: map[string]domain.ClassificationResult{
			"garbage everywhere": {Subcategory: "garbage", MainCategory: taxonomy.WasteManagement, Confidence: 0.9, IsPhoto: true},
			"trash piling up":    {Subcategory: "trash", MainCategory: taxonomy.WasteManagement, Confidence: 0.7, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{
		ImageURL:        "https://example.com/p.jpg",
		Text:            "garbage everywhere",
		VoiceTranscript: "trash piling up",
	})

	require.NotNil(t, res.Image)
	require.NotNil(t, res.Text)
	require.NotNil(t, res.Voice)
	require.Len(t, res.Candidates, 3)

	// Image score 0.8*4.0 = 3.2 outranks text 1.35 and voice 0.84.
	assert.Equal(t, domain.SourceImage, res.Candidates[0].Source)
	assert.InDelta(t, 3.2, res.Candidates[0].Score, 1e-9)

	assert.Equal(t, taxonomy.RoadInfrastructure, res.Best.MainCategory)
	assert.Equal(t, domain.SourceImage, res.Best.Source)
	assert.InDelta(t, 0.8, res.Best.Confidence, 1e-9)

	// Text and voice agree: consensus with boost.
	require.NotNil(t, res.Consensus)
	assert.Equal(t, taxonomy.WasteManagement, res.Consensus.MainCategory)
	assert.Equal(t, 2, res.Consensus.Votes)
	assert.InDelta(t, 0.95, res.Consensus.Confidence, 1e-9)
	assert.Equal(t, []domain.Source{domain.SourceText, domain.SourceVoice}, res.Consensus.Sources)
}

func TestAnalyzeAllConsensusBoost(t *testing.T) {
	m := &stubModalities{
		text: map[string]domain.ClassificationResult{
			"water leak on the street": {Subcategory: "water leak", MainCategory: taxonomy.WaterSewerage, Confidence: 0.6, IsPhoto: true},
			"pipe is leaking":          {Subcategory: "pipe leak", MainCategory: taxonomy.WaterSewerage, Confidence: 0.55, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{
		Text:            "water leak on the street",
		VoiceTranscript: "pipe is leaking",
	})

	require.NotNil(t, res.Consensus)
	// avg(0.6, 0.55) + 0.15 boost.
	assert.InDelta(t, 0.725, res.Consensus.Confidence, 1e-9)
	assert.Equal(t, taxonomy.WaterSewerage, res.Consensus.MainCategory)

	assert.Equal(t, taxonomy.WaterSewerage, res.Best.MainCategory)
	assert.Equal(t, domain.SourceText, res.Best.Source)
	assert.Nil(t, res.Image)
	assert.Nil(t, res.Safety)
}

func TestAnalyzeAllNonPhotoLosesToText(t *testing.T) {
	m := &stubModalities{
		// Confidence already penalized by the image adapter for non-photos.
		image:  domain.ClassificationResult{Subcategory: "drawing", MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.27, IsPhoto: false},
		safety: passSafety(),
		text: map[string]domain.ClassificationResult{
			"overflowing bin": {Subcategory: "overflowing bin", MainCategory: taxonomy.WasteManagement, Confidence: 0.55, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{
		ImageURL: "https://example.com/art.png",
		Text:     "overflowing bin",
	})

	// Image weight 4.0*0.2*0.5 = 0.4, score 0.108; text score 0.825.
	require.Len(t, res.Candidates, 2)
	assert.Equal(t, domain.SourceText, res.Candidates[0].Source)
	assert.InDelta(t, 0.4, res.Candidates[1].Weight, 1e-9)

	assert.Equal(t, taxonomy.WasteManagement, res.Best.MainCategory)
	assert.Equal(t, domain.SourceText, res.Best.Source)
}

func TestAnalyzeAllConfidentImageOverridesRanking(t *testing.T) {
	m := &stubModalities{
		image:  domain.ClassificationResult{Subcategory: "streetlight", MainCategory: taxonomy.StreetLighting, Confidence: 0.65, IsPhoto: true},
		safety: passSafety(),
		text: map[string]domain.ClassificationResult{
			"huge garbage dump": {Subcategory: "garbage", MainCategory: taxonomy.WasteManagement, Confidence: 0.95, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{
		ImageURL: "https://example.com/lamp.jpg",
		Text:     "huge garbage dump",
	})

	// Image score 2.6 beats text 1.425 anyway, but the override keeps the
	// image on top even when the ranking disagrees.
	assert.Equal(t, taxonomy.StreetLighting, res.Best.MainCategory)
	assert.Equal(t, domain.SourceImage, res.Best.Source)
	assert.InDelta(t, 0.65, res.Best.Confidence, 1e-9)
}

func TestAnalyzeAllModalityFailureIsNeutral(t *testing.T) {
	m := &stubModalities{
		imageErr: errors.New("fetch exploded"),
		text: map[string]domain.ClassificationResult{
			"stray dog pack": {Subcategory: "stray dog", MainCategory: taxonomy.PublicSafety, Confidence: 0.7, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{
		ImageURL: "https://example.com/x.jpg",
		Text:     "stray dog pack",
	})

	require.NotNil(t, res.Image)
	assert.Equal(t, taxonomy.Other, res.Image.MainCategory)
	assert.Zero(t, res.Image.Confidence)

	assert.Equal(t, taxonomy.PublicSafety, res.Best.MainCategory)
	assert.Equal(t, domain.SourceText, res.Best.Source)
}

func TestAnalyzeAllKeywordFallback(t *testing.T) {
	m := &stubModalities{
		text: map[string]domain.ClassificationResult{
			"street light broken on elm": {Subcategory: "other", MainCategory: taxonomy.Other, Confidence: 0.3, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{Text: "street light broken on elm"})

	// The model said Other, but the description plainly names a keyword.
	assert.Equal(t, taxonomy.StreetLighting, res.Best.MainCategory)
	assert.Equal(t, domain.SourceKeyword, res.Best.Source)
	// keyword conf 0.82 discounted by 0.8, still above the Other pick.
	assert.InDelta(t, 0.656, res.Best.Confidence, 1e-9)
}

func TestAnalyzeAllNoInput(t *testing.T) {
	e := newTestEngine(&stubModalities{})

	res := e.AnalyzeAll(context.Background(), Input{})

	assert.Nil(t, res.Image)
	assert.Nil(t, res.Text)
	assert.Nil(t, res.Voice)
	assert.Nil(t, res.Consensus)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, taxonomy.Other, res.Best.MainCategory)
	assert.Equal(t, domain.SourceNone, res.Best.Source)
	assert.Zero(t, res.Best.Confidence)
}

func TestAnalyzeAllSafetyBlockPropagates(t *testing.T) {
	m := &stubModalities{
		image:  domain.ClassificationResult{Source: domain.SourceImage},
		safety: domain.SafetyResult{IsAppropriate: false, Confidence: 0.9, Reason: "explicit content"},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{ImageURL: "https://example.com/bad.jpg"})

	require.NotNil(t, res.Safety)
	assert.True(t, res.Safety.Blocks())
	assert.Equal(t, "explicit content", res.Safety.Reason)
}

func TestAnalyzeAllConfidenceAlwaysInRange(t *testing.T) {
	m := &stubModalities{
		image:  domain.ClassificationResult{MainCategory: taxonomy.RoadInfrastructure, Confidence: 1.0, IsPhoto: true},
		safety: passSafety(),
		text: map[string]domain.ClassificationResult{
			"pothole": {MainCategory: taxonomy.RoadInfrastructure, Confidence: 1.0, IsPhoto: true},
		},
	}
	e := newTestEngine(m)

	res := e.AnalyzeAll(context.Background(), Input{ImageURL: "u", Text: "pothole"})

	assert.LessOrEqual(t, res.Best.Confidence, 1.0)
	require.NotNil(t, res.Consensus)
	assert.LessOrEqual(t, res.Consensus.Confidence, 1.0)
}
