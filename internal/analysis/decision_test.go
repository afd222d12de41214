package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

func result(opts func(*domain.AnalysisResult)) *domain.AnalysisResult {
	res := &domain.AnalysisResult{
		Best: domain.BestResult{MainCategory: taxonomy.Other, Source: domain.SourceNone},
	}
	if opts != nil {
		opts(res)
	}
	return res
}

func TestDecideUserOverrideWins(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.95}
	})

	category, source := Decide("Water & Sewerage", res)
	assert.Equal(t, "Water & Sewerage", category)
	assert.Equal(t, domain.DecisionUser, source)
}

func TestDecidePlaceholderIsNotAnOverride(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.8}
	})

	for _, user := range []string{"citizen", "CITIZEN", " Citizen ", "", "   "} {
		category, source := Decide(user, res)
		assert.Equal(t, taxonomy.RoadInfrastructure, category, "user=%q", user)
		assert.Equal(t, domain.DecisionImageHigh, source, "user=%q", user)
	}
}

func TestDecideImageHighConfidence(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.WasteManagement, Confidence: 0.7}
		r.Consensus = &domain.ConsensusResult{MainCategory: taxonomy.WaterSewerage, Confidence: 0.9, Votes: 2}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.WasteManagement, category)
	assert.Equal(t, domain.DecisionImageHigh, source)
}

func TestDecideConsensusBeatsBest(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.WasteManagement, Confidence: 0.5}
		r.Consensus = &domain.ConsensusResult{MainCategory: taxonomy.WaterSewerage, Confidence: 0.65, Votes: 2}
		r.Best = domain.BestResult{MainCategory: taxonomy.WasteManagement, Confidence: 0.8, Source: domain.SourceText}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.WaterSewerage, category)
	assert.Equal(t, domain.DecisionConsensus, source)
}

func TestDecideBestRung(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Best = domain.BestResult{MainCategory: taxonomy.PublicSafety, Confidence: 0.62, Source: domain.SourceText}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.PublicSafety, category)
	assert.Equal(t, domain.DecisionBest, source)
}

func TestDecideImageLowRung(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.45}
		r.Best = domain.BestResult{MainCategory: taxonomy.Other, Confidence: 0.45, Source: domain.SourceImage}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.RoadInfrastructure, category)
	assert.Equal(t, domain.DecisionImageLow, source)
}

func TestDecideTextAndVoiceRungs(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Text = &domain.ClassificationResult{MainCategory: taxonomy.StreetLighting, Confidence: 0.55}
	})
	category, source := Decide("", res)
	assert.Equal(t, taxonomy.StreetLighting, category)
	assert.Equal(t, domain.DecisionText, source)

	res = result(func(r *domain.AnalysisResult) {
		r.Text = &domain.ClassificationResult{MainCategory: taxonomy.StreetLighting, Confidence: 0.4}
		r.Voice = &domain.ClassificationResult{MainCategory: taxonomy.WaterSewerage, Confidence: 0.5}
	})
	category, source = Decide("", res)
	assert.Equal(t, taxonomy.WaterSewerage, category)
	assert.Equal(t, domain.DecisionVoice, source)
}

func TestDecideAllWeakFallsToOther(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.RoadInfrastructure, Confidence: 0.39}
		r.Text = &domain.ClassificationResult{MainCategory: taxonomy.WasteManagement, Confidence: 0.49}
		r.Voice = &domain.ClassificationResult{MainCategory: taxonomy.Other, Confidence: 0.9}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.Other, category)
	assert.Equal(t, domain.DecisionDefault, source)
}

func TestDecideOtherNeverPassesARung(t *testing.T) {
	res := result(func(r *domain.AnalysisResult) {
		r.Image = &domain.ClassificationResult{MainCategory: taxonomy.Other, Confidence: 0.99}
		r.Consensus = &domain.ConsensusResult{MainCategory: taxonomy.Other, Confidence: 0.99, Votes: 3}
		r.Best = domain.BestResult{MainCategory: taxonomy.Other, Confidence: 0.99}
	})

	category, source := Decide("", res)
	assert.Equal(t, taxonomy.Other, category)
	assert.Equal(t, domain.DecisionDefault, source)
}

func TestDecideNilResult(t *testing.T) {
	category, source := Decide("", nil)
	assert.Equal(t, taxonomy.Other, category)
	assert.Equal(t, domain.DecisionDefault, source)

	category, source = Decide("Road & Infrastructure", nil)
	assert.Equal(t, taxonomy.RoadInfrastructure, category)
	assert.Equal(t, domain.DecisionUser, source)
}
