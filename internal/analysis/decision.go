package analysis

import (
	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Confidence floors for the final category ladder. Each rung requires a
// non-Other category at or above its floor.
const (
	imageHighConfidence = 0.7
	consensusMinimum    = 0.6
	bestMinimum         = 0.6
	imageLowConfidence  = 0.4
	textMinimum         = 0.5
	voiceMinimum        = 0.5
)

// Decide walks the trust ladder and returns the final category together
// with the rung that produced it. A real user selection always wins; the
// intake placeholder does not count as a selection.
func Decide(userCategory string, res *domain.AnalysisResult) (string, domain.DecisionSource) {
	if user := domain.NormalizeUserCategory(userCategory); user != "" {
		return user, domain.DecisionUser
	}

	if res == nil {
		return taxonomy.Other, domain.DecisionDefault
	}

	if img := res.Image; img != nil &&
		usable(img.MainCategory, img.Confidence, imageHighConfidence) {
		return img.MainCategory, domain.DecisionImageHigh
	}

	if con := res.Consensus; con != nil &&
		usable(con.MainCategory, con.Confidence, consensusMinimum) {
		return con.MainCategory, domain.DecisionConsensus
	}

	if usable(res.Best.MainCategory, res.Best.Confidence, bestMinimum) {
		return res.Best.MainCategory, domain.DecisionBest
	}

	if img := res.Image; img != nil &&
		usable(img.MainCategory, img.Confidence, imageLowConfidence) {
		return img.MainCategory, domain.DecisionImageLow
	}

	if txt := res.Text; txt != nil &&
		usable(txt.MainCategory, txt.Confidence, textMinimum) {
		return txt.MainCategory, domain.DecisionText
	}

	if voc := res.Voice; voc != nil &&
		usable(voc.MainCategory, voc.Confidence, voiceMinimum) {
		return voc.MainCategory, domain.DecisionVoice
	}

	return taxonomy.Other, domain.DecisionDefault
}

func usable(category string, confidence, floor float64) bool {
	return category != "" && category != taxonomy.Other && confidence >= floor
}
