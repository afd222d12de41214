// Package classifier provides the deterministic keyword classifier used when
// the remote model is unavailable or returns unusable output.
package classifier

import (
	"math"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Scoring constants. A category's score is the length of its longest matched
// keyword scaled down, divided by the category priority so that priority-1
// categories win ties against catch-all categories.
const (
	keywordLengthScale = 10.0
	baseConfidence     = 0.7
	confidenceSlope    = 0.2
	maxConfidence      = 0.9

	// Confidence assigned when no keyword matches at all.
	noMatchConfidence = 0.35
	// Confidence assigned to empty input.
	emptyInputConfidence = 0.15
)

const noMatchSubcategory = "other"

// KeywordClassifier matches taxonomy keywords against free text in a single
// pass using an Aho-Corasick automaton. Matching is substring based, the
// input is only lowercased and trimmed.
type KeywordClassifier struct {
	matcher  *ahocorasick.Matcher
	keywords []string
	kwToCats map[string][]categoryMapping
	logger   logging.Logger
}

type categoryMapping struct {
	category taxonomy.Category
	keyword  string
}

// NewKeywordClassifier builds the automaton over the full taxonomy.
func NewKeywordClassifier(logger logging.Logger) *KeywordClassifier {
	c := &KeywordClassifier{
		kwToCats: make(map[string][]categoryMapping),
		logger:   logger,
	}

	for _, cat := range taxonomy.Categories() {
		for _, kw := range cat.Keywords {
			normalized := strings.ToLower(strings.TrimSpace(kw))
			if normalized == "" {
				continue
			}
			if _, seen := c.kwToCats[normalized]; !seen {
				c.keywords = append(c.keywords, normalized)
			}
			c.kwToCats[normalized] = append(c.kwToCats[normalized], categoryMapping{
				category: cat,
				keyword:  normalized,
			})
		}
	}

	c.matcher = ahocorasick.NewStringMatcher(c.keywords)

	if logger != nil {
		logger.Debug("keyword classifier initialized",
			logging.Int("categories", len(taxonomy.Categories())),
			logging.Int("keywords", len(c.keywords)))
	}

	return c
}

// Classify scores the text against every category and returns the winner.
// Longer matched keywords score higher; the score is divided by the category
// priority before comparison so specific categories beat the catch-all.
func (c *KeywordClassifier) Classify(text string) domain.ClassificationResult {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return domain.ClassificationResult{
			Subcategory:  noMatchSubcategory,
			MainCategory: taxonomy.Other,
			Confidence:   emptyInputConfidence,
			Source:       domain.SourceKeyword,
		}
	}

	// Longest matched keyword per category.
	type categoryScore struct {
		keyword string
		score   float64
	}
	scores := make(map[string]categoryScore)

	hits := c.matcher.Match([]byte(normalized))
	for _, hitIndex := range hits {
		if hitIndex >= len(c.keywords) {
			continue
		}
		for _, m := range c.kwToCats[c.keywords[hitIndex]] {
			score := float64(len(m.keyword)) / keywordLengthScale
			if best, ok := scores[m.category.Name]; !ok || score > best.score {
				scores[m.category.Name] = categoryScore{keyword: m.keyword, score: score}
			}
		}
	}

	var (
		bestCategory taxonomy.Category
		bestKeyword  string
		bestScore    float64
		matched      bool
	)
	// Iterate in taxonomy order so ties resolve deterministically.
	for _, cat := range taxonomy.Categories() {
		cs, ok := scores[cat.Name]
		if !ok {
			continue
		}
		final := cs.score / float64(cat.Priority)
		if !matched || final > bestScore {
			bestCategory = cat
			bestKeyword = cs.keyword
			bestScore = final
			matched = true
		}
	}

	if !matched {
		return domain.ClassificationResult{
			Subcategory:  noMatchSubcategory,
			MainCategory: taxonomy.Other,
			Confidence:   noMatchConfidence,
			Source:       domain.SourceKeyword,
		}
	}

	confidence := math.Min(maxConfidence, baseConfidence+bestScore*confidenceSlope)

	return domain.ClassificationResult{
		Subcategory:  bestKeyword,
		MainCategory: bestCategory.Name,
		Confidence:   confidence,
		Source:       domain.SourceKeyword,
	}
}
