package classifier

import (
	"strings"

	"github.com/civicpulse/classifier/internal/domain"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Path fallback confidences. A keyword hit in the file path is decent
// evidence; an opaque path still counts as a photo of something.
const (
	pathMatchConfidence   = 0.7
	pathDefaultConfidence = 0.6
)

const pathDefaultSubcategory = "unidentified civic issue"

// ClassifyImagePath guesses a category from the image URL or file path.
// Used when the remote model is disabled or failed for this image.
func ClassifyImagePath(imageURL string) domain.ClassificationResult {
	normalized := strings.ToLower(imageURL)

	for _, pk := range taxonomy.PathKeywords {
		for _, kw := range pk.Keywords {
			if strings.Contains(normalized, kw) {
				return domain.ClassificationResult{
					Subcategory:  kw,
					MainCategory: pk.Category,
					Confidence:   pathMatchConfidence,
					IsPhoto:      true,
					Source:       domain.SourcePath,
				}
			}
		}
	}

	return domain.ClassificationResult{
		Subcategory:  pathDefaultSubcategory,
		MainCategory: taxonomy.Other,
		Confidence:   pathDefaultConfidence,
		IsPhoto:      true,
		Source:       domain.SourceFallback,
	}
}
