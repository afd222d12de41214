package gemini

import (
	"fmt"
	"strings"

	"github.com/civicpulse/classifier/internal/taxonomy"
)

// Number of keywords quoted per category in the image prompt.
const promptKeywordSample = 10

func imagePrompt() string {
	names := strings.Join(taxonomy.Names(), ", ")

	var defs strings.Builder
	for i, c := range taxonomy.Categories() {
		sample := c.Keywords
		if len(sample) > promptKeywordSample {
			sample = sample[:promptKeywordSample]
		}
		if i > 0 {
			defs.WriteByte('\n')
		}
		fmt.Fprintf(&defs, "- %s: Issues related to %s, etc.", c.Name, strings.Join(sample, ", "))
	}

	return fmt.Sprintf(`You are an expert civic infrastructure problem classifier analyzing citizen-reported issues.

TASK: Analyze this image to identify the PRIMARY civic infrastructure problem and classify it into one of these EXACT categories.

AVAILABLE CATEGORIES (choose exactly one):
%s

CATEGORY DEFINITIONS:
%s

ANALYSIS RULES:
1. This is a REAL PHOTOGRAPH taken by a citizen reporting an infrastructure problem
2. Focus on the MAIN visible problem that dominates the image
3. Choose the MOST APPROPRIATE category from the list above
4. If multiple issues exist, pick the most prominent one
5. Use the EXACT category name from the list

OUTPUT FORMAT (JSON only):
{
  "subcategory": "specific_issue_description",
  "mainCategory": "exact_category_name_from_list",
  "confidence": 0.0-1.0,
  "isPhoto": true,
  "explanation": "brief description focusing on why you chose this category"
}

Be decisive and use only the category names provided above.`, names, defs.String())
}

func textPrompt(description string) string {
	names := strings.Join(taxonomy.Names(), ", ")
	escaped := strings.ReplaceAll(description, `"`, `\"`)

	return fmt.Sprintf(`You are a civic issues text classifier for citizen complaints.
AVAILABLE CATEGORIES: %s
Analyze the text description and classify the civic infrastructure issue being reported.
OUTPUT FORMAT (JSON only):
{
  "subcategory": "specific_issue_name",
  "mainCategory": "one_of_the_main_categories",
  "confidence": 0.0-1.0,
  "explanation": "brief explanation"
}

User Description: "%s"`, names, escaped)
}

func safetyPrompt() string {
	return `You are a content safety classifier for a civic reporting platform.
TASK: Determine if this image is appropriate for a public civic issue reporting platform.

APPROPRIATE CONTENT:
- Infrastructure problems (roads, lights, utilities)
- Public spaces and facilities
- Civic issues and complaints
- Environmental problems
- Public safety concerns

INAPPROPRIATE CONTENT:
- Nudity or explicit sexual content
- Private spaces (bedrooms, private bathrooms)
- Personal/private photos unrelated to civic issues
- Violence or harassment
- Content clearly not related to civic infrastructure

OUTPUT FORMAT (JSON only):
{
  "isAppropriate": true/false,
  "confidence": 0.0-1.0,
  "reason": "brief explanation if inappropriate, empty if appropriate"
}`
}
