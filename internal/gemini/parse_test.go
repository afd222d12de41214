package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/classifier/internal/classifier"
	"github.com/civicpulse/classifier/internal/logging"
	"github.com/civicpulse/classifier/internal/taxonomy"
)

func newTestKeywords() *classifier.KeywordClassifier {
	return classifier.NewKeywordClassifier(logging.NewNop())
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in), tt.in)
	}
}

func TestParseCategoryResponseJSON(t *testing.T) {
	kw := newTestKeywords()

	raw := "```json\n" + `{
  "subcategory": "large pothole",
  "mainCategory": "Road & Infrastructure",
  "confidence": 0.92,
  "isPhoto": true,
  "explanation": "deep pothole in the carriageway"
}` + "\n```"

	res := parseCategoryResponse(raw, kw)
	assert.Equal(t, taxonomy.RoadInfrastructure, res.MainCategory)
	assert.Equal(t, "large pothole", res.Subcategory)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.True(t, res.IsPhoto)
	assert.Equal(t, "deep pothole in the carriageway", res.Explanation)
}

func TestParseCategoryResponseFieldAliases(t *testing.T) {
	kw := newTestKeywords()

	// "category" instead of "subcategory", no mainCategory at all.
	res := parseCategoryResponse(`{"category": "sewage overflow", "confidence": 0.8}`, kw)
	assert.Equal(t, "sewage overflow", res.Subcategory)
	assert.Equal(t, taxonomy.WaterSewerage, res.MainCategory)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
}

func TestParseCategoryResponseInvalidMainRemapped(t *testing.T) {
	kw := newTestKeywords()

	res := parseCategoryResponse(`{"subcategory": "overflowing bin", "mainCategory": "Garbage Problems", "confidence": 0.7}`, kw)
	assert.Equal(t, taxonomy.WasteManagement, res.MainCategory)
	assert.Equal(t, "overflowing bin", res.Subcategory)
}

func TestParseCategoryResponseDefaults(t *testing.T) {
	kw := newTestKeywords()

	// No confidence and no isPhoto fields.
	res := parseCategoryResponse(`{"mainCategory": "Street Lighting & Electrical", "subcategory": "lamp out"}`, kw)
	assert.Equal(t, taxonomy.StreetLighting, res.MainCategory)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.True(t, res.IsPhoto)
}

func TestParseCategoryResponseConfidenceClamped(t *testing.T) {
	kw := newTestKeywords()

	res := parseCategoryResponse(`{"mainCategory": "Other", "subcategory": "x", "confidence": 3.5}`, kw)
	assert.InDelta(t, 1.0, res.Confidence, 1e-9)

	res = parseCategoryResponse(`{"mainCategory": "Other", "subcategory": "x", "confidence": -0.4}`, kw)
	assert.InDelta(t, 0.0, res.Confidence, 1e-9)
}

func TestParseCategoryResponseProseTier(t *testing.T) {
	kw := newTestKeywords()

	res := parseCategoryResponse("Category: garbage, Confidence: 0.85", kw)
	assert.Equal(t, "garbage", res.Subcategory)
	assert.Equal(t, taxonomy.WasteManagement, res.MainCategory)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	assert.True(t, res.IsPhoto)
}

func TestParseCategoryResponseKeywordTier(t *testing.T) {
	kw := newTestKeywords()

	// Neither JSON nor the prose pattern: classify the raw text itself.
	res := parseCategoryResponse("the picture appears to show garbage scattered around", kw)
	assert.Equal(t, taxonomy.WasteManagement, res.MainCategory)
	assert.True(t, res.IsPhoto)
	assert.NotEmpty(t, res.Raw)
}

func TestParseSafetyResponse(t *testing.T) {
	res := parseSafetyResponse(`{"isAppropriate": false, "confidence": 0.95, "reason": "explicit content"}`)
	assert.False(t, res.IsAppropriate)
	assert.InDelta(t, 0.95, res.Confidence, 1e-9)
	assert.Equal(t, "explicit content", res.Reason)
	assert.True(t, res.Blocks())
}

func TestParseSafetyResponseMissingConfidence(t *testing.T) {
	res := parseSafetyResponse(`{"isAppropriate": true}`)
	require.True(t, res.IsAppropriate)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.False(t, res.Blocks())
}

func TestParseSafetyResponseUnparseable(t *testing.T) {
	res := parseSafetyResponse("I cannot evaluate this image.")
	assert.True(t, res.IsAppropriate)
	assert.InDelta(t, 0.5, res.Confidence, 1e-9)
	assert.False(t, res.Blocks())
}

func TestParseSafetyResponseLowConfidenceBlockDoesNotFlag(t *testing.T) {
	res := parseSafetyResponse(`{"isAppropriate": false, "confidence": 0.6, "reason": "unclear"}`)
	assert.False(t, res.IsAppropriate)
	assert.False(t, res.Blocks(), "flagging requires a confident verdict")
}
