package taxonomy

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_KnownCodes(t *testing.T) {
	tests := []struct {
		code     Code
		name     string
		severity Severity
	}{
		{MelanocyticNevi, "Melanocytic nevi: benign mole", SeverityLow},
		{Melanoma, "Melanoma: dangerous skin cancer", SeverityHigh},
		{BenignKeratosis, "Benign keratosis: non-cancerous growth", SeverityLow},
		{BasalCellCarcinoma, "Basal cell carcinoma: type of skin cancer", SeverityModerate},
		{ActinicKeratoses, "Actinic keratoses: precancerous lesions", SeverityModerate},
		{VascularLesion, "Vascular lesions: abnormal blood vessels", SeverityLow},
		{Dermatofibroma, "Dermatofibroma: benign skin nodule", SeverityLow},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			info := Classify(string(tt.code), "ignored raw name")
			assert.Equal(t, tt.name, info.FullName)
			assert.Equal(t, tt.severity, info.Severity)
			assert.NotEmpty(t, info.Description)
			assert.Len(t, info.Recommendations, 4)
			assert.True(t, tt.code.Known())
		})
	}
}

func TestClassify_Fallback(t *testing.T) {
	t.Run("uses raw name", func(t *testing.T) {
		info := Classify("xyz", "Some Rash")
		assert.Equal(t, "Some Rash", info.FullName)
		assert.Equal(t, SeverityUnknown, info.Severity)
		assert.Equal(t, []string{"Consult a dermatologist for proper diagnosis and treatment"}, info.Recommendations)
	})

	t.Run("blank raw name", func(t *testing.T) {
		info := Classify("", "  ")
		assert.Equal(t, "Unknown", info.FullName)
		assert.Equal(t, SeverityUnknown, info.Severity)
		assert.False(t, Code("").Known())
	})

	t.Run("codes are case sensitive", func(t *testing.T) {
		info := Classify("MEL", "")
		assert.Equal(t, SeverityUnknown, info.Severity)
	})
}

func TestClassify_Deterministic(t *testing.T) {
	for _, code := range append([]string{"unknown-code"}, "mel", "nv", "df") {
		a, err := json.Marshal(Classify(code, "raw"))
		require.NoError(t, err)
		b, err := json.Marshal(Classify(code, "raw"))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestClassify_ReturnsCopies(t *testing.T) {
	first := Classify("mel", "")
	first.Recommendations[0] = "tampered"

	second := Classify("mel", "")
	assert.Equal(t, "Consult a dermatologist immediately for professional evaluation", second.Recommendations[0])
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		in   string
		want Severity
		ok   bool
	}{
		{"low", SeverityLow, true},
		{"HIGH", SeverityHigh, true},
		{" Moderate ", SeverityModerate, true},
		{"medium", SeverityModerate, true},
		{"unknown", SeverityUnknown, true},
		{"critical", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSeverity(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
