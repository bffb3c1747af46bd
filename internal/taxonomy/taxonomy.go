// Package taxonomy maps classifier label codes to human-readable condition
// details. Lookups are pure: the same code always yields the same Info.
package taxonomy

import "strings"

// Code is a classifier label from the HAM10000 class set.
type Code string

const (
	MelanocyticNevi    Code = "nv"
	Melanoma           Code = "mel"
	BenignKeratosis    Code = "bkl"
	BasalCellCarcinoma Code = "bcc"
	ActinicKeratoses   Code = "akiec"
	VascularLesion     Code = "vasc"
	Dermatofibroma     Code = "df"
)

// Known reports whether c is one of the labels the taxonomy describes.
func (c Code) Known() bool {
	_, ok := lookup(c)
	return ok
}

// Severity is the coarse risk tier attached to a condition.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityModerate Severity = "Moderate"
	SeverityHigh     Severity = "High"
	SeverityUnknown  Severity = "Unknown"
)

// ParseSeverity matches s case-insensitively. "medium" is accepted as an
// alias of Moderate.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, true
	case "moderate", "medium":
		return SeverityModerate, true
	case "high":
		return SeverityHigh, true
	case "unknown":
		return SeverityUnknown, true
	}
	return "", false
}

// Info describes a condition.
type Info struct {
	FullName        string
	Severity        Severity
	Description     string
	Recommendations []string
}

const (
	fallbackName           = "Unknown"
	fallbackDescription    = "Unable to determine specific condition. Please consult a dermatologist."
	fallbackRecommendation = "Consult a dermatologist for proper diagnosis and treatment"
)

// Classify returns the details for code. Unknown codes never fail: they map
// to a fallback entry named after rawName (or "Unknown" when rawName is blank).
// The returned Recommendations slice is owned by the caller.
func Classify(code, rawName string) Info {
	if info, ok := lookup(Code(code)); ok {
		info.Recommendations = append([]string(nil), info.Recommendations...)
		return info
	}

	name := strings.TrimSpace(rawName)
	if name == "" {
		name = fallbackName
	}
	return Info{
		FullName:        name,
		Severity:        SeverityUnknown,
		Description:     fallbackDescription,
		Recommendations: []string{fallbackRecommendation},
	}
}

func lookup(c Code) (Info, bool) {
	switch c {
	case MelanocyticNevi:
		return Info{
			FullName:    "Melanocytic nevi: benign mole",
			Severity:    SeverityLow,
			Description: "A benign (non-cancerous) mole formed by melanocytes. Generally harmless but should be monitored for changes.",
			Recommendations: []string{
				"Monitor the mole for any changes in size, shape, or color",
				"Use sunscreen to protect your skin",
				"Schedule regular skin checks with a dermatologist",
				"Take photos to track any changes over time",
			},
		}, true
	case Melanoma:
		return Info{
			FullName:    "Melanoma: dangerous skin cancer",
			Severity:    SeverityHigh,
			Description: "A type of skin cancer that develops in melanocytes. Early detection is crucial for successful treatment.",
			Recommendations: []string{
				"Consult a dermatologist immediately for professional evaluation",
				"Avoid sun exposure and use SPF 50+ sunscreen",
				"Monitor the area for any changes in size, shape, or color",
				"Do not attempt self-treatment",
			},
		}, true
	case BenignKeratosis:
		return Info{
			FullName:    "Benign keratosis: non-cancerous growth",
			Severity:    SeverityLow,
			Description: "A non-cancerous skin growth that is usually harmless. Common in older adults.",
			Recommendations: []string{
				"Consult with a dermatologist if it changes or becomes irritated",
				"Protect skin from excessive sun exposure",
				"Regular skin monitoring is recommended",
				"Treatment is usually not necessary unless for cosmetic reasons",
			},
		}, true
	case BasalCellCarcinoma:
		return Info{
			FullName:    "Basal cell carcinoma: type of skin cancer",
			Severity:    SeverityModerate,
			Description: "The most common form of skin cancer, usually caused by sun exposure. Generally slow-growing and treatable.",
			Recommendations: []string{
				"Schedule an appointment with a dermatologist",
				"Protect the area from sun exposure",
				"Use broad-spectrum sunscreen daily",
				"Avoid picking or scratching the area",
			},
		}, true
	case ActinicKeratoses:
		return Info{
			FullName:    "Actinic keratoses: precancerous lesions",
			Severity:    SeverityModerate,
			Description: "Rough, scaly patches on skin caused by years of sun exposure. Considered precancerous and should be treated.",
			Recommendations: []string{
				"Consult with a dermatologist for treatment options",
				"Use daily sunscreen (SPF 30+)",
				"Wear protective clothing when outdoors",
				"Regular skin checks to monitor progression",
			},
		}, true
	case VascularLesion:
		return Info{
			FullName:    "Vascular lesions: abnormal blood vessels",
			Severity:    SeverityLow,
			Description: "Abnormalities in blood vessels that appear on the skin. Usually benign but may require medical evaluation.",
			Recommendations: []string{
				"Consult a dermatologist for proper diagnosis",
				"Avoid trauma to the affected area",
				"Monitor for any changes in size or appearance",
				"Treatment options are available if desired",
			},
		}, true
	case Dermatofibroma:
		return Info{
			FullName:    "Dermatofibroma: benign skin nodule",
			Severity:    SeverityLow,
			Description: "A common benign skin growth, usually firm to the touch. Generally harmless and does not require treatment.",
			Recommendations: []string{
				"No treatment necessary unless it becomes bothersome",
				"Avoid scratching or irritating the area",
				"Consult a dermatologist if it changes or causes discomfort",
				"Removal is possible if desired for cosmetic reasons",
			},
		}, true
	}
	return Info{}, false
}
