package model

import "time"

// Scan is the persisted result of one completed image analysis.
// Taxonomy fields are copied in at creation so later taxonomy changes never
// alter past scans. Scans are created and deleted, never updated.
type Scan struct {
	ID               string             `json:"id"`
	UserID           string             `json:"user_id"`
	ImageURL         string             `json:"image_url"`
	DiseaseCode      string             `json:"disease_code"`
	DiseaseName      string             `json:"disease_name"`
	Confidence       float64            `json:"confidence"`
	Severity         string             `json:"severity"`
	Description      string             `json:"description"`
	Recommendations  []string           `json:"recommendations"`
	AllProbabilities map[string]float64 `json:"all_probabilities"`
	CreatedAt        time.Time          `json:"created_at"`
}

// Prediction is the normalized classifier output before enrichment.
// Confidence is the raw fraction in [0, 1] as reported by the model.
type Prediction struct {
	DiseaseCode      string
	DiseaseName      string
	Confidence       float64
	AllProbabilities map[string]float64
}
