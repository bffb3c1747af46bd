package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"skinscan/internal/classifier"
	"skinscan/internal/metrics"
	"skinscan/internal/model"
	"skinscan/internal/repository"
	"skinscan/internal/storage"
	"skinscan/internal/taxonomy"
)

// AnalyzeInput references an uploaded image.
type AnalyzeInput struct {
	UserID   string
	ImageURL string
}

// AnalysisService runs the image analysis pipeline.
type AnalysisService interface {
	// Analyze fetches the image, classifies it, enriches the prediction and
	// persists the resulting scan. Nothing is stored when any step fails.
	Analyze(ctx context.Context, callerID string, in AnalyzeInput) (*model.Scan, error)
}

// AnalysisOptions configure the pipeline.
type AnalysisOptions struct {
	// ClassifierEnabled is false when no classifier token is configured.
	ClassifierEnabled bool
	// ImageHosts are the host[:port] values an imageUrl may point at, normally
	// the object storage endpoint that signs upload URLs.
	ImageHosts []string
}

type analysisService struct {
	fetcher    storage.Fetcher
	classifier classifier.Client
	opts       AnalysisOptions
	scans      repository.ScanRepository
	metrics    *metrics.Pipeline
	log        zerolog.Logger
	now        func() time.Time
}

// NewAnalysisService constructs a new AnalysisService.
func NewAnalysisService(
	fetcher storage.Fetcher,
	cls classifier.Client,
	opts AnalysisOptions,
	scans repository.ScanRepository,
	m *metrics.Pipeline,
	log zerolog.Logger,
) AnalysisService {
	return &analysisService{
		fetcher:    fetcher,
		classifier: cls,
		opts:       opts,
		scans:      scans,
		metrics:    m,
		log:        log,
		now:        time.Now,
	}
}

func (s *analysisService) Analyze(ctx context.Context, callerID string, in AnalyzeInput) (*model.Scan, error) {
	if strings.TrimSpace(in.UserID) == "" {
		s.metrics.Analysis(metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: userId is required", ErrValidation)
	}
	// ownership before any other input check
	if err := requireOwner(callerID, in.UserID); err != nil {
		s.metrics.Analysis(metrics.OutcomeRejected)
		return nil, err
	}
	if err := validateImageURL(in.ImageURL, s.opts.ImageHosts); err != nil {
		s.metrics.Analysis(metrics.OutcomeRejected)
		return nil, err
	}
	if !s.opts.ClassifierEnabled {
		s.metrics.Analysis(metrics.OutcomeMisconfigured)
		s.log.Error().Msg("classifier token not configured")
		return nil, fmt.Errorf("%w: classifier is not configured", ErrServiceMisconfigured)
	}

	image, contentType, err := s.fetcher.Fetch(ctx, in.ImageURL)
	if err != nil {
		s.metrics.Analysis(metrics.OutcomeFetchError)
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("fetch image failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamFetch, err)
	}

	start := time.Now()
	pred, err := s.classifier.Predict(ctx, image, contentType)
	s.metrics.ClassifierCall(start)
	if err != nil {
		if errors.Is(err, classifier.ErrNotConfigured) {
			s.metrics.Analysis(metrics.OutcomeMisconfigured)
			return nil, fmt.Errorf("%w: %w", ErrServiceMisconfigured, err)
		}
		s.metrics.Analysis(metrics.OutcomeClassifyError)
		s.log.Warn().Err(err).Str("user_id", in.UserID).Msg("classification failed")
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}
	if strings.TrimSpace(pred.DiseaseCode) == "" {
		s.metrics.Analysis(metrics.OutcomeClassifyError)
		return nil, fmt.Errorf("%w: empty disease code", ErrClassification)
	}

	if !taxonomy.Code(pred.DiseaseCode).Known() {
		s.log.Warn().Str("disease_code", pred.DiseaseCode).Msg("classifier returned an unknown label")
	}
	info := taxonomy.Classify(pred.DiseaseCode, pred.DiseaseName)
	probs := pred.AllProbabilities
	if probs == nil {
		probs = map[string]float64{}
	}

	now := s.now().UTC()
	scan := &model.Scan{
		ID:               s.scans.NextID(in.UserID, now),
		UserID:           in.UserID,
		ImageURL:         in.ImageURL,
		DiseaseCode:      pred.DiseaseCode,
		DiseaseName:      info.FullName,
		Confidence:       NormalizeConfidence(pred.Confidence),
		Severity:         string(info.Severity),
		Description:      info.Description,
		Recommendations:  info.Recommendations,
		AllProbabilities: probs,
		CreatedAt:        now,
	}
	if err := s.scans.Create(ctx, scan); err != nil {
		s.metrics.Analysis(metrics.OutcomeStoreError)
		return nil, fmt.Errorf("save scan: %w", err)
	}

	s.metrics.Analysis(metrics.OutcomeSuccess)
	return scan, nil
}

// NormalizeConfidence turns a [0,1] fraction into a percentage rounded to two
// decimals and clamped to [0,100].
func NormalizeConfidence(raw float64) float64 {
	if math.IsNaN(raw) {
		return 0
	}
	pct := math.Round(raw*100*100) / 100
	return math.Min(100, math.Max(0, pct))
}

// validateImageURL accepts absolute http(s) URLs on one of hosts only, so
// the server never fetches from an address the caller picked.
func validateImageURL(raw string, hosts []string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: imageUrl is required", ErrValidation)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: imageUrl must be an absolute http(s) URL", ErrValidation)
	}
	for _, h := range hosts {
		if strings.EqualFold(u.Host, h) {
			return nil
		}
	}
	return fmt.Errorf("%w: imageUrl must reference an uploaded image", ErrValidation)
}
