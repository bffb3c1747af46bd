package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"skinscan/internal/classifier"
	clsMocks "skinscan/internal/classifier/mocks"
	"skinscan/internal/logging"
	"skinscan/internal/metrics"
	"skinscan/internal/model"
	repoMocks "skinscan/internal/repository/mocks"
	"skinscan/internal/storage"
	storeMocks "skinscan/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type analysisDeps struct {
	fetcher *storeMocks.MockFetcher
	cls     *clsMocks.MockClient
	scans   *repoMocks.MockScanRepository
}

// storageHosts are the hosts signed upload URLs point at in these tests.
var storageHosts = []string{"minio", "img"}

func newAnalysisSvc(d analysisDeps, enabled bool) *analysisService {
	opts := AnalysisOptions{ClassifierEnabled: enabled, ImageHosts: storageHosts}
	s := NewAnalysisService(d.fetcher, d.cls, opts, d.scans, metrics.Nop(), logging.Nop()).(*analysisService)
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestAnalysisService_Analyze(t *testing.T) {
	ctx := context.Background()
	img := []byte("jpeg-bytes")
	valid := AnalyzeInput{UserID: "u1", ImageURL: "https://minio/u1/1.jpg?sig=x"}

	tests := []struct {
		name    string
		caller  string
		in      AnalyzeInput
		enabled bool
		setup   func(d analysisDeps)
		wantErr error
		check   func(t *testing.T, s *model.Scan)
	}{
		{
			name:    "happy path",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(img, "image/jpeg", nil)
				d.cls.On("Predict", ctx, img, "image/jpeg").Return(model.Prediction{
					DiseaseCode:      "mel",
					DiseaseName:      "melanoma",
					Confidence:       0.87654,
					AllProbabilities: map[string]float64{"mel": 0.87654},
				}, nil)
				d.scans.On("NextID", "u1", fixedNow).Return("scan_u1_abc")
				d.scans.On("Create", ctx, mock.AnythingOfType("*model.Scan")).Return(nil)
			},
			check: func(t *testing.T, s *model.Scan) {
				assert.Equal(t, "scan_u1_abc", s.ID)
				assert.Equal(t, "u1", s.UserID)
				assert.Equal(t, valid.ImageURL, s.ImageURL)
				assert.Equal(t, "mel", s.DiseaseCode)
				assert.Equal(t, "Melanoma: dangerous skin cancer", s.DiseaseName)
				assert.Equal(t, "High", s.Severity)
				assert.Equal(t, 87.65, s.Confidence)
				assert.NotEmpty(t, s.Recommendations)
				assert.Equal(t, map[string]float64{"mel": 0.87654}, s.AllProbabilities)
				assert.Equal(t, fixedNow, s.CreatedAt)
			},
		},
		{
			name:    "unknown code uses fallback",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(img, "image/jpeg", nil)
				d.cls.On("Predict", ctx, img, "image/jpeg").Return(model.Prediction{
					DiseaseCode: "xyz",
					DiseaseName: "Mystery",
					Confidence:  1,
				}, nil)
				d.scans.On("NextID", "u1", fixedNow).Return("scan_u1_def")
				d.scans.On("Create", ctx, mock.Anything).Return(nil)
			},
			check: func(t *testing.T, s *model.Scan) {
				assert.Equal(t, "Mystery", s.DiseaseName)
				assert.Equal(t, "Unknown", s.Severity)
				assert.Equal(t, float64(100), s.Confidence)
				assert.Equal(t, map[string]float64{}, s.AllProbabilities)
				assert.Equal(t, []string{"Consult a dermatologist for proper diagnosis and treatment"}, s.Recommendations)
			},
		},
		{
			name:    "missing image url",
			caller:  "u1",
			in:      AnalyzeInput{UserID: "u1"},
			enabled: true,
			wantErr: ErrValidation,
		},
		{
			name:    "relative image url",
			caller:  "u1",
			in:      AnalyzeInput{UserID: "u1", ImageURL: "/u1/1.jpg"},
			enabled: true,
			wantErr: ErrValidation,
		},
		{
			name:    "missing user id",
			caller:  "u1",
			in:      AnalyzeInput{ImageURL: valid.ImageURL},
			enabled: true,
			wantErr: ErrValidation,
		},
		{
			name:    "image outside object storage",
			caller:  "u1",
			in:      AnalyzeInput{UserID: "u1", ImageURL: "http://127.0.0.1:8080/internal/admin"},
			enabled: true,
			wantErr: ErrValidation,
		},
		{
			name:    "storage host with another port",
			caller:  "u1",
			in:      AnalyzeInput{UserID: "u1", ImageURL: "http://minio:6379/u1/1.jpg"},
			enabled: true,
			wantErr: ErrValidation,
		},
		{
			name:    "other user",
			caller:  "u2",
			in:      valid,
			enabled: true,
			wantErr: ErrForbidden,
		},
		{
			name:    "other user with invalid url",
			caller:  "u2",
			in:      AnalyzeInput{UserID: "u1", ImageURL: "not-a-url"},
			enabled: true,
			wantErr: ErrForbidden,
		},
		{
			name:    "other user without image url",
			caller:  "u2",
			in:      AnalyzeInput{UserID: "u1"},
			enabled: true,
			wantErr: ErrForbidden,
		},
		{
			name:    "other user with classifier disabled",
			caller:  "u2",
			in:      valid,
			enabled: false,
			wantErr: ErrForbidden,
		},
		{
			name:    "classifier token missing",
			caller:  "u1",
			in:      valid,
			enabled: false,
			wantErr: ErrServiceMisconfigured,
		},
		{
			name:    "image fetch fails",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(nil, "", storage.ErrFetch)
			},
			wantErr: ErrUpstreamFetch,
		},
		{
			name:    "image too large",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(nil, "", storage.ErrTooLarge)
			},
			wantErr: ErrUpstreamFetch,
		},
		{
			name:    "classifier fails",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(img, "image/jpeg", nil)
				d.cls.On("Predict", ctx, img, "image/jpeg").Return(model.Prediction{}, classifier.ErrClassification)
			},
			wantErr: ErrClassification,
		},
		{
			name:    "empty disease code",
			caller:  "u1",
			in:      valid,
			enabled: true,
			setup: func(d analysisDeps) {
				d.fetcher.On("Fetch", ctx, valid.ImageURL).Return(img, "image/jpeg", nil)
				d.cls.On("Predict", ctx, img, "image/jpeg").Return(model.Prediction{Confidence: 0.4}, nil)
			},
			wantErr: ErrClassification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := analysisDeps{
				fetcher: new(storeMocks.MockFetcher),
				cls:     new(clsMocks.MockClient),
				scans:   new(repoMocks.MockScanRepository),
			}
			if tt.setup != nil {
				tt.setup(d)
			}

			got, err := newAnalysisSvc(d, tt.enabled).Analyze(ctx, tt.caller, tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				d.scans.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				if tt.setup == nil {
					d.fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
				}
			} else {
				require.NoError(t, err)
				tt.check(t, got)
			}
			d.fetcher.AssertExpectations(t)
			d.cls.AssertExpectations(t)
			d.scans.AssertExpectations(t)
		})
	}
}

func TestAnalysisService_StoreFailure(t *testing.T) {
	ctx := context.Background()
	d := analysisDeps{
		fetcher: new(storeMocks.MockFetcher),
		cls:     new(clsMocks.MockClient),
		scans:   new(repoMocks.MockScanRepository),
	}
	d.fetcher.On("Fetch", ctx, "http://img/1.png").Return([]byte("x"), "image/png", nil)
	d.cls.On("Predict", ctx, []byte("x"), "image/png").Return(model.Prediction{DiseaseCode: "nv", Confidence: 0.5}, nil)
	d.scans.On("NextID", "u1", fixedNow).Return("scan_u1_x")
	d.scans.On("Create", ctx, mock.Anything).Return(errors.New("kv down"))

	_, err := newAnalysisSvc(d, true).Analyze(ctx, "u1", AnalyzeInput{UserID: "u1", ImageURL: "http://img/1.png"})
	assert.EqualError(t, err, "save scan: kv down")
}

func TestAnalysisService_UnknownLabelIsLogged(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	d := analysisDeps{
		fetcher: new(storeMocks.MockFetcher),
		cls:     new(clsMocks.MockClient),
		scans:   new(repoMocks.MockScanRepository),
	}
	d.fetcher.On("Fetch", ctx, "http://img/1.png").Return([]byte("x"), "image/png", nil)
	d.cls.On("Predict", ctx, []byte("x"), "image/png").Return(model.Prediction{DiseaseCode: "scc", Confidence: 0.7}, nil)
	d.scans.On("NextID", "u1", fixedNow).Return("scan_u1_x")
	d.scans.On("Create", ctx, mock.Anything).Return(nil)

	opts := AnalysisOptions{ClassifierEnabled: true, ImageHosts: storageHosts}
	s := NewAnalysisService(d.fetcher, d.cls, opts, d.scans, metrics.Nop(), logging.New(&buf, "info", time.UTC)).(*analysisService)
	s.now = func() time.Time { return fixedNow }

	scan, err := s.Analyze(ctx, "u1", AnalyzeInput{UserID: "u1", ImageURL: "http://img/1.png"})
	require.NoError(t, err)
	assert.Equal(t, "Unknown", scan.Severity)
	assert.Contains(t, buf.String(), "classifier returned an unknown label")
	assert.Contains(t, buf.String(), `"disease_code":"scc"`)
}

func TestValidateImageURL(t *testing.T) {
	hosts := []string{"minio.internal:9000", "cdn.example.com"}
	tests := []struct {
		raw string
		ok  bool
	}{
		{"http://minio.internal:9000/bucket/u1/1.png?X-Amz-Signature=abc", true},
		{"https://CDN.example.com/u1/1.png", true},
		{"http://minio.internal/u1/1.png", false},
		{"http://169.254.169.254/latest/meta-data/", false},
		{"http://localhost:8080/internal/admin", false},
		{"file:///etc/passwd", false},
		{"ftp://minio.internal:9000/x", false},
		{"", false},
	}
	for _, tt := range tests {
		err := validateImageURL(tt.raw, hosts)
		if tt.ok {
			assert.NoError(t, err, tt.raw)
		} else {
			assert.ErrorIs(t, err, ErrValidation, tt.raw)
		}
	}
	assert.ErrorIs(t, validateImageURL("http://minio.internal:9000/x", nil), ErrValidation)
}

func TestNormalizeConfidence(t *testing.T) {
	tests := []struct {
		raw  float64
		want float64
	}{
		{0.8734, 87.34},
		{0.91, 91.00},
		{0.87654, 87.65},
		{0.5, 50},
		{0.123456, 12.35},
		{1, 100},
		{0, 0},
		{1.2, 100},
		{-0.1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeConfidence(tt.raw), "raw=%v", tt.raw)
	}
}
