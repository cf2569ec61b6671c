package service

import (
	"context"
	"errors"
	"time"

	"github.com/formpulse/formpulse-backend/internal/analytics"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrUnknownChart is returned for a chart name the service does not build.
var ErrUnknownChart = errors.New("unknown chart")

// Chart names served by the chart endpoint.
const (
	ChartTrend         = "trend"
	ChartQuestionRates = "question_rates"
	ChartDevices       = "devices"
	ChartLocations     = "locations"
	ChartAges          = "ages"
)

// AnalyticsService computes response analytics for survey owners. All heavy
// lifting happens in the analytics package; this layer owns authorization,
// data loading and the model-to-aggregate mapping.
type AnalyticsService struct {
	surveyRepo   *repository.SurveyRepository
	questionRepo *repository.QuestionRepository
	responseRepo *repository.ResponseRepository
	log          zerolog.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	surveyRepo *repository.SurveyRepository,
	questionRepo *repository.QuestionRepository,
	responseRepo *repository.ResponseRepository,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		responseRepo: responseRepo,
		log:          logger.With().Str("component", "analytics_service").Logger(),
	}
}

// Snapshot recomputes the full analytics aggregate for a survey. from/to are
// optional bounds on the daily trend.
func (s *AnalyticsService) Snapshot(ctx context.Context, ownerID int, surveyID uuid.UUID, from, to time.Time) (*analytics.Snapshot, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrNotOwner
	}

	responses, questions, err := s.load(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	snap := analytics.Compute(responses, questions, from, to)
	return &snap, nil
}

// Chart builds one named chart from the snapshot, then runs it through the
// sanitize, validate, process pipeline. A chart that fails validation comes
// back empty rather than as an error so dashboards degrade per panel.
func (s *AnalyticsService) Chart(ctx context.Context, ownerID int, surveyID uuid.UUID, name string, from, to time.Time, yDomain *analytics.YDomain) (*analytics.ChartData, error) {
	snap, err := s.Snapshot(ctx, ownerID, surveyID, from, to)
	if err != nil {
		return nil, err
	}

	var data analytics.ChartData
	var chartType analytics.ChartType

	switch name {
	case ChartTrend:
		chartType = analytics.ChartLine
		points := make([]analytics.DataPoint, len(snap.Trends))
		for i, t := range snap.Trends {
			points[i] = analytics.DataPoint{X: t.Date, Y: t.Value, Label: t.Label}
		}
		data = analytics.ChartData{Series: []analytics.DataSeries{
			{ID: "trend", Name: "Completed responses", Points: points},
		}}
	case ChartQuestionRates:
		chartType = analytics.ChartBar
		points := make([]analytics.DataPoint, len(snap.QuestionMetrics))
		for i, m := range snap.QuestionMetrics {
			label := m.Label
			if label == "" {
				label = m.QuestionID
			}
			points[i] = analytics.DataPoint{X: label, Y: m.ResponseRate}
		}
		data = analytics.ChartData{Series: []analytics.DataSeries{
			{ID: "question_rates", Name: "Response rate", Points: points},
		}}
	case ChartDevices, ChartLocations, ChartAges:
		chartType = analytics.ChartPie
		dim := map[string]string{
			ChartDevices:   "device",
			ChartLocations: "location",
			ChartAges:      "age",
		}[name]
		counts := snap.Demographics[dim]
		points := make([]analytics.DataPoint, 0, len(counts))
		for k, v := range counts {
			points = append(points, analytics.DataPoint{X: k, Y: v})
		}
		data = analytics.ChartData{Series: []analytics.DataSeries{
			{ID: name, Name: "Responses by " + dim, Points: points},
		}}
	default:
		return nil, ErrUnknownChart
	}

	data = analytics.SanitizeChartData(data)
	if !analytics.ValidateChartData(data, chartType) {
		s.log.Debug().
			Str("survey_id", surveyID.String()).
			Str("chart", name).
			Msg("chart failed validation, returning empty")
		return &analytics.ChartData{Series: []analytics.DataSeries{}}, nil
	}

	processed := analytics.ProcessChartData(data, analytics.ChartConfig{Type: chartType, YDomain: yDomain})
	return &processed, nil
}

// Counts returns the survey's total and completed response counts. Used by
// the live dashboard's initial frame, where a full snapshot would be waste.
func (s *AnalyticsService) Counts(ctx context.Context, ownerID int, surveyID uuid.UUID) (total, completed int, err error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return 0, 0, err
	}
	if survey.OwnerID != ownerID {
		return 0, 0, ErrNotOwner
	}
	return s.responseRepo.CountBySurvey(ctx, surveyID)
}

// load fetches and maps a survey's rows into the analytics package's shapes.
func (s *AnalyticsService) load(ctx context.Context, surveyID uuid.UUID) ([]analytics.Response, []analytics.Question, error) {
	rows, err := s.responseRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, nil, err
	}
	qs, err := s.questionRepo.ListBySurvey(ctx, surveyID)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]analytics.Response, len(rows))
	for i, r := range rows {
		responses[i] = analytics.Response{
			Answers:         r.Answers,
			Status:          analytics.Status(r.Status),
			StartedAt:       r.StartedAt,
			CompletedAt:     r.CompletedAt,
			Device:          r.Device,
			Location:        r.Location,
			AgeBracket:      r.AgeBracket,
			QuestionSeconds: r.QuestionSeconds,
		}
	}

	questions := make([]analytics.Question, len(qs))
	for i, q := range qs {
		questions[i] = analytics.Question{ID: q.ID.String(), Label: q.QuestionText}
	}
	return responses, questions, nil
}
