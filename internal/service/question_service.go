package service

import (
	"context"

	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// QuestionService handles question management. Questions are only editable
// while the survey is in DRAFT; published surveys keep a stable question set
// so collected answers stay interpretable.
type QuestionService struct {
	surveyRepo   *repository.SurveyRepository
	questionRepo *repository.QuestionRepository
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	surveyRepo *repository.SurveyRepository,
	questionRepo *repository.QuestionRepository,
	logger zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		log:          logger.With().Str("component", "question_service").Logger(),
	}
}

func (s *QuestionService) ownedDraft(ctx context.Context, ownerID int, surveyID uuid.UUID) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	if survey.Status != model.SurveyStatusDraft {
		return nil, ErrSurveyNotDraft
	}
	return survey, nil
}

// List returns a survey's questions to its owner.
func (s *QuestionService) List(ctx context.Context, ownerID int, surveyID uuid.UUID) ([]model.Question, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return s.questionRepo.ListBySurvey(ctx, surveyID)
}

// Add appends one question to a draft survey.
func (s *QuestionService) Add(ctx context.Context, ownerID int, surveyID uuid.UUID, req *model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.ownedDraft(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}

	q := &model.Question{
		SurveyID:     surveyID,
		QuestionText: req.QuestionText,
		QuestionType: model.QuestionType(req.QuestionType),
		Options:      req.Options,
		Required:     req.Required,
		OrderNum:     req.OrderNum,
	}
	if err := s.questionRepo.Add(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// ReplaceAll swaps a draft survey's entire question list.
func (s *QuestionService) ReplaceAll(ctx context.Context, ownerID int, surveyID uuid.UUID, req *model.ReplaceQuestionsRequest) ([]model.Question, error) {
	if _, err := s.ownedDraft(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}

	questions := make([]model.Question, len(req.Questions))
	for i, rq := range req.Questions {
		questions[i] = model.Question{
			SurveyID:     surveyID,
			QuestionText: rq.QuestionText,
			QuestionType: model.QuestionType(rq.QuestionType),
			Options:      rq.Options,
			Required:     rq.Required,
			OrderNum:     rq.OrderNum,
		}
	}
	if err := s.questionRepo.ReplaceAll(ctx, surveyID, questions); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("survey_id", surveyID.String()).
		Int("questions", len(questions)).
		Msg("question list replaced")
	return questions, nil
}
