package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Survey lifecycle and permission errors.
var (
	ErrNotOwner           = errors.New("not the survey owner")
	ErrSurveyNotDraft     = errors.New("survey is not in draft")
	ErrSurveyNotPublished = errors.New("survey is not published")
	ErrNoQuestions        = errors.New("survey has no questions")
	ErrAllowlistRequired  = errors.New("restricted surveys need a non-empty allowlist")
	ErrInvalidDateWindow  = errors.New("start date must be before end date")
)

// ValidatePermissionUpdate enforces the write-time invariants of a permission
// record so the evaluator can trust what it reads: a restricted survey must
// carry at least one allowed email, and a fully specified window must be
// ordered. Pure so it can be tested without storage.
func ValidatePermissionUpdate(req *model.UpdatePermissionRequest) error {
	if access.PermissionType(req.PermissionType) == access.TypeRestricted &&
		len(access.NormalizeEmails(req.AllowedEmails)) == 0 {
		return ErrAllowlistRequired
	}
	if req.StartDate != nil && req.EndDate != nil && !req.StartDate.Before(*req.EndDate) {
		return ErrInvalidDateWindow
	}
	return nil
}

// SurveyService handles survey lifecycle, permissions and the published
// payload cache.
type SurveyService struct {
	surveyRepo   *repository.SurveyRepository
	questionRepo *repository.QuestionRepository
	permRepo     *repository.PermissionRepository
	auth         *AuthService
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewSurveyService creates a new SurveyService.
func NewSurveyService(
	surveyRepo *repository.SurveyRepository,
	questionRepo *repository.QuestionRepository,
	permRepo *repository.PermissionRepository,
	auth *AuthService,
	rdb *redis.Client,
	logger zerolog.Logger,
) *SurveyService {
	return &SurveyService{
		surveyRepo:   surveyRepo,
		questionRepo: questionRepo,
		permRepo:     permRepo,
		auth:         auth,
		rdb:          rdb,
		log:          logger.With().Str("component", "survey_service").Logger(),
	}
}

// Create makes a new DRAFT survey together with its permission record. The
// permission starts public and inactive; publish flips it active.
func (s *SurveyService) Create(ctx context.Context, ownerID int, req *model.CreateSurveyRequest) (*model.Survey, error) {
	survey := &model.Survey{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
		Status:      model.SurveyStatusDraft,
	}
	if err := s.surveyRepo.Create(ctx, survey); err != nil {
		return nil, fmt.Errorf("create survey: %w", err)
	}

	perm := &model.SurveyPermission{
		SurveyID:       survey.ID,
		PermissionType: access.TypePublic,
		IsActive:       false,
	}
	if err := s.permRepo.Create(ctx, perm); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	s.log.Info().Str("survey_id", survey.ID.String()).Int("owner_id", ownerID).Msg("survey created")
	return survey, nil
}

// GetOwned returns a survey after verifying ownership.
func (s *SurveyService) GetOwned(ctx context.Context, ownerID int, surveyID uuid.UUID) (*model.Survey, error) {
	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return survey, nil
}

// List returns the owner's surveys with pagination.
func (s *SurveyService) List(ctx context.Context, ownerID, limit, offset int) ([]model.Survey, int, error) {
	return s.surveyRepo.ListByOwnerPaginated(ctx, ownerID, limit, offset)
}

// Update edits a survey's title and description. If the survey is published
// its cached respondent payload is rebuilt so respondents see the new copy.
func (s *SurveyService) Update(ctx context.Context, ownerID int, surveyID uuid.UUID, req *model.UpdateSurveyRequest) (*model.Survey, error) {
	survey, err := s.GetOwned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}

	survey.Title = req.Title
	survey.Description = req.Description
	if err := s.surveyRepo.Update(ctx, survey); err != nil {
		return nil, err
	}

	if survey.Status == model.SurveyStatusPublished {
		if err := s.warmPayloadCache(ctx, survey); err != nil {
			s.log.Warn().Err(err).Str("survey_id", surveyID.String()).Msg("payload cache refresh failed")
		}
	}
	return survey, nil
}

// Delete removes a survey and everything under it.
func (s *SurveyService) Delete(ctx context.Context, ownerID int, surveyID uuid.UUID) error {
	if _, err := s.GetOwned(ctx, ownerID, surveyID); err != nil {
		return err
	}
	if err := s.surveyRepo.Delete(ctx, surveyID); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.SurveyPayloadKey(surveyID.String()))
	return nil
}

// Publish moves a DRAFT survey to PUBLISHED: it requires at least one
// question, activates the permission record and warms the payload cache.
func (s *SurveyService) Publish(ctx context.Context, ownerID int, surveyID uuid.UUID) (*model.Survey, error) {
	survey, err := s.GetOwned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status != model.SurveyStatusDraft {
		return nil, ErrSurveyNotDraft
	}

	count, err := s.questionRepo.CountBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNoQuestions
	}

	if err := s.surveyRepo.UpdateStatus(ctx, surveyID, model.SurveyStatusPublished); err != nil {
		return nil, err
	}
	if err := s.permRepo.SetActive(ctx, surveyID, true); err != nil {
		return nil, err
	}
	survey.Status = model.SurveyStatusPublished

	if err := s.warmPayloadCache(ctx, survey); err != nil {
		// Cache warming is best effort, the view path falls back to Postgres.
		s.log.Warn().Err(err).Str("survey_id", surveyID.String()).Msg("payload cache warm failed")
	}

	s.log.Info().Str("survey_id", surveyID.String()).Msg("survey published")
	return survey, nil
}

// Close moves a PUBLISHED survey to CLOSED, deactivates its permission and
// evicts the payload cache.
func (s *SurveyService) Close(ctx context.Context, ownerID int, surveyID uuid.UUID) (*model.Survey, error) {
	survey, err := s.GetOwned(ctx, ownerID, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Status != model.SurveyStatusPublished {
		return nil, ErrSurveyNotPublished
	}

	if err := s.surveyRepo.UpdateStatus(ctx, surveyID, model.SurveyStatusClosed); err != nil {
		return nil, err
	}
	if err := s.permRepo.SetActive(ctx, surveyID, false); err != nil {
		return nil, err
	}
	survey.Status = model.SurveyStatusClosed

	s.rdb.Del(ctx, config.CacheKey.SurveyPayloadKey(surveyID.String()))
	s.log.Info().Str("survey_id", surveyID.String()).Msg("survey closed")
	return survey, nil
}

// GetPermission returns a survey's permission record to its owner.
func (s *SurveyService) GetPermission(ctx context.Context, ownerID int, surveyID uuid.UUID) (*model.SurveyPermission, error) {
	if _, err := s.GetOwned(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	return s.permRepo.GetBySurvey(ctx, surveyID)
}

// UpdatePermission replaces a survey's permission record wholesale. The
// allowlist is normalized and the password hashed before anything is stored,
// so the evaluator's read path never has to.
func (s *SurveyService) UpdatePermission(ctx context.Context, ownerID int, surveyID uuid.UUID, req *model.UpdatePermissionRequest) (*model.SurveyPermission, error) {
	if _, err := s.GetOwned(ctx, ownerID, surveyID); err != nil {
		return nil, err
	}
	if err := ValidatePermissionUpdate(req); err != nil {
		return nil, err
	}

	current, err := s.permRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		return nil, err
	}

	var passwordHash string
	if req.Password != "" {
		passwordHash, err = s.auth.HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash survey password: %w", err)
		}
	}

	perm := &model.SurveyPermission{
		SurveyID:       surveyID,
		PermissionType: access.PermissionType(req.PermissionType),
		AllowedEmails:  access.NormalizeEmails(req.AllowedEmails),
		PasswordHash:   passwordHash,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsActive:       current.IsActive,
	}
	if err := s.permRepo.Replace(ctx, perm); err != nil {
		return nil, err
	}
	perm.HasPassword = perm.PasswordHash != ""

	// Credentials changed, so previously minted grants must stop working.
	s.evictGrants(ctx, surveyID)

	s.log.Info().
		Str("survey_id", surveyID.String()).
		Str("permission_type", req.PermissionType).
		Msg("permission updated")
	return perm, nil
}

// PrewarmPayloadCaches loads every published survey's respondent payload into
// Redis. Called once on startup.
func (s *SurveyService) PrewarmPayloadCaches(ctx context.Context) error {
	surveys, err := s.surveyRepo.ListPublished(ctx)
	if err != nil {
		return err
	}
	for i := range surveys {
		if err := s.warmPayloadCache(ctx, &surveys[i]); err != nil {
			s.log.Warn().Err(err).Str("survey_id", surveys[i].ID.String()).Msg("prewarm failed")
			continue
		}
	}
	s.log.Info().Int("surveys", len(surveys)).Msg("payload caches prewarmed")
	return nil
}

// BuildPayload assembles the respondent-facing view of a survey from Postgres.
func (s *SurveyService) BuildPayload(ctx context.Context, survey *model.Survey) (*model.SurveyPayload, error) {
	questions, err := s.questionRepo.ListBySurvey(ctx, survey.ID)
	if err != nil {
		return nil, err
	}

	payload := &model.SurveyPayload{
		SurveyID:    survey.ID,
		Title:       survey.Title,
		Description: survey.Description,
		Questions:   make([]model.QuestionForRespondent, len(questions)),
	}
	for i, q := range questions {
		payload.Questions[i] = model.QuestionForRespondent{
			ID:           q.ID,
			QuestionText: q.QuestionText,
			QuestionType: q.QuestionType,
			Options:      q.Options,
			Required:     q.Required,
			OrderNum:     q.OrderNum,
		}
	}
	return payload, nil
}

func (s *SurveyService) warmPayloadCache(ctx context.Context, survey *model.Survey) error {
	payload, err := s.BuildPayload(ctx, survey)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, config.CacheKey.SurveyPayloadKey(survey.ID.String()), raw, 0).Err()
}

// evictGrants drops every outstanding access grant for a survey.
func (s *SurveyService) evictGrants(ctx context.Context, surveyID uuid.UUID) {
	pattern := config.CacheKey.AccessGrantKey(surveyID.String(), "*")
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		s.rdb.Del(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.log.Warn().Err(err).Str("survey_id", surveyID.String()).Msg("grant eviction scan failed")
	}
}
