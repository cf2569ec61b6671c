package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/metrics"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Respondent flow errors.
var (
	ErrResponseCompleted = errors.New("response already submitted")
	ErrResponseMismatch  = errors.New("response does not belong to this survey")
)

// AccessCredentials carries everything a respondent request presents:
// self-supplied email and survey password, a previously minted grant token,
// and the authenticated identity when a session is attached.
type AccessCredentials struct {
	Email      string
	Password   string
	GrantToken string

	AuthenticatedUserID int
	AuthenticatedEmail  string
}

// SurveyView is the outcome of a respondent's view request. Payload is only
// set when the decision allows; GrantToken is set when the survey is
// protected so follow-up requests skip the credential dance.
type SurveyView struct {
	Decision   access.Decision      `json:"decision"`
	Payload    *model.SurveyPayload `json:"payload,omitempty"`
	GrantToken string               `json:"grant_token,omitempty"`
}

// RespondService drives the respondent flow: viewing a survey through the
// access evaluator, opening a response, autosaving answers into Redis and
// submitting through the persistence queues.
type RespondService struct {
	surveyRepo   *repository.SurveyRepository
	permRepo     *repository.PermissionRepository
	responseRepo *repository.ResponseRepository
	surveys      *SurveyService
	rdb          *redis.Client
	metrics      *metrics.Metrics
	cfg          *config.Config
	log          zerolog.Logger

	// now is swappable so access-window behavior is testable.
	now func() time.Time
}

// NewRespondService creates a new RespondService.
func NewRespondService(
	surveyRepo *repository.SurveyRepository,
	permRepo *repository.PermissionRepository,
	responseRepo *repository.ResponseRepository,
	surveys *SurveyService,
	rdb *redis.Client,
	m *metrics.Metrics,
	cfg *config.Config,
	logger zerolog.Logger,
) *RespondService {
	return &RespondService{
		surveyRepo:   surveyRepo,
		permRepo:     permRepo,
		responseRepo: responseRepo,
		surveys:      surveys,
		rdb:          rdb,
		metrics:      m,
		cfg:          cfg,
		log:          logger.With().Str("component", "respond_service").Logger(),
		now:          time.Now,
	}
}

// authorize resolves a grant token if one is supplied, otherwise runs the
// access evaluator against the stored permission. It returns the permission
// alongside the decision so callers can decide whether to mint a grant.
func (s *RespondService) authorize(ctx context.Context, surveyID uuid.UUID, creds AccessCredentials) (access.Decision, *model.SurveyPermission, bool, error) {
	perm, err := s.permRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		return access.Decision{}, nil, false, err
	}

	if creds.GrantToken != "" {
		key := config.CacheKey.AccessGrantKey(surveyID.String(), creds.GrantToken)
		n, err := s.rdb.Exists(ctx, key).Result()
		if err != nil {
			return access.Decision{}, nil, false, fmt.Errorf("check grant: %w", err)
		}
		if n > 0 {
			// The grant was minted by a previous allow; the permission is
			// still consulted for the active flag and window so a survey
			// closed mid-session stops accepting immediately.
			d := access.Evaluate(windowOnly(perm), access.Attempt{Now: s.now()})
			s.metrics.ObserveDecision(d.Reason)
			return d, perm, d.Allowed, nil
		}
		// Expired or revoked token falls through to full evaluation.
	}

	attempt := access.Attempt{
		SuppliedEmail:    creds.Email,
		SuppliedPassword: creds.Password,
		SuppliedToken:    creds.GrantToken,
		Now:              s.now(),
	}
	if creds.AuthenticatedUserID != 0 {
		attempt.AuthenticatedUserID = fmt.Sprintf("%d", creds.AuthenticatedUserID)
		attempt.AuthenticatedEmail = creds.AuthenticatedEmail
	}

	d := access.Evaluate(perm.ToAccess(), attempt)
	s.metrics.ObserveDecision(d.Reason)
	return d, perm, false, nil
}

// windowDecision re-evaluates only the active flag and time window for a
// survey. Writes against an already-open response never re-prompt for
// credentials, but a survey closed or expired mid-session must stop
// accepting them immediately.
func (s *RespondService) windowDecision(ctx context.Context, surveyID uuid.UUID) (access.Decision, error) {
	perm, err := s.permRepo.GetBySurvey(ctx, surveyID)
	if err != nil {
		return access.Decision{}, err
	}
	d := access.Evaluate(windowOnly(perm), access.Attempt{Now: s.now()})
	s.metrics.ObserveDecision(d.Reason)
	return d, nil
}

// windowOnly strips the identity and password gates from a permission,
// keeping only the active flag and time window. Used when a valid grant
// already vouches for the credentials.
func windowOnly(p *model.SurveyPermission) access.Permission {
	return access.Permission{
		SurveyID:  p.SurveyID,
		Type:      access.TypePublic,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		IsActive:  p.IsActive,
	}
}

// ViewSurvey evaluates access and, when allowed, returns the respondent
// payload. Denials are ordinary results carried in the decision, not errors.
func (s *RespondService) ViewSurvey(ctx context.Context, surveyID uuid.UUID, creds AccessCredentials) (*SurveyView, error) {
	decision, perm, viaGrant, err := s.authorize(ctx, surveyID, creds)
	if err != nil {
		return nil, err
	}

	view := &SurveyView{Decision: decision}
	if !decision.Allowed {
		s.log.Debug().
			Str("survey_id", surveyID.String()).
			Str("reason", string(decision.Reason)).
			Msg("access denied")
		return view, nil
	}

	if viaGrant {
		view.GrantToken = creds.GrantToken
	} else if perm.Protected() {
		token, err := s.mintGrant(ctx, surveyID)
		if err != nil {
			return nil, err
		}
		view.GrantToken = token
	}

	payload, err := s.loadPayload(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	view.Payload = payload
	return view, nil
}

// OpenResponse starts an in-progress response after re-checking access.
func (s *RespondService) OpenResponse(ctx context.Context, surveyID uuid.UUID, creds AccessCredentials, req *model.OpenResponseRequest, device string) (*model.SurveyResponse, *access.Decision, error) {
	decision, _, _, err := s.authorize(ctx, surveyID, creds)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		return nil, &decision, nil
	}

	resp := &model.SurveyResponse{
		SurveyID:   surveyID,
		Status:     model.ResponseStatusInProgress,
		Device:     device,
		Location:   req.Location,
		AgeBracket: req.AgeBracket,
	}
	if creds.AuthenticatedUserID != 0 {
		id := creds.AuthenticatedUserID
		resp.RespondentID = &id
	}
	if err := s.responseRepo.Create(ctx, resp); err != nil {
		return nil, nil, err
	}

	s.metrics.ResponsesOpened.Inc()
	return resp, &decision, nil
}

// Autosave buffers one answer in Redis and queues it for bulk persistence.
// The response keeps collecting edits until submit; later autosaves of the
// same question overwrite earlier ones in both the buffer and the database.
// A non-allowed decision means the survey stopped accepting writes.
func (s *RespondService) Autosave(ctx context.Context, surveyID, responseID uuid.UUID, req *model.AutosaveAnswerRequest) (*access.Decision, error) {
	decision, err := s.windowDecision(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &decision, nil
	}

	resp, err := s.openResponseFor(ctx, surveyID, responseID)
	if err != nil {
		return nil, err
	}

	job := model.PersistAnswerJob{
		ResponseID:   resp.ID,
		QuestionID:   uuid.MustParse(req.QuestionID),
		Value:        req.Value,
		SecondsSpent: req.SecondsSpent,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	bufferKey := config.CacheKey.ResponseAnswersKey(surveyID.String(), responseID.String())
	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, bufferKey, req.QuestionID, string(req.Value))
	pipe.Expire(ctx, bufferKey, 24*time.Hour)
	pipe.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("buffer answer: %w", err)
	}

	s.metrics.AnswersAutosaved.Inc()
	return &decision, nil
}

// Submit finalizes a response: it queues the completion for persistence and
// publishes a live event for dashboard subscribers. The worker owns the
// database write so bursts of submissions coalesce into batched updates.
// A non-allowed decision means the survey stopped accepting writes.
func (s *RespondService) Submit(ctx context.Context, surveyID, responseID uuid.UUID) (*access.Decision, error) {
	decision, err := s.windowDecision(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &decision, nil
	}

	resp, err := s.openResponseFor(ctx, surveyID, responseID)
	if err != nil {
		return nil, err
	}

	completedAt := s.now()
	job := model.PersistSubmissionJob{
		SurveyID:    surveyID,
		ResponseID:  resp.ID,
		CompletedAt: completedAt,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, raw).Err(); err != nil {
		return nil, fmt.Errorf("queue submission: %w", err)
	}

	event := model.LiveEvent{
		Type:        model.LiveEventResponseSubmitted,
		SurveyID:    surveyID,
		ResponseID:  resp.ID,
		CompletedAt: completedAt,
	}
	if eventRaw, err := json.Marshal(event); err == nil {
		if err := s.rdb.Publish(ctx, config.CacheKey.SurveyLiveChannel(surveyID.String()), eventRaw).Err(); err != nil {
			s.log.Warn().Err(err).Str("survey_id", surveyID.String()).Msg("live event publish failed")
		}
	}

	s.metrics.ResponsesSubmitted.Inc()
	s.log.Debug().
		Str("survey_id", surveyID.String()).
		Str("response_id", responseID.String()).
		Msg("response submitted")
	return &decision, nil
}

// openResponseFor loads a response and verifies it belongs to the survey and
// is still in progress.
func (s *RespondService) openResponseFor(ctx context.Context, surveyID, responseID uuid.UUID) (*model.SurveyResponse, error) {
	resp, err := s.responseRepo.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if resp.SurveyID != surveyID {
		return nil, ErrResponseMismatch
	}
	if resp.Status != model.ResponseStatusInProgress {
		return nil, ErrResponseCompleted
	}
	return resp, nil
}

func (s *RespondService) mintGrant(ctx context.Context, surveyID uuid.UUID) (string, error) {
	token := uuid.New().String()
	key := config.CacheKey.AccessGrantKey(surveyID.String(), token)
	if err := s.rdb.Set(ctx, key, "1", s.cfg.GrantTTL).Err(); err != nil {
		return "", fmt.Errorf("mint grant: %w", err)
	}
	return token, nil
}

// loadPayload serves the cached respondent payload, rebuilding it from
// Postgres on a miss.
func (s *RespondService) loadPayload(ctx context.Context, surveyID uuid.UUID) (*model.SurveyPayload, error) {
	key := config.CacheKey.SurveyPayloadKey(surveyID.String())
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		payload := &model.SurveyPayload{}
		if err := json.Unmarshal(raw, payload); err == nil {
			return payload, nil
		}
		// A corrupt cache entry falls through to the rebuild path.
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	survey, err := s.surveyRepo.GetByID(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	payload, err := s.surveys.BuildPayload(ctx, survey)
	if err != nil {
		return nil, err
	}
	if rebuilt, err := json.Marshal(payload); err == nil {
		s.rdb.Set(ctx, key, rebuilt, 0)
	}
	return payload, nil
}
