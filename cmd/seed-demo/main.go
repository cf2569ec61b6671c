package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/formpulse/formpulse-backend/internal/access"
	"github.com/formpulse/formpulse-backend/internal/config"
	"github.com/formpulse/formpulse-backend/internal/database"
	"github.com/formpulse/formpulse-backend/internal/logger"
	"github.com/formpulse/formpulse-backend/internal/model"
	"github.com/formpulse/formpulse-backend/internal/repository"
	"github.com/formpulse/formpulse-backend/internal/service"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoEmail    = "demo@formpulse.dev"
	demoPassword = "demo-password"
	responseN    = 120
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)
	surveyRepo := repository.NewSurveyRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	permRepo := repository.NewPermissionRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	userService := service.NewUserService(userRepo)

	fmt.Println("=== Seeding Demo Survey ===")

	// ─── Demo Account ──────────────────────────────────────────────────
	owner, err := userService.GetByEmail(ctx, demoEmail)
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check demo account")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), cfg.BcryptCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		owner, err = userService.Register(ctx, "Demo Owner", demoEmail, string(hash))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create demo account")
		}
		fmt.Printf("Created demo account %s (id %d)\n", demoEmail, owner.ID)
	} else {
		fmt.Printf("Found existing demo account (id %d)\n", owner.ID)
	}

	// ─── Survey + Questions ────────────────────────────────────────────
	survey := &model.Survey{
		Title:       "Product Satisfaction Survey",
		Description: "Tell us how we are doing. Takes about two minutes.",
		OwnerID:     owner.ID,
		Status:      model.SurveyStatusPublished,
	}
	if err := surveyRepo.Create(ctx, survey); err != nil {
		log.Fatal().Err(err).Msg("Failed to create survey")
	}

	choices, _ := json.Marshal([]string{"Daily", "Weekly", "Monthly", "Rarely"})
	questions := []model.Question{
		{QuestionText: "How often do you use the product?", QuestionType: model.QuestionTypeSingleChoice, Options: choices, Required: true, OrderNum: 0},
		{QuestionText: "How satisfied are you overall?", QuestionType: model.QuestionTypeRating, Required: true, OrderNum: 1},
		{QuestionText: "What would you improve?", QuestionType: model.QuestionTypeText, Required: false, OrderNum: 2},
	}
	if err := questionRepo.ReplaceAll(ctx, survey.ID, questions); err != nil {
		log.Fatal().Err(err).Msg("Failed to create questions")
	}

	perm := &model.SurveyPermission{
		SurveyID:       survey.ID,
		PermissionType: access.TypePublic,
		IsActive:       true,
	}
	if err := permRepo.Create(ctx, perm); err != nil {
		log.Fatal().Err(err).Msg("Failed to create permission")
	}

	// ─── Responses ─────────────────────────────────────────────────────
	rng := rand.New(rand.NewSource(42))
	devices := []string{"desktop", "mobile", "tablet"}
	locations := []string{"US", "DE", "ID", "BR", "JP"}
	ages := []string{"18-24", "25-34", "35-44", "45-54"}
	frequencies := []string{"Daily", "Weekly", "Monthly", "Rarely"}

	seeded := 0
	for i := 0; i < responseN; i++ {
		resp := &model.SurveyResponse{
			SurveyID:   survey.ID,
			Status:     model.ResponseStatusInProgress,
			Device:     devices[rng.Intn(len(devices))],
			Location:   locations[rng.Intn(len(locations))],
			AgeBracket: ages[rng.Intn(len(ages))],
		}
		if err := responseRepo.Create(ctx, resp); err != nil {
			log.Fatal().Err(err).Msg("Failed to create response")
		}

		// Spread starts over the last two weeks.
		startedAt := time.Now().AddDate(0, 0, -rng.Intn(14)).Add(-time.Duration(rng.Intn(12)) * time.Hour)
		if _, err := pool.Exec(ctx,
			`UPDATE responses SET started_at = $2 WHERE id = $1`, resp.ID, startedAt); err != nil {
			log.Fatal().Err(err).Msg("Failed to backdate response")
		}

		// Simulate sequential drop-off: everyone answers Q1, most Q2, some Q3.
		answers := 1 + rng.Intn(3)
		for q := 0; q < answers; q++ {
			var value any
			switch questions[q].QuestionType {
			case model.QuestionTypeSingleChoice:
				value = frequencies[rng.Intn(len(frequencies))]
			case model.QuestionTypeRating:
				value = 1 + rng.Intn(5)
			default:
				value = "More integrations would be great."
			}
			raw, _ := json.Marshal(value)
			seconds := 5 + rng.Float64()*40
			if _, err := pool.Exec(ctx,
				`INSERT INTO answers (response_id, question_id, value, seconds_spent)
				 VALUES ($1, $2, $3::jsonb, $4)`,
				resp.ID, questions[q].ID, string(raw), seconds); err != nil {
				log.Fatal().Err(err).Msg("Failed to insert answer")
			}
		}

		// Roughly 70% complete.
		if rng.Intn(10) < 7 {
			completedAt := startedAt.Add(time.Duration(60+rng.Intn(300)) * time.Second)
			if _, err := pool.Exec(ctx,
				`UPDATE responses SET status = 'completed', completed_at = $2 WHERE id = $1`,
				resp.ID, completedAt); err != nil {
				log.Fatal().Err(err).Msg("Failed to complete response")
			}
		}
		seeded++
	}

	fmt.Printf("Seeded survey %s with %d responses\n", survey.ID, seeded)
	fmt.Printf("Sign in with %s / %s\n", demoEmail, demoPassword)
}
