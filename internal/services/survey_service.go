package services

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

type SurveyInput struct {
	Title string `json:"title"`
}

// Handles the survey containers themselves. Structure lives in the
// section/question services; mode transitions in the builder sync.
type SurveyService interface {
	Create(ctx context.Context, scope Scope, in SurveyInput) (*models.Survey, error)
	List(ctx context.Context, scope Scope) ([]models.Survey, error)
	Get(ctx context.Context, scope Scope, surveyID int) (*models.Survey, error)
}

type surveyServiceImpl struct {
	repo Repository

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewSurveyService(repo Repository) SurveyService {
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &surveyServiceImpl{
		repo:    repo,
		entropy: ulid.Monotonic(src, 0),
	}
}

func (s *surveyServiceImpl) newPublicID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *surveyServiceImpl) Create(ctx context.Context, scope Scope, in SurveyInput) (*models.Survey, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fault.NewClientError("survey title is required", fault.ErrValidation)
	}

	survey := &models.Survey{
		TenantID: scope.TenantID,
		PublicID: s.newPublicID(),
		Title:    strings.TrimSpace(in.Title),
		Status:   models.StatusDraft,
		Mode:     models.ModeSimple,
	}

	if err := s.repo.CreateSurvey(ctx, survey); err != nil {
		return nil, err
	}

	return survey, nil
}

func (s *surveyServiceImpl) List(ctx context.Context, scope Scope) ([]models.Survey, error) {
	return s.repo.ListSurveys(ctx, scope)
}

func (s *surveyServiceImpl) Get(ctx context.Context, scope Scope, surveyID int) (*models.Survey, error) {
	return s.repo.GetSurvey(ctx, scope, surveyID)
}
