package services

import (
	"context"

	"github.com/dadanbeck/canvass/internal/models"
)

// Scope is the tenant capability passed to every data access call.
//
// Nothing reads or writes rows outside the scope's tenant, even when
// a caller guesses a primary key.
type Scope struct {
	TenantID int
}

// PositionWrite sets a section's position.
type PositionWrite struct {
	ID       int
	Position int
}

// PlacementWrite sets a question's section and position together.
type PlacementWrite struct {
	ID        int
	SectionID *int
	Position  int
}

// Repository is the persistence seam for the structure engine.
//
// InTx runs fn against a transactional view of the repository; if fn
// returns an error nothing fn wrote is visible afterwards.
type Repository interface {
	InTx(ctx context.Context, fn func(Repository) error) error

	GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error)

	CreateSurvey(ctx context.Context, survey *models.Survey) error
	ListSurveys(ctx context.Context, scope Scope) ([]models.Survey, error)
	GetSurvey(ctx context.Context, scope Scope, surveyID int) (*models.Survey, error)
	MarkSurveyAdvanced(ctx context.Context, scope Scope, surveyID int, doc string) error

	ListSections(ctx context.Context, scope Scope, surveyID int) ([]models.Section, error)
	GetSection(ctx context.Context, scope Scope, sectionID int) (*models.Section, error)
	CreateSection(ctx context.Context, section *models.Section) error
	UpdateSection(ctx context.Context, section *models.Section) error
	DeleteSection(ctx context.Context, scope Scope, sectionID int) error
	UpdateSectionPositions(ctx context.Context, scope Scope, writes []PositionWrite) error

	ListQuestions(ctx context.Context, scope Scope, surveyID int) ([]models.Question, error)
	ListBucketQuestions(ctx context.Context, scope Scope, surveyID int, sectionID *int) ([]models.Question, error)
	GetQuestion(ctx context.Context, scope Scope, questionID int) (*models.Question, error)
	GetQuestionByName(ctx context.Context, scope Scope, surveyID int, name string) (*models.Question, error)
	CreateQuestion(ctx context.Context, question *models.Question) error
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeleteQuestion(ctx context.Context, scope Scope, questionID int) error
	UpdateQuestionPlacements(ctx context.Context, scope Scope, writes []PlacementWrite) error
}
