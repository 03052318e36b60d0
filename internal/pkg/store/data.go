package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/internal/pkg/paginator"
	"github.com/dadanbeck/canvass/internal/services"
	"github.com/dadanbeck/canvass/pkg/fault"
)

// PostgresStore implements services.Repository over sqlx. A store
// handed to an InTx callback shares one transaction; everything a
// logical operation writes commits or rolls back together.
type PostgresStore struct {
	db   sqlx.ExtContext
	base *sqlx.DB // nil inside a transaction
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db, base: db}
}

func (s *PostgresStore) InTx(ctx context.Context, fn func(services.Repository) error) error {
	if s.base == nil {
		return fn(s)
	}

	tx, err := s.base.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	if err := fn(&PostgresStore{db: tx}); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

func (s *PostgresStore) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := sqlx.GetContext(ctx, s.db, &tenant,
		`SELECT id, name, slug FROM tenants WHERE slug = $1`, slug)
	if err != nil {
		return nil, mapError(err)
	}
	return &tenant, nil
}

func (s *PostgresStore) CreateSurvey(ctx context.Context, survey *models.Survey) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO surveys (tenant_id, public_id, title, status, mode)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, survey.TenantID, survey.PublicID, survey.Title, survey.Status, survey.Mode).
		Scan(&survey.ID, &survey.CreatedAt, &survey.UpdatedAt)
	return mapError(err)
}

func (s *PostgresStore) ListSurveys(ctx context.Context, scope services.Scope) ([]models.Survey, error) {
	surveys := []models.Survey{}
	err := sqlx.SelectContext(ctx, s.db, &surveys, `
		SELECT id, tenant_id, public_id, title, status, mode, builder_doc, created_at, updated_at
		FROM surveys
		WHERE tenant_id = $1
		ORDER BY id
	`, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return surveys, nil
}

func (s *PostgresStore) GetSurvey(ctx context.Context, scope services.Scope, surveyID int) (*models.Survey, error) {
	var survey models.Survey
	err := sqlx.GetContext(ctx, s.db, &survey, `
		SELECT id, tenant_id, public_id, title, status, mode, builder_doc, created_at, updated_at
		FROM surveys
		WHERE id = $1 AND tenant_id = $2
	`, surveyID, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return &survey, nil
}

func (s *PostgresStore) MarkSurveyAdvanced(ctx context.Context, scope services.Scope, surveyID int, doc string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE surveys
		SET mode = $1, builder_doc = $2, updated_at = NOW()
		WHERE id = $3 AND tenant_id = $4
	`, models.ModeAdvanced, doc, surveyID, scope.TenantID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) ListSections(ctx context.Context, scope services.Scope, surveyID int) ([]models.Section, error) {
	sections := []models.Section{}
	err := sqlx.SelectContext(ctx, s.db, &sections, `
		SELECT id, survey_id, tenant_id, title, description, position
		FROM sections
		WHERE survey_id = $1 AND tenant_id = $2
		ORDER BY position, id
	`, surveyID, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return sections, nil
}

func (s *PostgresStore) GetSection(ctx context.Context, scope services.Scope, sectionID int) (*models.Section, error) {
	var section models.Section
	err := sqlx.GetContext(ctx, s.db, &section, `
		SELECT id, survey_id, tenant_id, title, description, position
		FROM sections
		WHERE id = $1 AND tenant_id = $2
	`, sectionID, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return &section, nil
}

func (s *PostgresStore) CreateSection(ctx context.Context, section *models.Section) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO sections (survey_id, tenant_id, title, description, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, section.SurveyID, section.TenantID, section.Title, section.Description, section.Position).
		Scan(&section.ID)
	return mapError(err)
}

func (s *PostgresStore) UpdateSection(ctx context.Context, section *models.Section) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sections
		SET title = $1, description = $2
		WHERE id = $3 AND tenant_id = $4
	`, section.Title, section.Description, section.ID, section.TenantID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteSection(ctx context.Context, scope services.Scope, sectionID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sections WHERE id = $1 AND tenant_id = $2`, sectionID, scope.TenantID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateSectionPositions(ctx context.Context, scope services.Scope, writes []services.PositionWrite) error {
	for _, w := range writes {
		res, err := s.db.ExecContext(ctx, `
			UPDATE sections SET position = $1 WHERE id = $2 AND tenant_id = $3
		`, w.Position, w.ID, scope.TenantID)
		if err != nil {
			return mapError(err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
	}
	return nil
}

const questionColumns = `id, survey_id, tenant_id, section_id, name, label, question_type, position, options, config, next_map, logic`

func (s *PostgresStore) ListQuestions(ctx context.Context, scope services.Scope, surveyID int) ([]models.Question, error) {
	questions := []models.Question{}
	err := sqlx.SelectContext(ctx, s.db, &questions, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE survey_id = $1 AND tenant_id = $2
		ORDER BY position, id
	`, surveyID, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return questions, nil
}

func (s *PostgresStore) ListBucketQuestions(ctx context.Context, scope services.Scope, surveyID int, sectionID *int) ([]models.Question, error) {
	questions := []models.Question{}
	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE survey_id = $1 AND tenant_id = $2 AND section_id IS NULL
		ORDER BY position, id`
	args := []any{surveyID, scope.TenantID}
	if sectionID != nil {
		query = `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE survey_id = $1 AND tenant_id = $2 AND section_id = $3
		ORDER BY position, id`
		args = append(args, *sectionID)
	}
	if err := sqlx.SelectContext(ctx, s.db, &questions, query, args...); err != nil {
		return nil, mapError(err)
	}
	return questions, nil
}

func (s *PostgresStore) GetQuestion(ctx context.Context, scope services.Scope, questionID int) (*models.Question, error) {
	var question models.Question
	err := sqlx.GetContext(ctx, s.db, &question, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE id = $1 AND tenant_id = $2
	`, questionID, scope.TenantID)
	if err != nil {
		return nil, mapError(err)
	}
	return &question, nil
}

func (s *PostgresStore) GetQuestionByName(ctx context.Context, scope services.Scope, surveyID int, name string) (*models.Question, error) {
	var question models.Question
	err := sqlx.GetContext(ctx, s.db, &question, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE survey_id = $1 AND tenant_id = $2 AND name = $3
	`, surveyID, scope.TenantID, name)
	if err != nil {
		return nil, mapError(err)
	}
	return &question, nil
}

func (s *PostgresStore) CreateQuestion(ctx context.Context, question *models.Question) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO questions (survey_id, tenant_id, section_id, name, label, question_type, position, options, config, next_map, logic)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, question.SurveyID, question.TenantID, question.SectionID, question.Name,
		question.Label, question.Type, question.Position, question.Options,
		question.Config, question.NextMap, question.Logic).
		Scan(&question.ID)
	return mapError(err)
}

func (s *PostgresStore) UpdateQuestion(ctx context.Context, question *models.Question) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE questions
		SET section_id = $1, label = $2, question_type = $3, position = $4,
			options = $5, config = $6, next_map = $7, logic = $8
		WHERE id = $9 AND tenant_id = $10
	`, question.SectionID, question.Label, question.Type, question.Position,
		question.Options, question.Config, question.NextMap, question.Logic,
		question.ID, question.TenantID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) DeleteQuestion(ctx context.Context, scope services.Scope, questionID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM questions WHERE id = $1 AND tenant_id = $2`, questionID, scope.TenantID)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (s *PostgresStore) UpdateQuestionPlacements(ctx context.Context, scope services.Scope, writes []services.PlacementWrite) error {
	for _, w := range writes {
		res, err := s.db.ExecContext(ctx, `
			UPDATE questions SET section_id = $1, position = $2 WHERE id = $3 AND tenant_id = $4
		`, w.SectionID, w.Position, w.ID, scope.TenantID)
		if err != nil {
			return mapError(err)
		}
		if err := requireRow(res); err != nil {
			return err
		}
	}
	return nil
}

// QuestionPager serves paginated question listings straight from the
// database, reusing the canonical column list.
type QuestionPager struct {
	pages paginator.Paginator[models.Question]
}

func NewQuestionPager(db *sqlx.DB) *QuestionPager {
	return &QuestionPager{pages: paginator.NewPaginator[models.Question](db)}
}

func (p *QuestionPager) Page(ctx context.Context, scope services.Scope, surveyID, page, limit int) (*paginator.PaginatedResponse[models.Question], error) {
	return p.pages.PaginateQuery(ctx, `
		SELECT `+questionColumns+`
		FROM questions
		WHERE survey_id = $1 AND tenant_id = $2
		ORDER BY position, id`,
		[]any{surveyID, scope.TenantID}, page, limit)
}

// mapError translates driver errors into the fault sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fault.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return fault.ErrUniqueViolation
		case "23503":
			return fault.ErrForeignKeyViolation
		}
	}
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fault.ErrNotFound
	}
	return nil
}
