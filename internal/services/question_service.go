package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

type QuestionInput struct {
	Label     string                 `json:"label"`
	Type      models.QuestionType    `json:"type"`
	SectionID *int                   `json:"section_id"`
	Options   []string               `json:"options"`
	Config    *models.ScaleConfig    `json:"config"`
	NextMap   models.NextMap         `json:"next_map"`
	Logic     models.ConditionalList `json:"logic"`
	Name      string                 `json:"name"`
}

// Handles direct (SIMPLE mode) question management. Every mutation is
// rejected with a mode conflict once the survey is builder-managed.
type QuestionService interface {
	// List returns the survey's questions ordered by position. With a
	// bucket filter it also repairs drifted positions in that bucket.
	List(ctx context.Context, scope Scope, surveyID int) ([]models.Question, error)
	ListBucket(ctx context.Context, scope Scope, surveyID int, sectionID *int) ([]models.Question, error)
	Create(ctx context.Context, scope Scope, surveyID int, in QuestionInput) (*models.Question, error)
	Update(ctx context.Context, scope Scope, surveyID, questionID int, in QuestionInput) (*models.Question, error)
	Delete(ctx context.Context, scope Scope, surveyID, questionID int) error
	// Move places a question at (target section, target index), within
	// or across buckets, as one atomic step.
	Move(ctx context.Context, scope Scope, surveyID, questionID int, targetSection *int, targetIndex int) error
}

type questionServiceImpl struct {
	repo Repository
	gate ModeGate
}

func NewQuestionService(repo Repository) QuestionService {
	return &questionServiceImpl{repo: repo, gate: NewModeGate(repo)}
}

func (s *questionServiceImpl) List(ctx context.Context, scope Scope, surveyID int) ([]models.Question, error) {
	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}
	return s.repo.ListQuestions(ctx, scope, surveyID)
}

func (s *questionServiceImpl) ListBucket(ctx context.Context, scope Scope, surveyID int, sectionID *int) ([]models.Question, error) {
	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}

	questions, err := s.repo.ListBucketQuestions(ctx, scope, surveyID, sectionID)
	if err != nil {
		return nil, err
	}

	if !questionsContiguous(questions) {
		err = s.repo.InTx(ctx, func(tx Repository) error {
			return tx.UpdateQuestionPlacements(ctx, scope, placementWrites(questions, questionIDs(questions), sectionID))
		})
		if err != nil {
			return nil, err
		}
		for i := range questions {
			questions[i].Position = i
		}
	}

	return questions, nil
}

func (s *questionServiceImpl) Create(ctx context.Context, scope Scope, surveyID int, in QuestionInput) (*models.Question, error) {
	if _, err := s.gate.EnsureEditable(ctx, scope, surveyID); err != nil {
		return nil, err
	}
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}
	if in.SectionID != nil {
		if _, err := s.ownedSection(ctx, scope, surveyID, *in.SectionID); err != nil {
			return nil, err
		}
	}

	question := &models.Question{
		SurveyID:  surveyID,
		TenantID:  scope.TenantID,
		SectionID: in.SectionID,
		Label:     strings.TrimSpace(in.Label),
		Type:      in.Type,
		Options:   pq.StringArray(in.Options),
		Config:    in.Config,
		NextMap:   in.NextMap,
		Logic:     in.Logic,
	}

	err := s.repo.InTx(ctx, func(tx Repository) error {
		bucket, err := tx.ListBucketQuestions(ctx, scope, surveyID, in.SectionID)
		if err != nil {
			return err
		}
		question.Position = len(bucket)

		question.Name = strings.TrimSpace(in.Name)
		if question.Name == "" {
			question.Name = deriveName(question.Label, question.Position)
		}
		if _, err := tx.GetQuestionByName(ctx, scope, surveyID, question.Name); err == nil {
			return fault.NewClientError(
				fmt.Sprintf("question name %q is already taken in this survey", question.Name),
				fault.ErrUniqueViolation,
			)
		} else if !isNotFound(err) {
			return err
		}

		return tx.CreateQuestion(ctx, question)
	})
	if err != nil {
		return nil, err
	}

	return question, nil
}

func (s *questionServiceImpl) Update(ctx context.Context, scope Scope, surveyID, questionID int, in QuestionInput) (*models.Question, error) {
	if _, err := s.gate.EnsureEditable(ctx, scope, surveyID); err != nil {
		return nil, err
	}
	if err := validateQuestionInput(in); err != nil {
		return nil, err
	}

	question, err := s.ownedQuestion(ctx, scope, surveyID, questionID)
	if err != nil {
		return nil, err
	}

	// Name, position and section survive updates; the name is the
	// stable identity and placement changes go through Move.
	question.Label = strings.TrimSpace(in.Label)
	question.Type = in.Type
	question.Options = pq.StringArray(in.Options)
	question.Config = in.Config
	question.NextMap = in.NextMap
	question.Logic = in.Logic

	if err := s.repo.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}

	return question, nil
}

func (s *questionServiceImpl) Delete(ctx context.Context, scope Scope, surveyID, questionID int) error {
	if _, err := s.gate.EnsureEditable(ctx, scope, surveyID); err != nil {
		return err
	}

	question, err := s.ownedQuestion(ctx, scope, surveyID, questionID)
	if err != nil {
		return err
	}

	return s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.DeleteQuestion(ctx, scope, question.ID); err != nil {
			return err
		}
		remaining, err := tx.ListBucketQuestions(ctx, scope, surveyID, question.SectionID)
		if err != nil {
			return err
		}
		if writes := placementWrites(remaining, questionIDs(remaining), question.SectionID); len(writes) > 0 {
			return tx.UpdateQuestionPlacements(ctx, scope, writes)
		}
		return nil
	})
}

func (s *questionServiceImpl) Move(ctx context.Context, scope Scope, surveyID, questionID int, targetSection *int, targetIndex int) error {
	if _, err := s.gate.EnsureEditable(ctx, scope, surveyID); err != nil {
		return err
	}

	question, err := s.ownedQuestion(ctx, scope, surveyID, questionID)
	if err != nil {
		return err
	}
	if targetSection != nil {
		if _, err := s.ownedSection(ctx, scope, surveyID, *targetSection); err != nil {
			return err
		}
	}

	return s.repo.InTx(ctx, func(tx Repository) error {
		if sameSection(question.SectionID, targetSection) {
			bucket, err := tx.ListBucketQuestions(ctx, scope, surveyID, targetSection)
			if err != nil {
				return err
			}
			order := spliceMove(questionIDs(bucket), question.ID, targetIndex)
			if writes := placementWrites(bucket, order, targetSection); len(writes) > 0 {
				return tx.UpdateQuestionPlacements(ctx, scope, writes)
			}
			return nil
		}

		source, err := tx.ListBucketQuestions(ctx, scope, surveyID, question.SectionID)
		if err != nil {
			return err
		}
		target, err := tx.ListBucketQuestions(ctx, scope, surveyID, targetSection)
		if err != nil {
			return err
		}

		sourceOrder := removeID(questionIDs(source), question.ID)
		targetOrder := insertAt(questionIDs(target), question.ID, clampIndex(targetIndex, len(target)))

		writes := placementWrites(source, sourceOrder, question.SectionID)
		writes = append(writes, placementWrites(append(target, *question), targetOrder, targetSection)...)
		if len(writes) > 0 {
			return tx.UpdateQuestionPlacements(ctx, scope, writes)
		}
		return nil
	})
}

func (s *questionServiceImpl) ownedQuestion(ctx context.Context, scope Scope, surveyID, questionID int) (*models.Question, error) {
	question, err := s.repo.GetQuestion(ctx, scope, questionID)
	if err != nil {
		return nil, err
	}
	if question.SurveyID != surveyID {
		return nil, fault.NewClientError("question belongs to another survey", fault.ErrScopeMismatch)
	}
	return question, nil
}

func (s *questionServiceImpl) ownedSection(ctx context.Context, scope Scope, surveyID, sectionID int) (*models.Section, error) {
	section, err := s.repo.GetSection(ctx, scope, sectionID)
	if err != nil {
		return nil, err
	}
	if section.SurveyID != surveyID {
		return nil, fault.NewClientError("section belongs to another survey", fault.ErrScopeMismatch)
	}
	return section, nil
}

func validateQuestionInput(in QuestionInput) error {
	if strings.TrimSpace(in.Label) == "" {
		return fault.NewClientError("question label is required", fault.ErrValidation)
	}
	if !validQuestionType(in.Type) {
		return fault.NewClientError(fmt.Sprintf("unknown question type %q", in.Type), fault.ErrValidation)
	}
	if in.Type.IsChoice() && len(in.Options) == 0 {
		return fault.NewClientError("choice questions need at least one option", fault.ErrValidation)
	}
	if !in.Type.IsChoice() && len(in.Options) > 0 {
		return fault.NewClientError(fmt.Sprintf("%s questions do not take options", in.Type), fault.ErrValidation)
	}
	if in.Config != nil {
		if in.Type != models.TypeScale {
			return fault.NewClientError(fmt.Sprintf("%s questions do not take a scale config", in.Type), fault.ErrValidation)
		}
		if in.Config.Min >= in.Config.Max {
			return fault.NewClientError("scale config needs min < max", fault.ErrValidation)
		}
	}
	return nil
}

func validQuestionType(t models.QuestionType) bool {
	switch t {
	case models.TypeText, models.TypeTextarea, models.TypeNumber, models.TypeScale,
		models.TypeSingleChoice, models.TypeMultipleChoice, models.TypeDate,
		models.TypeEmail, models.TypePhone:
		return true
	}
	return false
}

// deriveName builds the stable name once, from label and position.
// Renames afterwards never touch it.
func deriveName(label string, position int) string {
	slug := make([]rune, 0, len(label))
	lastUnderscore := true
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			slug = append(slug, r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				slug = append(slug, '_')
				lastUnderscore = true
			}
		}
	}
	name := strings.Trim(string(slug), "_")
	if len(name) > 40 {
		name = strings.Trim(name[:40], "_")
	}
	if name == "" {
		name = "question"
	}
	return fmt.Sprintf("%s_%d", name, position+1)
}

func questionsContiguous(questions []models.Question) bool {
	for i, q := range questions {
		if q.Position != i {
			return false
		}
	}
	return true
}

func isNotFound(err error) bool {
	return errors.Is(err, fault.ErrNotFound)
}
