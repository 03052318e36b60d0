package services

import (
	"context"
	"strings"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

type SectionInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Handles the ordered sections of a survey.
type SectionService interface {
	// List returns the survey's sections ordered by position, repairing
	// stored positions when they have drifted out of contiguity.
	List(ctx context.Context, scope Scope, surveyID int) ([]models.Section, error)
	// Create appends a section at the end of the survey.
	Create(ctx context.Context, scope Scope, surveyID int, in SectionInput) (*models.Section, error)
	// Update renames or redescribes a section.
	Update(ctx context.Context, scope Scope, surveyID, sectionID int, in SectionInput) (*models.Section, error)
	// Delete removes a section and detaches its questions into the
	// survey's unassigned bucket.
	Delete(ctx context.Context, scope Scope, surveyID, sectionID int) error
	// Move places a section at target index, shifting its siblings.
	Move(ctx context.Context, scope Scope, surveyID, sectionID, targetIndex int) ([]models.Section, error)
}

type sectionServiceImpl struct {
	repo Repository
}

func NewSectionService(repo Repository) SectionService {
	return &sectionServiceImpl{repo: repo}
}

func (s *sectionServiceImpl) List(ctx context.Context, scope Scope, surveyID int) ([]models.Section, error) {
	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}

	sections, err := s.repo.ListSections(ctx, scope, surveyID)
	if err != nil {
		return nil, err
	}

	if !sectionsContiguous(sections) {
		err = s.repo.InTx(ctx, func(tx Repository) error {
			return tx.UpdateSectionPositions(ctx, scope, sectionWrites(sections, sectionIDs(sections)))
		})
		if err != nil {
			return nil, err
		}
		for i := range sections {
			sections[i].Position = i
		}
	}

	return sections, nil
}

func (s *sectionServiceImpl) Create(ctx context.Context, scope Scope, surveyID int, in SectionInput) (*models.Section, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fault.NewClientError("section title is required", fault.ErrValidation)
	}

	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}

	section := &models.Section{
		SurveyID:    surveyID,
		TenantID:    scope.TenantID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
	}

	err := s.repo.InTx(ctx, func(tx Repository) error {
		existing, err := tx.ListSections(ctx, scope, surveyID)
		if err != nil {
			return err
		}
		section.Position = len(existing)
		return tx.CreateSection(ctx, section)
	})
	if err != nil {
		return nil, err
	}

	return section, nil
}

func (s *sectionServiceImpl) Update(ctx context.Context, scope Scope, surveyID, sectionID int, in SectionInput) (*models.Section, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fault.NewClientError("section title is required", fault.ErrValidation)
	}

	section, err := s.ownedSection(ctx, scope, surveyID, sectionID)
	if err != nil {
		return nil, err
	}

	section.Title = strings.TrimSpace(in.Title)
	section.Description = in.Description

	if err := s.repo.UpdateSection(ctx, section); err != nil {
		return nil, err
	}

	return section, nil
}

func (s *sectionServiceImpl) Delete(ctx context.Context, scope Scope, surveyID, sectionID int) error {
	section, err := s.ownedSection(ctx, scope, surveyID, sectionID)
	if err != nil {
		return err
	}

	return s.repo.InTx(ctx, func(tx Repository) error {
		detached, err := tx.ListBucketQuestions(ctx, scope, surveyID, &section.ID)
		if err != nil {
			return err
		}
		bucket, err := tx.ListBucketQuestions(ctx, scope, surveyID, nil)
		if err != nil {
			return err
		}

		// Detached questions join the end of the unassigned bucket in
		// their former section order.
		order := append(questionIDs(bucket), questionIDs(detached)...)
		merged := append(append([]models.Question{}, bucket...), detached...)
		if writes := placementWrites(merged, order, nil); len(writes) > 0 {
			if err := tx.UpdateQuestionPlacements(ctx, scope, writes); err != nil {
				return err
			}
		}

		if err := tx.DeleteSection(ctx, scope, section.ID); err != nil {
			return err
		}

		remaining, err := tx.ListSections(ctx, scope, surveyID)
		if err != nil {
			return err
		}
		if writes := sectionWrites(remaining, sectionIDs(remaining)); len(writes) > 0 {
			return tx.UpdateSectionPositions(ctx, scope, writes)
		}
		return nil
	})
}

func (s *sectionServiceImpl) Move(ctx context.Context, scope Scope, surveyID, sectionID, targetIndex int) ([]models.Section, error) {
	if _, err := s.ownedSection(ctx, scope, surveyID, sectionID); err != nil {
		return nil, err
	}

	var moved []models.Section
	err := s.repo.InTx(ctx, func(tx Repository) error {
		sections, err := tx.ListSections(ctx, scope, surveyID)
		if err != nil {
			return err
		}
		order := spliceMove(sectionIDs(sections), sectionID, targetIndex)
		if writes := sectionWrites(sections, order); len(writes) > 0 {
			if err := tx.UpdateSectionPositions(ctx, scope, writes); err != nil {
				return err
			}
		}
		moved, err = tx.ListSections(ctx, scope, surveyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return moved, nil
}

// ownedSection loads a section and verifies it belongs to the claimed
// survey; a section of another survey is a scope mismatch, not a 404.
func (s *sectionServiceImpl) ownedSection(ctx context.Context, scope Scope, surveyID, sectionID int) (*models.Section, error) {
	section, err := s.repo.GetSection(ctx, scope, sectionID)
	if err != nil {
		return nil, err
	}
	if section.SurveyID != surveyID {
		return nil, fault.NewClientError("section belongs to another survey", fault.ErrScopeMismatch)
	}
	return section, nil
}

func sectionsContiguous(sections []models.Section) bool {
	for i, s := range sections {
		if s.Position != i {
			return false
		}
	}
	return true
}
