package services

import (
	"context"
	"fmt"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

// ModeGate enforces the two authoring modes a survey can be in.
//
// SIMPLE surveys accept direct question edits. Once a builder document
// has been synced the survey is ADVANCED and every direct question
// mutation is rejected; there is no way back to SIMPLE.
type ModeGate struct {
	repo Repository
}

func NewModeGate(repo Repository) ModeGate {
	return ModeGate{repo: repo}
}

// EnsureEditable loads the survey and rejects if its question set is
// builder-managed. Returns the survey so callers skip a second lookup.
func (g ModeGate) EnsureEditable(ctx context.Context, scope Scope, surveyID int) (*models.Survey, error) {
	survey, err := g.repo.GetSurvey(ctx, scope, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Mode == models.ModeAdvanced {
		return nil, fault.NewClientError(
			fmt.Sprintf("survey %d is builder-managed, edit it through the builder sync", surveyID),
			fault.ErrModeConflict,
		)
	}
	return survey, nil
}
