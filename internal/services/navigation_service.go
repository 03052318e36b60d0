package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

// Holds the state of the respondent on the survey.
//
// Typically what question they are on when they pause or leave it.
type Session struct {
	ID        string         `json:"id"`
	SurveyID  int            `json:"survey_id"`
	Answers   map[string]any `json:"answers"` // keyed by question name
	CurrentID int            `json:"current_id"`
	Completed bool           `json:"completed"`
}

// Walks a respondent through a survey using the structural branch
// graph: expression rules first, then the answered value's next-map
// entry, then plain document order.
type NavigationService interface {
	// Answer records the answer and returns the question that follows,
	// or nil when the survey is complete.
	Answer(ctx context.Context, scope Scope, surveyID int, session *Session, questionID int, answer any) (*models.Question, error)
	// NextQuestionID resolves the follow-up for one question given the
	// answers so far. Zero means fall through to document order.
	NextQuestionID(question models.Question, answer any, answers map[string]any) (int, error)
}

type navigationServiceImpl struct {
	repo Repository
}

func NewNavigationService(repo Repository) NavigationService {
	return &navigationServiceImpl{repo: repo}
}

func (s *navigationServiceImpl) Answer(ctx context.Context, scope Scope, surveyID int, session *Session, questionID int, answer any) (*models.Question, error) {
	if session.Completed {
		return nil, fault.NewClientError("survey already completed", fault.ErrValidation)
	}
	// A session sticks with the survey it started on; a fresh one
	// adopts it here.
	if session.SurveyID == 0 {
		session.SurveyID = surveyID
	} else if session.SurveyID != surveyID {
		return nil, fault.NewClientError("session belongs to another survey", fault.ErrValidation)
	}

	questions, err := s.repo.ListQuestions(ctx, scope, surveyID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int]int, len(questions)) // id -> slice index
	for i, q := range questions {
		byID[q.ID] = i
	}

	idx, ok := byID[questionID]
	if !ok {
		return nil, fault.NewClientError("question is not part of this survey", fault.ErrNotFound)
	}
	current := questions[idx]

	if session.Answers == nil {
		session.Answers = make(map[string]any)
	}
	session.Answers[current.Name] = answer

	nextID, err := s.NextQuestionID(current, answer, session.Answers)
	if err != nil {
		return nil, err
	}

	if nextID != 0 {
		nextIdx, exists := byID[nextID]
		if !exists {
			return nil, fault.NewClientError(
				fmt.Sprintf("branch target %d no longer exists", nextID),
				fault.ErrNotFound,
			)
		}
		next := questions[nextIdx]
		session.CurrentID = next.ID
		return &next, nil
	}

	// No rule fired: continue in document order.
	if idx+1 < len(questions) {
		next := questions[idx+1]
		session.CurrentID = next.ID
		return &next, nil
	}

	session.Completed = true
	session.CurrentID = 0
	return nil, nil
}

func (s *navigationServiceImpl) NextQuestionID(question models.Question, answer any, answers map[string]any) (int, error) {
	for _, cond := range question.Logic {
		match, err := evaluateExpression(cond.Expression, answers)
		if err != nil {
			return 0, fault.NewClientError(
				fmt.Sprintf("bad routing expression on question %q", question.Name), err,
			)
		}
		if match {
			return cond.NextID, nil
		}
	}

	if target, ok := question.NextMap[fmt.Sprintf("%v", answer)]; ok {
		return target, nil
	}

	return 0, nil
}

func evaluateExpression(expression string, input map[string]any) (bool, error) {
	program, err := expr.Compile(expression, expr.Env(input))
	if err != nil {
		return false, err
	}

	output, err := expr.Run(program, input)
	if err != nil {
		return false, err
	}

	result, ok := output.(bool)
	if !ok {
		return false, errors.New("expression did not return a boolean")
	}

	return result, nil
}
