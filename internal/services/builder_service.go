package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/pkg/fault"
)

// External builder document: pages hold elements, an element may be a
// panel nesting further elements. Only the fields the reconciler reads
// are modeled; the raw document is stored verbatim next to the derived
// rows so later flattenings replay from the same source.
type BuilderDocument struct {
	Title string        `json:"title"`
	Pages []BuilderPage `json:"pages"`
}

type BuilderPage struct {
	Name     string           `json:"name"`
	Title    string           `json:"title"`
	Elements []BuilderElement `json:"elements"`
}

type BuilderElement struct {
	Type      string           `json:"type"`
	Name      string           `json:"name"`
	Title     string           `json:"title"`
	InputType string           `json:"inputType"`
	Choices   []BuilderChoice  `json:"choices"`
	RateMin   int              `json:"rateMin"`
	RateMax   int              `json:"rateMax"`
	Elements  []BuilderElement `json:"elements"`
}

// A choice is either a bare string or a {value, text} object.
type BuilderChoice struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

func (c *BuilderChoice) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		c.Value = plain
		c.Text = plain
		return nil
	}
	type alias BuilderChoice
	return json.Unmarshal(data, (*alias)(c))
}

const ReasonMissingName = "MISSING_NAME"

// SyncIssue reports one element that could not be reconciled. The rest
// of the document still imports.
type SyncIssue struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

type SyncReport struct {
	Created   int         `json:"created"`
	Updated   int         `json:"updated"`
	Unchanged int         `json:"unchanged"`
	Issues    []SyncIssue `json:"issues"`
}

// A question descriptor lifted out of the nested document.
type flatElement struct {
	name    string
	label   string
	qtype   models.QuestionType
	options []string
	config  *models.ScaleConfig
}

// Reconciles an external builder document into the canonical flat
// question list of a survey.
type BuilderService interface {
	// Sync flattens the document and upserts questions keyed by their
	// stable name, flipping the survey to ADVANCED. Questions absent
	// from the document are left in place; pruning them is a separate,
	// explicit call.
	Sync(ctx context.Context, scope Scope, surveyID int, raw json.RawMessage) (*SyncReport, error)
	// Prune deletes the survey's questions whose names no longer occur
	// in the stored builder document.
	Prune(ctx context.Context, scope Scope, surveyID int) (int, error)
}

type builderServiceImpl struct {
	repo Repository
}

func NewBuilderService(repo Repository) BuilderService {
	return &builderServiceImpl{repo: repo}
}

func (s *builderServiceImpl) Sync(ctx context.Context, scope Scope, surveyID int, raw json.RawMessage) (*SyncReport, error) {
	var doc BuilderDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fault.NewClientError("builder document is not valid JSON", fault.ErrValidation)
	}
	if _, err := s.repo.GetSurvey(ctx, scope, surveyID); err != nil {
		return nil, err
	}

	flat, issues := flattenDocument(doc)
	report := &SyncReport{Issues: issues}

	err := s.repo.InTx(ctx, func(tx Repository) error {
		for i, el := range flat {
			position := i + 1 // document order, 1-based

			existing, err := tx.GetQuestionByName(ctx, scope, surveyID, el.name)
			if err != nil && !isNotFound(err) {
				return err
			}

			if existing == nil {
				question := &models.Question{
					SurveyID: surveyID,
					TenantID: scope.TenantID,
					Name:     el.name,
					Label:    el.label,
					Type:     el.qtype,
					Position: position,
					Options:  pq.StringArray(el.options),
					Config:   el.config,
				}
				if err := tx.CreateQuestion(ctx, question); err != nil {
					return err
				}
				report.Created++
				continue
			}

			if questionMatches(existing, el, position) {
				report.Unchanged++
				continue
			}

			// Branching and logic live on the row, not in the document;
			// a re-import must not wipe them.
			existing.Label = el.label
			existing.Type = el.qtype
			existing.Position = position
			existing.SectionID = nil
			existing.Options = pq.StringArray(el.options)
			existing.Config = el.config
			if err := tx.UpdateQuestion(ctx, existing); err != nil {
				return err
			}
			report.Updated++
		}

		return tx.MarkSurveyAdvanced(ctx, scope, surveyID, string(raw))
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}

func (s *builderServiceImpl) Prune(ctx context.Context, scope Scope, surveyID int) (int, error) {
	survey, err := s.repo.GetSurvey(ctx, scope, surveyID)
	if err != nil {
		return 0, err
	}
	if survey.Mode != models.ModeAdvanced || survey.BuilderDoc == nil {
		return 0, fault.NewClientError("survey has no builder document to prune against", fault.ErrValidation)
	}

	var doc BuilderDocument
	if err := json.Unmarshal([]byte(*survey.BuilderDoc), &doc); err != nil {
		return 0, fault.NewInternalError("stored builder document is corrupt", err)
	}

	flat, _ := flattenDocument(doc)
	keep := make(map[string]bool, len(flat))
	for _, el := range flat {
		keep[el.name] = true
	}

	pruned := 0
	err = s.repo.InTx(ctx, func(tx Repository) error {
		questions, err := tx.ListQuestions(ctx, scope, surveyID)
		if err != nil {
			return err
		}
		for _, q := range questions {
			if keep[q.Name] {
				continue
			}
			if err := tx.DeleteQuestion(ctx, scope, q.ID); err != nil {
				return err
			}
			pruned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return pruned, nil
}

// flattenDocument walks pages depth-first, recursing into panels, and
// returns question descriptors in document order. Elements without a
// stable name are skipped and reported.
func flattenDocument(doc BuilderDocument) ([]flatElement, []SyncIssue) {
	var flat []flatElement
	issues := []SyncIssue{}

	for p, page := range doc.Pages {
		path := fmt.Sprintf("pages[%d]", p)
		flat, issues = flattenElements(page.Elements, path, flat, issues)
	}

	return flat, issues
}

func flattenElements(elements []BuilderElement, path string, flat []flatElement, issues []SyncIssue) ([]flatElement, []SyncIssue) {
	for i, el := range elements {
		elPath := fmt.Sprintf("%s.elements[%d]", path, i)

		if strings.EqualFold(el.Type, "panel") {
			flat, issues = flattenElements(el.Elements, elPath, flat, issues)
			continue
		}

		if strings.TrimSpace(el.Name) == "" {
			issues = append(issues, SyncIssue{Path: elPath, Reason: ReasonMissingName})
			continue
		}

		label := el.Title
		if label == "" {
			label = el.Name
		}

		qtype, options, config := mapElementType(el)
		flat = append(flat, flatElement{
			name:    el.Name,
			label:   label,
			qtype:   qtype,
			options: options,
			config:  config,
		})
	}
	return flat, issues
}

// mapElementType maps an external widget to the internal question type.
// The mapping is total: anything unrecognized imports as free text
// rather than failing the document.
func mapElementType(el BuilderElement) (models.QuestionType, []string, *models.ScaleConfig) {
	switch strings.ToLower(el.Type) {
	case "text":
		switch strings.ToLower(el.InputType) {
		case "email":
			return models.TypeEmail, nil, nil
		case "tel", "phone":
			return models.TypePhone, nil, nil
		case "number":
			return models.TypeNumber, nil, nil
		case "date":
			return models.TypeDate, nil, nil
		default:
			return models.TypeText, nil, nil
		}
	case "comment":
		return models.TypeTextarea, nil, nil
	case "radiogroup", "dropdown":
		return models.TypeSingleChoice, choiceValues(el.Choices), nil
	case "checkbox", "tagbox":
		return models.TypeMultipleChoice, choiceValues(el.Choices), nil
	case "boolean":
		return models.TypeSingleChoice, []string{"Yes", "No"}, nil
	case "rating":
		min, max := el.RateMin, el.RateMax
		if max <= min {
			min, max = 1, 5
		}
		return models.TypeScale, nil, &models.ScaleConfig{Min: min, Max: max}
	default:
		return models.TypeText, nil, nil
	}
}

func choiceValues(choices []BuilderChoice) []string {
	if len(choices) == 0 {
		return nil
	}
	values := make([]string, len(choices))
	for i, c := range choices {
		values[i] = c.Value
	}
	return values
}

func questionMatches(q *models.Question, el flatElement, position int) bool {
	if q.Label != el.label || q.Type != el.qtype || q.Position != position || q.SectionID != nil {
		return false
	}
	if len(q.Options) != len(el.options) {
		return false
	}
	for i := range el.options {
		if q.Options[i] != el.options[i] {
			return false
		}
	}
	if (q.Config == nil) != (el.config == nil) {
		return false
	}
	if q.Config != nil && *q.Config != *el.config {
		return false
	}
	return true
}
