package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "DRAFT"
	StatusPublished SurveyStatus = "PUBLISHED"
	StatusArchived  SurveyStatus = "ARCHIVED"
)

// How the survey's question set is managed.
//
// SIMPLE surveys are edited question by question; ADVANCED surveys are
// derived from an imported builder document and reject direct edits.
type SurveyMode string

const (
	ModeSimple   SurveyMode = "SIMPLE"
	ModeAdvanced SurveyMode = "ADVANCED"
)

type QuestionType string

const (
	TypeText           QuestionType = "TEXT"
	TypeTextarea       QuestionType = "TEXTAREA"
	TypeNumber         QuestionType = "NUMBER"
	TypeScale          QuestionType = "SCALE"
	TypeSingleChoice   QuestionType = "SINGLE_CHOICE"
	TypeMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TypeDate           QuestionType = "DATE"
	TypeEmail          QuestionType = "EMAIL"
	TypePhone          QuestionType = "PHONE"
)

// IsChoice reports whether the type carries an options list.
func (t QuestionType) IsChoice() bool {
	return t == TypeSingleChoice || t == TypeMultipleChoice
}

type Tenant struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

type Survey struct {
	ID         int          `db:"id" json:"id"`
	TenantID   int          `db:"tenant_id" json:"tenant_id"`
	PublicID   string       `db:"public_id" json:"public_id"`
	Title      string       `db:"title" json:"title"`
	Status     SurveyStatus `db:"status" json:"status"`
	Mode       SurveyMode   `db:"mode" json:"mode"`
	BuilderDoc *string      `db:"builder_doc" json:"-"` // verbatim imported document, nil until first sync
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time    `db:"updated_at" json:"updated_at"`
}

type Section struct {
	ID          int    `db:"id" json:"id"`
	SurveyID    int    `db:"survey_id" json:"survey_id"`
	TenantID    int    `db:"tenant_id" json:"tenant_id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Position    int    `db:"position" json:"position"`
}

type Question struct {
	ID        int             `db:"id" json:"id"`
	SurveyID  int             `db:"survey_id" json:"survey_id"`
	TenantID  int             `db:"tenant_id" json:"tenant_id"`
	SectionID *int            `db:"section_id" json:"section_id"` // nil = unassigned bucket
	Name      string          `db:"name" json:"name"`             // stable reconciliation key, unique per survey
	Label     string          `db:"label" json:"label"`
	Type      QuestionType    `db:"question_type" json:"type"`
	Position  int             `db:"position" json:"position"`
	Options   pq.StringArray  `db:"options" json:"options"`
	Config    *ScaleConfig    `db:"config" json:"config"`
	NextMap   NextMap         `db:"next_map" json:"next_map"`
	Logic     ConditionalList `db:"logic" json:"logic"`
}

// NextMap maps an answer value to the id of the question that follows it.
// Stored as jsonb; targets are not foreign keys and may dangle.
type NextMap map[string]int

func (m NextMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *NextMap) Scan(src any) error {
	return scanJSON(src, m, "next map")
}

// ScaleConfig bounds a SCALE question. Stored as jsonb.
type ScaleConfig struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

func (c ScaleConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *ScaleConfig) Scan(src any) error {
	return scanJSON(src, c, "scale config")
}

// The conditional next question after a question is answered.
//
// Basically it determines what question will be asked based
// on the answers so far.
type ConditionalNext struct {
	Expression string `json:"expression"`
	NextID     int    `json:"next_id"`
}

// ConditionalList is a question's expression-based routing rules,
// evaluated in order before the plain NextMap lookup. Stored as jsonb.
type ConditionalList []ConditionalNext

func (l ConditionalList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *ConditionalList) Scan(src any) error {
	return scanJSON(src, l, "conditional list")
}

func scanJSON(src, dst any, what string) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, what)
	}
}
