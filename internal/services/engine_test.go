package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/internal/pkg/store"
	"github.com/dadanbeck/canvass/internal/services"
	"github.com/dadanbeck/canvass/pkg/fault"
)

type fixture struct {
	repo      *store.MemoryStore
	scope     services.Scope
	surveys   services.SurveyService
	sections  services.SectionService
	questions services.QuestionService
	builder   services.BuilderService
	branches  services.BranchService
	nav       services.NavigationService
}

func newFixture(t *testing.T) (*fixture, *models.Survey) {
	t.Helper()

	repo := store.NewMemoryStore()
	tenant := repo.SeedTenant("Acme", "acme")

	f := &fixture{
		repo:      repo,
		scope:     services.Scope{TenantID: tenant.ID},
		surveys:   services.NewSurveyService(repo),
		sections:  services.NewSectionService(repo),
		questions: services.NewQuestionService(repo),
		builder:   services.NewBuilderService(repo),
		branches:  services.NewBranchService(repo),
		nav:       services.NewNavigationService(repo),
	}

	survey, err := f.surveys.Create(context.Background(), f.scope, services.SurveyInput{Title: "Onboarding"})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return f, survey
}

func (f *fixture) addQuestion(t *testing.T, surveyID int, label string, sectionID *int) *models.Question {
	t.Helper()
	q, err := f.questions.Create(context.Background(), f.scope, surveyID, services.QuestionInput{
		Label:     label,
		Type:      models.TypeText,
		SectionID: sectionID,
	})
	if err != nil {
		t.Fatalf("create question %q: %v", label, err)
	}
	return q
}

func assertBucketOrder(t *testing.T, f *fixture, surveyID int, sectionID *int, wantIDs []int) {
	t.Helper()
	got, err := f.questions.ListBucket(context.Background(), f.scope, surveyID, sectionID)
	if err != nil {
		t.Fatalf("list bucket: %v", err)
	}
	if len(got) != len(wantIDs) {
		t.Fatalf("expected %d questions, got %d", len(wantIDs), len(got))
	}
	for i, q := range got {
		if q.ID != wantIDs[i] {
			t.Errorf("slot %d: expected question %d, got %d", i, wantIDs[i], q.ID)
		}
		if q.Position != i {
			t.Errorf("question %d: expected position %d, got %d", q.ID, i, q.Position)
		}
	}
}

func TestQuestionMove_LastToFront(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "First", nil)
	q1 := f.addQuestion(t, survey.ID, "Second", nil)
	q2 := f.addQuestion(t, survey.ID, "Third", nil)

	if err := f.questions.Move(ctx, f.scope, survey.ID, q2.ID, nil, 0); err != nil {
		t.Fatalf("move: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{q2.ID, q0.ID, q1.ID})
}

func TestQuestionMove_OwnIndexChangesNothing(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "First", nil)
	q1 := f.addQuestion(t, survey.ID, "Second", nil)

	if err := f.questions.Move(ctx, f.scope, survey.ID, q1.ID, nil, 1); err != nil {
		t.Fatalf("move: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{q0.ID, q1.ID})
}

func TestQuestionMove_RoundTripRestoresOrder(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "First", nil)
	q1 := f.addQuestion(t, survey.ID, "Second", nil)
	q2 := f.addQuestion(t, survey.ID, "Third", nil)

	if err := f.questions.Move(ctx, f.scope, survey.ID, q0.ID, nil, 2); err != nil {
		t.Fatalf("move down: %v", err)
	}
	if err := f.questions.Move(ctx, f.scope, survey.ID, q0.ID, nil, 0); err != nil {
		t.Fatalf("move back: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{q0.ID, q1.ID, q2.ID})
}

func TestQuestionMove_TargetBeyondEndClamps(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "First", nil)
	q1 := f.addQuestion(t, survey.ID, "Second", nil)

	if err := f.questions.Move(ctx, f.scope, survey.ID, q0.ID, nil, 99); err != nil {
		t.Fatalf("move: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{q1.ID, q0.ID})
}

func TestQuestionMove_AcrossBuckets(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	section, err := f.sections.Create(ctx, f.scope, survey.ID, services.SectionInput{Title: "Details"})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}

	s0 := f.addQuestion(t, survey.ID, "In section A", &section.ID)
	s1 := f.addQuestion(t, survey.ID, "In section B", &section.ID)
	u0 := f.addQuestion(t, survey.ID, "Unassigned", nil)

	if err := f.questions.Move(ctx, f.scope, survey.ID, s0.ID, nil, 0); err != nil {
		t.Fatalf("move across buckets: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{s0.ID, u0.ID})
	assertBucketOrder(t, f, survey.ID, &section.ID, []int{s1.ID})

	moved, err := f.repo.GetQuestion(ctx, f.scope, s0.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if moved.SectionID != nil {
		t.Errorf("expected the moved question to leave its section, got %v", *moved.SectionID)
	}
}

func TestSectionMove_LastToFront(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	var ids []int
	for _, title := range []string{"One", "Two", "Three"} {
		sec, err := f.sections.Create(ctx, f.scope, survey.ID, services.SectionInput{Title: title})
		if err != nil {
			t.Fatalf("create section: %v", err)
		}
		ids = append(ids, sec.ID)
	}

	moved, err := f.sections.Move(ctx, f.scope, survey.ID, ids[2], 0)
	if err != nil {
		t.Fatalf("move: %v", err)
	}

	want := []int{ids[2], ids[0], ids[1]}
	for i, sec := range moved {
		if sec.ID != want[i] {
			t.Errorf("slot %d: expected section %d, got %d", i, want[i], sec.ID)
		}
		if sec.Position != i {
			t.Errorf("section %d: expected position %d, got %d", sec.ID, i, sec.Position)
		}
	}
}

func TestSectionDelete_DetachesQuestionsToEnd(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	section, err := f.sections.Create(ctx, f.scope, survey.ID, services.SectionInput{Title: "Doomed"})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}

	u0 := f.addQuestion(t, survey.ID, "Already unassigned", nil)
	s0 := f.addQuestion(t, survey.ID, "Sectioned first", &section.ID)
	s1 := f.addQuestion(t, survey.ID, "Sectioned second", &section.ID)

	if err := f.sections.Delete(ctx, f.scope, survey.ID, section.ID); err != nil {
		t.Fatalf("delete section: %v", err)
	}

	// Survivors keep their order; the orphans join the end in theirs.
	assertBucketOrder(t, f, survey.ID, nil, []int{u0.ID, s0.ID, s1.ID})

	if _, err := f.repo.GetSection(ctx, f.scope, section.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected the section to be gone, got %v", err)
	}
}

func TestSectionDelete_RenumbersSiblings(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	var ids []int
	for _, title := range []string{"One", "Two", "Three"} {
		sec, err := f.sections.Create(ctx, f.scope, survey.ID, services.SectionInput{Title: title})
		if err != nil {
			t.Fatalf("create section: %v", err)
		}
		ids = append(ids, sec.ID)
	}

	if err := f.sections.Delete(ctx, f.scope, survey.ID, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}

	sections, err := f.sections.List(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(sections))
	}
	for i, sec := range sections {
		if sec.Position != i {
			t.Errorf("section %d: expected position %d, got %d", sec.ID, i, sec.Position)
		}
	}
}

func TestTenantIsolation(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	other := f.repo.SeedTenant("Rival", "rival")
	otherScope := services.Scope{TenantID: other.ID}

	if _, err := f.surveys.Get(ctx, otherScope, survey.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found across tenants, got %v", err)
	}

	q := f.addQuestion(t, survey.ID, "Private", nil)
	if _, err := f.repo.GetQuestion(ctx, otherScope, q.ID); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected not found across tenants, got %v", err)
	}

	surveys, err := f.surveys.List(ctx, otherScope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(surveys) != 0 {
		t.Errorf("expected empty listing for the other tenant, got %d", len(surveys))
	}
}

func TestQuestionMove_OtherSurveySectionRejected(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	other, err := f.surveys.Create(ctx, f.scope, services.SurveyInput{Title: "Other"})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	foreign, err := f.sections.Create(ctx, f.scope, other.ID, services.SectionInput{Title: "Elsewhere"})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}

	q := f.addQuestion(t, survey.ID, "Stray", nil)

	err = f.questions.Move(ctx, f.scope, survey.ID, q.ID, &foreign.ID, 0)
	if !errors.Is(err, fault.ErrScopeMismatch) {
		t.Fatalf("expected scope mismatch, got %v", err)
	}
}

func TestQuestionCreate_DuplicateNameRejected(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	input := services.QuestionInput{Label: "Email", Type: models.TypeEmail, Name: "email"}
	if _, err := f.questions.Create(ctx, f.scope, survey.ID, input); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := f.questions.Create(ctx, f.scope, survey.ID, input)
	if !errors.Is(err, fault.ErrUniqueViolation) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

const builderDoc = `{
	"title": "Imported",
	"pages": [
		{
			"name": "page1",
			"elements": [
				{"type": "text", "name": "full_name", "title": "Full name"},
				{"type": "rating", "name": "satisfaction", "title": "How satisfied are you?", "rateMin": 1, "rateMax": 10},
				{
					"type": "panel",
					"name": "contact",
					"elements": [
						{"type": "text", "name": "contact_email", "title": "Work e-mail", "inputType": "email"}
					]
				}
			]
		},
		{
			"name": "page2",
			"elements": [
				{"type": "radiogroup", "name": "channel", "title": "Preferred channel", "choices": ["email", {"value": "sms", "text": "Text message"}]}
			]
		}
	]
}`

func TestBuilderSync_ImportsDocument(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	report, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(builderDoc))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Created != 4 || report.Updated != 0 || report.Unchanged != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Issues) != 0 {
		t.Fatalf("unexpected issues: %v", report.Issues)
	}

	questions, err := f.questions.List(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}

	byName := map[string]models.Question{}
	for _, q := range questions {
		byName[q.Name] = q
	}

	email := byName["contact_email"]
	if email.Type != models.TypeEmail {
		t.Errorf("expected panel e-mail element to import as EMAIL, got %s", email.Type)
	}
	if email.Label != "Work e-mail" {
		t.Errorf("expected label from title, got %q", email.Label)
	}

	rating := byName["satisfaction"]
	if rating.Type != models.TypeScale || rating.Config == nil || rating.Config.Max != 10 {
		t.Errorf("rating import wrong: type=%s config=%+v", rating.Type, rating.Config)
	}

	channel := byName["channel"]
	if channel.Type != models.TypeSingleChoice {
		t.Errorf("expected SINGLE_CHOICE, got %s", channel.Type)
	}
	if len(channel.Options) != 2 || channel.Options[0] != "email" || channel.Options[1] != "sms" {
		t.Errorf("choice options wrong: %v", channel.Options)
	}

	// Document order, 1-based.
	for i, name := range []string{"full_name", "satisfaction", "contact_email", "channel"} {
		if byName[name].Position != i+1 {
			t.Errorf("%s: expected position %d, got %d", name, i+1, byName[name].Position)
		}
	}

	reloaded, err := f.surveys.Get(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("reload survey: %v", err)
	}
	if reloaded.Mode != models.ModeAdvanced {
		t.Errorf("expected survey to flip to ADVANCED, got %s", reloaded.Mode)
	}
	if reloaded.BuilderDoc == nil || *reloaded.BuilderDoc != builderDoc {
		t.Error("expected the raw document stored verbatim")
	}
}

func TestBuilderSync_SecondRunIsNoop(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	if _, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(builderDoc)); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	report, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(builderDoc))
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Created != 0 || report.Updated != 0 || report.Unchanged != 4 {
		t.Fatalf("expected a no-op re-import, got %+v", report)
	}
}

func TestBuilderSync_PreservesBranching(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	if _, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(builderDoc)); err != nil {
		t.Fatalf("sync: %v", err)
	}

	q, err := f.repo.GetQuestionByName(ctx, f.scope, survey.ID, "channel")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	q.NextMap = models.NextMap{"sms": 42}
	if err := f.repo.UpdateQuestion(ctx, q); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Change the element's title so the sync rewrites the row.
	changed := `{"pages": [{"elements": [
		{"type": "radiogroup", "name": "channel", "title": "Channel?", "choices": ["email", "sms"]}
	]}]}`
	if _, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(changed)); err != nil {
		t.Fatalf("re-sync: %v", err)
	}

	q, err = f.repo.GetQuestionByName(ctx, f.scope, survey.ID, "channel")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if q.Label != "Channel?" {
		t.Errorf("expected updated label, got %q", q.Label)
	}
	if q.NextMap["sms"] != 42 {
		t.Errorf("expected branching to survive the re-import, got %v", q.NextMap)
	}
}

func TestBuilderSync_RenamedElementLeavesOldRowForPrune(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	first := `{"pages": [{"elements": [{"type": "text", "name": "old_name", "title": "Q"}]}]}`
	if _, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(first)); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	second := `{"pages": [{"elements": [{"type": "text", "name": "new_name", "title": "Q"}]}]}`
	report, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(second))
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if report.Created != 1 {
		t.Fatalf("expected the renamed element to create a fresh row, got %+v", report)
	}

	questions, err := f.questions.List(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected old and new rows side by side, got %d", len(questions))
	}

	pruned, err := f.builder.Prune(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned row, got %d", pruned)
	}
	if _, err := f.repo.GetQuestionByName(ctx, f.scope, survey.ID, "old_name"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("expected old row gone after prune, got %v", err)
	}
}

func TestBuilderSync_BlocksDirectQuestionEdits(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	if _, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(builderDoc)); err != nil {
		t.Fatalf("sync: %v", err)
	}

	_, err := f.questions.Create(ctx, f.scope, survey.ID, services.QuestionInput{Label: "Rogue", Type: models.TypeText})
	if !errors.Is(err, fault.ErrModeConflict) {
		t.Fatalf("expected mode conflict, got %v", err)
	}

	questions, err := f.questions.List(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(questions) != 4 {
		t.Errorf("rejected create must leave the question set untouched, got %d rows", len(questions))
	}

	q := questions[0]
	if err := f.questions.Delete(ctx, f.scope, survey.ID, q.ID); !errors.Is(err, fault.ErrModeConflict) {
		t.Errorf("expected mode conflict on delete, got %v", err)
	}
	if err := f.questions.Move(ctx, f.scope, survey.ID, q.ID, nil, 2); !errors.Is(err, fault.ErrModeConflict) {
		t.Errorf("expected mode conflict on move, got %v", err)
	}
}

func TestBuilderSync_MissingNameReported(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	doc := `{"pages": [{"elements": [
		{"type": "text", "name": "kept"},
		{"type": "text", "title": "nameless"}
	]}]}`
	report, err := f.builder.Sync(ctx, f.scope, survey.ID, json.RawMessage(doc))
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.Created != 1 {
		t.Errorf("expected only the named element imported, got %+v", report)
	}
	if len(report.Issues) != 1 || report.Issues[0].Reason != services.ReasonMissingName {
		t.Errorf("expected a missing-name issue, got %v", report.Issues)
	}
}

func TestBranchGraph_FromService(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "Do you like Go?", nil)
	q1, err := f.questions.Create(ctx, f.scope, survey.ID, services.QuestionInput{
		Label:   "Why not?",
		Type:    models.TypeText,
		NextMap: models.NextMap{"done": 999},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := f.questions.Update(ctx, f.scope, survey.ID, q0.ID, services.QuestionInput{
		Label:   "Do you like Go?",
		Type:    models.TypeSingleChoice,
		Options: []string{"yes", "no"},
		NextMap: models.NextMap{"no": q1.ID},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != q0.Name {
		t.Fatalf("update must not change the stable name")
	}

	graph, err := f.branches.Graph(ctx, f.scope, survey.ID)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if len(graph.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(graph.Nodes))
	}
	if len(graph.Edges) != 1 || graph.Edges[0].To != q1.ID {
		t.Fatalf("expected one edge into %d, got %v", q1.ID, graph.Edges)
	}
	if len(graph.Issues) != 1 || graph.Issues[0].TargetID != 999 {
		t.Fatalf("expected the dangling target reported, got %v", graph.Issues)
	}
}

func TestNavigation_BranchThenDocumentOrder(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	q0 := f.addQuestion(t, survey.ID, "Intro", nil)
	f.addQuestion(t, survey.ID, "Middle", nil)
	q2 := f.addQuestion(t, survey.ID, "End", nil)

	// Answering "skip" on the first question jumps over the middle one.
	loaded, err := f.repo.GetQuestion(ctx, f.scope, q0.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	loaded.NextMap = models.NextMap{"skip": q2.ID}
	if err := f.repo.UpdateQuestion(ctx, loaded); err != nil {
		t.Fatalf("update: %v", err)
	}

	session := &services.Session{ID: "s1", SurveyID: survey.ID}

	next, err := f.nav.Answer(ctx, f.scope, survey.ID, session, q0.ID, "skip")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if next == nil || next.ID != q2.ID {
		t.Fatalf("expected jump to the last question, got %+v", next)
	}

	next, err = f.nav.Answer(ctx, f.scope, survey.ID, session, q2.ID, "bye")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if next != nil {
		t.Fatalf("expected completion, got %+v", next)
	}
	if !session.Completed {
		t.Error("expected the session marked complete")
	}

	if _, err := f.nav.Answer(ctx, f.scope, survey.ID, session, q2.ID, "again"); err == nil {
		t.Error("expected an error answering a completed session")
	}
}

func TestNavigation_SessionBoundToItsSurvey(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	other, err := f.surveys.Create(ctx, f.scope, services.SurveyInput{Title: "Other"})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	q := f.addQuestion(t, survey.ID, "Only here", nil)

	session := &services.Session{ID: "s1", SurveyID: other.ID}
	_, err = f.nav.Answer(ctx, f.scope, survey.ID, session, q.ID, "x")
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("expected a validation fault for the foreign session, got %v", err)
	}
	if len(session.Answers) != 0 {
		t.Errorf("rejected answer must not be recorded, got %v", session.Answers)
	}

	// A fresh session adopts the survey it first answers on.
	fresh := &services.Session{ID: "s2"}
	if _, err := f.nav.Answer(ctx, f.scope, survey.ID, fresh, q.ID, "x"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if fresh.SurveyID != survey.ID {
		t.Errorf("expected the session bound to survey %d, got %d", survey.ID, fresh.SurveyID)
	}
}

func TestContiguityAfterMixedOperations(t *testing.T) {
	f, survey := newFixture(t)
	ctx := context.Background()

	section, err := f.sections.Create(ctx, f.scope, survey.ID, services.SectionInput{Title: "Block"})
	if err != nil {
		t.Fatalf("create section: %v", err)
	}

	var ids []int
	for _, label := range []string{"A", "B", "C", "D"} {
		ids = append(ids, f.addQuestion(t, survey.ID, label, nil).ID)
	}

	if err := f.questions.Move(ctx, f.scope, survey.ID, ids[3], &section.ID, 0); err != nil {
		t.Fatalf("move into section: %v", err)
	}
	if err := f.questions.Delete(ctx, f.scope, survey.ID, ids[1]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := f.questions.Move(ctx, f.scope, survey.ID, ids[0], nil, 1); err != nil {
		t.Fatalf("reorder: %v", err)
	}

	assertBucketOrder(t, f, survey.ID, nil, []int{ids[2], ids[0]})
	assertBucketOrder(t, f, survey.ID, &section.ID, []int{ids[3]})
}
