package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/internal/services"
	"github.com/dadanbeck/canvass/pkg/fault"
)

// MemoryStore is an in-memory services.Repository. It backs the test
// suite and makes the server runnable without a database; transactions
// work on a deep copy that is swapped in only when fn succeeds.
type MemoryStore struct {
	mu   sync.Mutex
	data *memData
	inTx bool
}

type memData struct {
	nextID    int
	tenants   map[int]models.Tenant
	surveys   map[int]models.Survey
	sections  map[int]models.Section
	questions map[int]models.Question
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: &memData{
		nextID:    1,
		tenants:   map[int]models.Tenant{},
		surveys:   map[int]models.Survey{},
		sections:  map[int]models.Section{},
		questions: map[int]models.Question{},
	}}
}

// SeedTenant registers a tenant and returns it. Test and dev helper.
func (s *MemoryStore) SeedTenant(name, slug string) models.Tenant {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := models.Tenant{ID: s.data.nextID, Name: name, Slug: slug}
	s.data.nextID++
	s.data.tenants[t.ID] = t
	return t
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(services.Repository) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{data: snapshot, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = snapshot
	return nil
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) GetTenantBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	defer s.lock()()
	for _, t := range s.data.tenants {
		if t.Slug == slug {
			out := t
			return &out, nil
		}
	}
	return nil, fault.ErrNotFound
}

func (s *MemoryStore) CreateSurvey(ctx context.Context, survey *models.Survey) error {
	defer s.lock()()
	survey.ID = s.data.nextID
	s.data.nextID++
	now := time.Now()
	survey.CreatedAt = now
	survey.UpdatedAt = now
	s.data.surveys[survey.ID] = cloneSurvey(*survey)
	return nil
}

func (s *MemoryStore) ListSurveys(ctx context.Context, scope services.Scope) ([]models.Survey, error) {
	defer s.lock()()
	var out []models.Survey
	for _, sv := range s.data.surveys {
		if sv.TenantID == scope.TenantID {
			out = append(out, cloneSurvey(sv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) GetSurvey(ctx context.Context, scope services.Scope, surveyID int) (*models.Survey, error) {
	defer s.lock()()
	sv, ok := s.data.surveys[surveyID]
	if !ok || sv.TenantID != scope.TenantID {
		return nil, fault.ErrNotFound
	}
	out := cloneSurvey(sv)
	return &out, nil
}

func (s *MemoryStore) MarkSurveyAdvanced(ctx context.Context, scope services.Scope, surveyID int, doc string) error {
	defer s.lock()()
	sv, ok := s.data.surveys[surveyID]
	if !ok || sv.TenantID != scope.TenantID {
		return fault.ErrNotFound
	}
	sv.Mode = models.ModeAdvanced
	sv.BuilderDoc = &doc
	sv.UpdatedAt = time.Now()
	s.data.surveys[surveyID] = sv
	return nil
}

func (s *MemoryStore) ListSections(ctx context.Context, scope services.Scope, surveyID int) ([]models.Section, error) {
	defer s.lock()()
	var out []models.Section
	for _, sec := range s.data.sections {
		if sec.TenantID == scope.TenantID && sec.SurveyID == surveyID {
			out = append(out, sec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) GetSection(ctx context.Context, scope services.Scope, sectionID int) (*models.Section, error) {
	defer s.lock()()
	sec, ok := s.data.sections[sectionID]
	if !ok || sec.TenantID != scope.TenantID {
		return nil, fault.ErrNotFound
	}
	out := sec
	return &out, nil
}

func (s *MemoryStore) CreateSection(ctx context.Context, section *models.Section) error {
	defer s.lock()()
	section.ID = s.data.nextID
	s.data.nextID++
	s.data.sections[section.ID] = *section
	return nil
}

func (s *MemoryStore) UpdateSection(ctx context.Context, section *models.Section) error {
	defer s.lock()()
	cur, ok := s.data.sections[section.ID]
	if !ok || cur.TenantID != section.TenantID {
		return fault.ErrNotFound
	}
	s.data.sections[section.ID] = *section
	return nil
}

func (s *MemoryStore) DeleteSection(ctx context.Context, scope services.Scope, sectionID int) error {
	defer s.lock()()
	sec, ok := s.data.sections[sectionID]
	if !ok || sec.TenantID != scope.TenantID {
		return fault.ErrNotFound
	}
	delete(s.data.sections, sectionID)
	return nil
}

func (s *MemoryStore) UpdateSectionPositions(ctx context.Context, scope services.Scope, writes []services.PositionWrite) error {
	defer s.lock()()
	for _, w := range writes {
		sec, ok := s.data.sections[w.ID]
		if !ok || sec.TenantID != scope.TenantID {
			return fault.ErrNotFound
		}
		sec.Position = w.Position
		s.data.sections[w.ID] = sec
	}
	return nil
}

func (s *MemoryStore) ListQuestions(ctx context.Context, scope services.Scope, surveyID int) ([]models.Question, error) {
	defer s.lock()()
	var out []models.Question
	for _, q := range s.data.questions {
		if q.TenantID == scope.TenantID && q.SurveyID == surveyID {
			out = append(out, cloneQuestion(q))
		}
	}
	sortQuestions(out)
	return out, nil
}

func (s *MemoryStore) ListBucketQuestions(ctx context.Context, scope services.Scope, surveyID int, sectionID *int) ([]models.Question, error) {
	defer s.lock()()
	var out []models.Question
	for _, q := range s.data.questions {
		if q.TenantID != scope.TenantID || q.SurveyID != surveyID {
			continue
		}
		if !sameBucket(q.SectionID, sectionID) {
			continue
		}
		out = append(out, cloneQuestion(q))
	}
	sortQuestions(out)
	return out, nil
}

func (s *MemoryStore) GetQuestion(ctx context.Context, scope services.Scope, questionID int) (*models.Question, error) {
	defer s.lock()()
	q, ok := s.data.questions[questionID]
	if !ok || q.TenantID != scope.TenantID {
		return nil, fault.ErrNotFound
	}
	out := cloneQuestion(q)
	return &out, nil
}

func (s *MemoryStore) GetQuestionByName(ctx context.Context, scope services.Scope, surveyID int, name string) (*models.Question, error) {
	defer s.lock()()
	for _, q := range s.data.questions {
		if q.TenantID == scope.TenantID && q.SurveyID == surveyID && q.Name == name {
			out := cloneQuestion(q)
			return &out, nil
		}
	}
	return nil, fault.ErrNotFound
}

func (s *MemoryStore) CreateQuestion(ctx context.Context, question *models.Question) error {
	defer s.lock()()
	for _, q := range s.data.questions {
		if q.TenantID == question.TenantID && q.SurveyID == question.SurveyID && q.Name == question.Name {
			return fault.ErrUniqueViolation
		}
	}
	question.ID = s.data.nextID
	s.data.nextID++
	s.data.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (s *MemoryStore) UpdateQuestion(ctx context.Context, question *models.Question) error {
	defer s.lock()()
	cur, ok := s.data.questions[question.ID]
	if !ok || cur.TenantID != question.TenantID {
		return fault.ErrNotFound
	}
	s.data.questions[question.ID] = cloneQuestion(*question)
	return nil
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, scope services.Scope, questionID int) error {
	defer s.lock()()
	q, ok := s.data.questions[questionID]
	if !ok || q.TenantID != scope.TenantID {
		return fault.ErrNotFound
	}
	delete(s.data.questions, questionID)
	return nil
}

func (s *MemoryStore) UpdateQuestionPlacements(ctx context.Context, scope services.Scope, writes []services.PlacementWrite) error {
	defer s.lock()()
	for _, w := range writes {
		q, ok := s.data.questions[w.ID]
		if !ok || q.TenantID != scope.TenantID {
			return fault.ErrNotFound
		}
		q.SectionID = cloneIntPtr(w.SectionID)
		q.Position = w.Position
		s.data.questions[w.ID] = q
	}
	return nil
}

func (d *memData) clone() *memData {
	out := &memData{
		nextID:    d.nextID,
		tenants:   make(map[int]models.Tenant, len(d.tenants)),
		surveys:   make(map[int]models.Survey, len(d.surveys)),
		sections:  make(map[int]models.Section, len(d.sections)),
		questions: make(map[int]models.Question, len(d.questions)),
	}
	for id, t := range d.tenants {
		out.tenants[id] = t
	}
	for id, sv := range d.surveys {
		out.surveys[id] = cloneSurvey(sv)
	}
	for id, sec := range d.sections {
		out.sections[id] = sec
	}
	for id, q := range d.questions {
		out.questions[id] = cloneQuestion(q)
	}
	return out
}

func cloneSurvey(sv models.Survey) models.Survey {
	if sv.BuilderDoc != nil {
		doc := *sv.BuilderDoc
		sv.BuilderDoc = &doc
	}
	return sv
}

func cloneQuestion(q models.Question) models.Question {
	q.SectionID = cloneIntPtr(q.SectionID)
	if q.Config != nil {
		cfg := *q.Config
		q.Config = &cfg
	}
	if q.Options != nil {
		q.Options = append(q.Options[:0:0], q.Options...)
	}
	if q.NextMap != nil {
		nm := make(models.NextMap, len(q.NextMap))
		for k, v := range q.NextMap {
			nm[k] = v
		}
		q.NextMap = nm
	}
	if q.Logic != nil {
		q.Logic = append(q.Logic[:0:0], q.Logic...)
	}
	return q
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func sameBucket(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortQuestions(questions []models.Question) {
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Position != questions[j].Position {
			return questions[i].Position < questions[j].Position
		}
		return questions[i].ID < questions[j].ID
	})
}
