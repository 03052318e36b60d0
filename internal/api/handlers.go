package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dadanbeck/canvass/internal/models"
	"github.com/dadanbeck/canvass/internal/pkg/paginator"
	"github.com/dadanbeck/canvass/internal/services"
)

// QuestionPager pages a survey's questions out of persistent storage.
// The query itself lives with the store, next to the column list.
type QuestionPager interface {
	Page(ctx context.Context, scope services.Scope, surveyID, page, limit int) (*paginator.PaginatedResponse[models.Question], error)
}

// API binds the structure engine's services to the HTTP surface.
type API struct {
	Surveys   services.SurveyService
	Sections  services.SectionService
	Questions services.QuestionService
	Builder   services.BuilderService
	Nav       services.NavigationService
	Graphs    *GraphCache

	// QuestionPages is nil when the server runs without a database;
	// the questions endpoint then returns the full list.
	QuestionPages QuestionPager
}

func (a *API) createSurvey(c *gin.Context) {
	var in services.SurveyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	survey, err := a.Surveys.Create(c.Request.Context(), requestScope(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, survey)
}

func (a *API) listSurveys(c *gin.Context) {
	surveys, err := a.Surveys.List(c.Request.Context(), requestScope(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": surveys})
}

func (a *API) getSurvey(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	survey, err := a.Surveys.Get(c.Request.Context(), requestScope(c), surveyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, survey)
}

func (a *API) listSections(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	sections, err := a.Sections.List(c.Request.Context(), requestScope(c), surveyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sections})
}

func (a *API) createSection(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	var in services.SectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section, err := a.Sections.Create(c.Request.Context(), requestScope(c), surveyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, section)
}

func (a *API) updateSection(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	sectionID, ok := intParam(c, "section")
	if !ok {
		return
	}
	var in services.SectionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section, err := a.Sections.Update(c.Request.Context(), requestScope(c), surveyID, sectionID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, section)
}

func (a *API) deleteSection(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	sectionID, ok := intParam(c, "section")
	if !ok {
		return
	}
	scope := requestScope(c)
	if err := a.Sections.Delete(c.Request.Context(), scope, surveyID, sectionID); err != nil {
		respondError(c, err)
		return
	}
	// Deleting a section re-places its questions, so the cached graph
	// is stale from here.
	a.Graphs.Refresh(scope, surveyID)
	c.Status(http.StatusNoContent)
}

func (a *API) moveSection(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	sectionID, ok := intParam(c, "section")
	if !ok {
		return
	}
	var body struct {
		Position int `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sections, err := a.Sections.Move(c.Request.Context(), requestScope(c), surveyID, sectionID, body.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": sections})
}

func (a *API) listQuestions(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	scope := requestScope(c)
	ctx := c.Request.Context()

	if raw := c.Query("section"); raw != "" {
		var sectionID *int
		if raw != "unassigned" {
			id := intQuery(c, "section", -1)
			if id < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section filter"})
				return
			}
			sectionID = &id
		}
		questions, err := a.Questions.ListBucket(ctx, scope, surveyID, sectionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": questions})
		return
	}

	if a.QuestionPages != nil && c.Query("page") != "" {
		if _, err := a.Surveys.Get(ctx, scope, surveyID); err != nil {
			respondError(c, err)
			return
		}
		page, err := a.QuestionPages.Page(ctx, scope, surveyID,
			intQuery(c, "page", 1), intQuery(c, "limit", 20))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, page)
		return
	}

	questions, err := a.Questions.List(ctx, scope, surveyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": questions})
}

func (a *API) createQuestion(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope := requestScope(c)
	question, err := a.Questions.Create(c.Request.Context(), scope, surveyID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.JSON(http.StatusCreated, question)
}

func (a *API) updateQuestion(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "question")
	if !ok {
		return
	}
	var in services.QuestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope := requestScope(c)
	question, err := a.Questions.Update(c.Request.Context(), scope, surveyID, questionID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.JSON(http.StatusOK, question)
}

func (a *API) deleteQuestion(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "question")
	if !ok {
		return
	}
	scope := requestScope(c)
	if err := a.Questions.Delete(c.Request.Context(), scope, surveyID, questionID); err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.Status(http.StatusNoContent)
}

func (a *API) moveQuestion(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "question")
	if !ok {
		return
	}
	var body struct {
		SectionID *int `json:"section_id"`
		Position  int  `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope := requestScope(c)
	if err := a.Questions.Move(c.Request.Context(), scope, surveyID, questionID, body.SectionID, body.Position); err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.Status(http.StatusNoContent)
}

func (a *API) syncBuilder(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	scope := requestScope(c)
	report, err := a.Builder.Sync(c.Request.Context(), scope, surveyID, raw)
	if err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.JSON(http.StatusOK, report)
}

func (a *API) pruneBuilder(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	scope := requestScope(c)
	pruned, err := a.Builder.Prune(c.Request.Context(), scope, surveyID)
	if err != nil {
		respondError(c, err)
		return
	}
	a.Graphs.Refresh(scope, surveyID)
	c.JSON(http.StatusOK, gin.H{"pruned": pruned})
}

func (a *API) getGraph(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	graph, err := a.Graphs.Get(c.Request.Context(), requestScope(c), surveyID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (a *API) answer(c *gin.Context) {
	surveyID, ok := intParam(c, "survey")
	if !ok {
		return
	}
	var body struct {
		Session    services.Session `json:"session"`
		QuestionID int              `json:"question_id"`
		Answer     any              `json:"answer"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	next, err := a.Nav.Answer(c.Request.Context(), requestScope(c), surveyID, &body.Session, body.QuestionID, body.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"next": next, "session": body.Session})
}
