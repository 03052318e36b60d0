package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dadanbeck/canvass/internal/services"
)

// NewRouter wires the HTTP surface. Everything under /api/t/:tenant
// runs behind the tenant resolver.
func NewRouter(a *API, repo services.Repository) *gin.Engine {
	r := gin.Default()

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	tenant := r.Group("/api/t/:tenant", TenantResolver(repo))
	{
		tenant.POST("/surveys", a.createSurvey)
		tenant.GET("/surveys", a.listSurveys)
		tenant.GET("/surveys/:survey", a.getSurvey)

		tenant.GET("/surveys/:survey/sections", a.listSections)
		tenant.POST("/surveys/:survey/sections", a.createSection)
		tenant.PUT("/surveys/:survey/sections/:section", a.updateSection)
		tenant.DELETE("/surveys/:survey/sections/:section", a.deleteSection)
		tenant.POST("/surveys/:survey/sections/:section/move", a.moveSection)

		tenant.GET("/surveys/:survey/questions", a.listQuestions)
		tenant.POST("/surveys/:survey/questions", a.createQuestion)
		tenant.PUT("/surveys/:survey/questions/:question", a.updateQuestion)
		tenant.DELETE("/surveys/:survey/questions/:question", a.deleteQuestion)
		tenant.POST("/surveys/:survey/questions/:question/move", a.moveQuestion)

		tenant.PUT("/surveys/:survey/builder", a.syncBuilder)
		tenant.POST("/surveys/:survey/builder/prune", a.pruneBuilder)

		tenant.GET("/surveys/:survey/graph", a.getGraph)
		tenant.POST("/surveys/:survey/answer", a.answer)
	}

	return r
}
