package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dadanbeck/canvass/internal/services"
)

const scopeKey = "canvass.scope"

// TenantResolver turns the :tenant slug into the explicit Scope every
// downstream call carries. Unknown slugs end the request here.
func TenantResolver(repo services.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := repo.GetTenantBySlug(c.Request.Context(), c.Param("tenant"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown tenant"})
			return
		}
		c.Set(scopeKey, services.Scope{TenantID: tenant.ID})
		c.Next()
	}
}

func requestScope(c *gin.Context) services.Scope {
	scope, _ := c.MustGet(scopeKey).(services.Scope)
	return scope
}
