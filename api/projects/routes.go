package projects

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
)

// RegisterRoutes registers clip project routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.GET("", ListProjects(deps))
	router.PUT("/:id/status", UpdateStatus(deps))
}
