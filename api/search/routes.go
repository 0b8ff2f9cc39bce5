package search

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
)

// RegisterRoutes registers search routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	// router already includes the /search prefix
	router.GET("", Get(deps))
	router.POST("/batch", Batch(deps))
}
