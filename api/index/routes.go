package index

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
)

// RegisterRoutes registers index routes. onRebuilt runs after every successful rebuild.
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies, onRebuilt func()) {
	router.GET("/stats", Stats(deps))
	router.POST("/rebuild", Rebuild(deps, onRebuilt))
}
