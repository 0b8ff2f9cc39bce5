package clips

import (
	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/api/types"
)

// RegisterRoutes registers clip request routes
func RegisterRoutes(router *gin.RouterGroup, deps *types.Dependencies) {
	router.POST("", CreateClip(deps))
	router.POST("/batch", CreateBatch(deps))
	router.POST("/preview", Preview(deps))
	router.GET("", ListClips(deps))
	router.GET("/pending", ListPending(deps))
	router.GET("/stats", Stats(deps))
	router.POST("/process", ProcessPending(deps))
	router.DELETE("/failed", PurgeFailed(deps))

	router.GET("/:id", GetClip(deps))
	router.POST("/:id/fulfil", FulfilClip(deps))
	router.PUT("/:id/status", UpdateStatus(deps))
}
