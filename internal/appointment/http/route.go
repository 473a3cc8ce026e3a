package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	g.GET("/availability", authMiddleware, h.Availability)

	group := g.Group("/appointments")
	group.Use(authMiddleware)
	{
		group.POST("", h.Create)
		group.GET("", h.List)
		group.GET("/active", h.Active)
		group.POST("/reschedule", h.Reschedule)
		group.POST("/cancel", h.Cancel)
		group.GET("/:id", h.Get)
		group.POST("/:id/complete", h.Complete)
		group.POST("/:id/reassign", adminMiddleware, h.Reassign)
		group.PATCH("/:id", adminMiddleware, h.Update)
		group.DELETE("/:id", adminMiddleware, h.Delete)
	}
}
