package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler, staticDir string) {
	router.GET("/api/health", handler.Health)

	api := router.Group("/api")
	{
		api.POST("/upload", handler.Upload)
		api.GET("/status/:jobId", handler.JobStatus)
		api.GET("/employees", handler.ListEmployees)
		api.POST("/jobs/:jobId/cancel", handler.CancelJob)
	}

	// The browser polling UI, when deployed alongside the API.
	if staticDir != "" {
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}
}
