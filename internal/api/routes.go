package api

import (
	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, handler *Handler) {
	// Health check
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Document routes
		v1.GET("/documents", handler.ListDocuments)
		v1.POST("/documents/refresh", handler.RefreshDocuments)
		v1.POST("/documents/upload", handler.UploadDocument)
		v1.POST("/documents/batch", handler.BatchUploadDocuments)
		v1.POST("/documents/:id/assess", handler.AssessDocument)
		v1.POST("/documents/:id/cancel", handler.CancelAssessment)
		v1.POST("/documents/:id/reprocess", handler.ReprocessDocument)
		v1.GET("/documents/:id/operation", handler.GetOperation)
		v1.PUT("/documents/:id/student", handler.AssignStudent)
		v1.GET("/documents/:id/students", handler.ListCandidateStudents)

		// Bulk import routes
		v1.POST("/students/import", handler.ImportStudents)
	}
}
