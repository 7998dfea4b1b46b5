package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/model"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, log zerolog.Logger, env string) *gin.Engine {
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"*"},
		ExposeHeaders:   []string{"Content-Type"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := router.Group("/api/v1")
	{
		public.POST("/auth/signup", handler.signup)
		public.POST("/auth/login", handler.login)
		public.POST("/auth/admin/login", handler.adminLogin)
		public.POST("/auth/department/login", handler.departmentLogin)
		public.GET("/files/*ref", handler.downloadFile)
	}

	protected := router.Group("/api/v1")
	protected.Use(authMiddleware)
	{
		protected.GET("/complaints/:id", handler.getComplaint)
		protected.GET("/complaints/:id/workers", handler.listComplaintWorkers)
		protected.GET("/complaints/:id/history", handler.complaintHistory)
		protected.GET("/departments", handler.listDepartments)
	}

	citizen := protected.Group("")
	citizen.Use(middleware.RequireRoles(model.UserRoleCitizen))
	{
		citizen.POST("/complaints", handler.submitComplaint)
		citizen.GET("/complaints/mine", handler.listMyComplaints)
		citizen.POST("/complaints/:id/feedback", handler.submitFeedback)
	}

	admin := protected.Group("")
	admin.Use(middleware.RequireRoles(model.UserRoleAdmin))
	{
		admin.GET("/complaints", handler.listComplaints)
		admin.PUT("/complaints/:id/assignment", handler.assignComplaint)
		admin.PUT("/complaints/:id/deadline", handler.setComplaintDeadline)
		admin.POST("/departments", handler.createDepartment)
		admin.DELETE("/departments/:id", handler.deleteDepartment)
		admin.GET("/reports/department-counts", handler.departmentCounts)
	}

	staff := protected.Group("")
	staff.Use(middleware.RequireRoles(model.UserRoleAdmin, model.UserRoleDepartment))
	{
		staff.PUT("/complaints/:id/status", handler.updateComplaintStatus)
		staff.GET("/departments/:id/complaints", handler.listDepartmentComplaints)
		staff.GET("/departments/:id/workers", handler.listDepartmentWorkers)
		staff.POST("/departments/:id/workers", handler.addDepartmentWorker)
	}

	department := protected.Group("")
	department.Use(middleware.RequireRoles(model.UserRoleDepartment))
	{
		department.PUT("/complaints/:id/complete", handler.completeComplaint)
	}

	return router
}
