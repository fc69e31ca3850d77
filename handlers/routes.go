package handlers

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed docs.html
var docsPage []byte

// Docs handles GET /docs
func Docs(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", docsPage)
}

// NewRouter wires the middleware chain and every route onto a gin engine
func NewRouter(apiHandler *APIHandler, corsOrigin string) *gin.Engine {
	router := gin.New()
	// Recovery sits inside the logger and metrics so panics are recorded as 500s
	router.Use(
		RequestID(),
		RequestLogger(),
		Metrics(),
		Recovery(),
		CORS(corsOrigin),
		ErrorRenderer(),
	)
	router.NoRoute(NotFound)

	router.GET("/docs", Docs)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/ping", apiHandler.Ping)

		// Cohort routes
		api.GET("/cohorts", apiHandler.GetAllCohorts)
		api.GET("/cohorts/:cohortId", apiHandler.GetCohortByID)
		api.POST("/cohorts", apiHandler.CreateCohort)
		api.PUT("/cohorts/:cohortId", apiHandler.UpdateCohort)
		api.DELETE("/cohorts/:cohortId", apiHandler.DeleteCohort)

		// Student routes
		api.GET("/students", apiHandler.GetAllStudents)
		api.GET("/students/cohort/:cohortId", apiHandler.GetStudentsByCohort)
		api.GET("/students/:studentId", apiHandler.GetStudentByID)
		api.POST("/students", apiHandler.CreateStudent)
		api.POST("/students/import", apiHandler.ImportStudents)
		api.PUT("/students/:studentId", apiHandler.UpdateStudent)
		api.DELETE("/students/:studentId", apiHandler.DeleteStudent)
	}

	return router
}
