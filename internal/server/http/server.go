// Package httpserver exposes the BankPrep JSON API over gin.
package httpserver

import (
	"net/http"

	"github.com/and161185/bankprep/internal/service"
	"github.com/and161185/bankprep/internal/tutor"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Deps collects the services served by the API.
type Deps struct {
	Auth      service.AuthService
	Tokens    *service.TokenManager
	Profiles  service.ProfileService
	Syllabus  service.SyllabusService
	Scores    service.ScoreService
	Tasks     service.TaskService
	Dashboard service.DashboardService
	Tutor     tutor.Asker
	Logger    *zap.Logger
}

// Server wires services into HTTP handlers.
type Server struct {
	auth      service.AuthService
	tokens    *service.TokenManager
	profiles  service.ProfileService
	syllabus  service.SyllabusService
	scores    service.ScoreService
	tasks     service.TaskService
	dashboard service.DashboardService
	tutor     tutor.Asker
	log       *zap.Logger
	validate  *validator.Validate
}

// New constructs a Server with injected services.
func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		auth:      d.Auth,
		tokens:    d.Tokens,
		profiles:  d.Profiles,
		syllabus:  d.Syllabus,
		scores:    d.Scores,
		tasks:     d.Tasks,
		dashboard: d.Dashboard,
		tutor:     d.Tutor,
		log:       log,
		validate:  newValidator(),
	}
}

// Router builds the gin engine with middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recover(s.log), Logging(s.log), Security())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.POST("/auth/register", s.register)
	v1.POST("/auth/login", s.login)

	authed := v1.Group("")
	authed.Use(Auth(s.tokens.Verify))

	authed.GET("/me", s.me)
	authed.GET("/profile", s.profile)
	authed.PUT("/profile/target-date", s.setTargetDate)
	authed.GET("/dashboard", s.stats)
	authed.GET("/export.xlsx", s.export)

	syl := authed.Group("/syllabus/subjects")
	syl.POST("", s.addSubject)
	syl.DELETE("/:subjectID", s.deleteSubject)
	syl.POST("/:subjectID/topics", s.addTopic)
	syl.PATCH("/:subjectID/topics/:topicID", s.updateTopic)
	syl.DELETE("/:subjectID/topics/:topicID", s.deleteTopic)
	syl.POST("/:subjectID/topics/:topicID/revisions", s.adjustRevisions)

	authed.POST("/scores", s.addScore)
	authed.DELETE("/scores/:scoreID", s.deleteScore)

	authed.POST("/tasks", s.addTask)
	authed.POST("/tasks/:taskID/toggle", s.toggleTask)
	authed.DELETE("/tasks/:taskID", s.deleteTask)

	authed.POST("/tutor/ask", s.ask)

	return r
}
