package httpserver

import (
	"github.com/and161185/bankprep/internal/model"
	"github.com/gin-gonic/gin"
)

func (s *Server) addScore(c *gin.Context) {
	var req scoreRequest
	if !s.bind(c, &req) {
		return
	}
	id, p, err := s.scores.AddScore(c.Request.Context(), userID(c), model.ScoreInput{
		Date:          req.Date,
		Provider:      req.Provider,
		TotalMarks:    req.TotalMarks,
		ObtainedMarks: req.ObtainedMarks,
		Percentile:    req.Percentile,
		SectionScores: req.SectionScores,
	})
	s.respondCreated(c, id, p, err)
}

func (s *Server) deleteScore(c *gin.Context) {
	p, err := s.scores.DeleteScore(c.Request.Context(), userID(c), c.Param("scoreID"))
	s.respond(c, p, err)
}

func (s *Server) addTask(c *gin.Context) {
	var req taskRequest
	if !s.bind(c, &req) {
		return
	}
	id, p, err := s.tasks.AddTask(c.Request.Context(), userID(c), req.Title, req.Date)
	s.respondCreated(c, id, p, err)
}

func (s *Server) toggleTask(c *gin.Context) {
	p, err := s.tasks.ToggleTask(c.Request.Context(), userID(c), c.Param("taskID"))
	s.respond(c, p, err)
}

func (s *Server) deleteTask(c *gin.Context) {
	p, err := s.tasks.DeleteTask(c.Request.Context(), userID(c), c.Param("taskID"))
	s.respond(c, p, err)
}
