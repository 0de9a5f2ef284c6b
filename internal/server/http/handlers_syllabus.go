package httpserver

import (
	"github.com/and161185/bankprep/internal/model"
	"github.com/gin-gonic/gin"
)

func (s *Server) addSubject(c *gin.Context) {
	var req nameRequest
	if !s.bind(c, &req) {
		return
	}
	id, p, err := s.syllabus.AddSubject(c.Request.Context(), userID(c), req.Name)
	s.respondCreated(c, id, p, err)
}

func (s *Server) deleteSubject(c *gin.Context) {
	p, err := s.syllabus.DeleteSubject(c.Request.Context(), userID(c), c.Param("subjectID"))
	s.respond(c, p, err)
}

func (s *Server) addTopic(c *gin.Context) {
	var req nameRequest
	if !s.bind(c, &req) {
		return
	}
	id, p, err := s.syllabus.AddTopic(c.Request.Context(), userID(c), c.Param("subjectID"), req.Name)
	s.respondCreated(c, id, p, err)
}

func (s *Server) deleteTopic(c *gin.Context) {
	p, err := s.syllabus.DeleteTopic(c.Request.Context(), userID(c), c.Param("subjectID"), c.Param("topicID"))
	s.respond(c, p, err)
}

func (s *Server) updateTopic(c *gin.Context) {
	var req topicPatchRequest
	if !s.bind(c, &req) {
		return
	}
	patch := model.TopicPatch{
		Completed:        req.Completed,
		PrelimsRevisions: req.PrelimsRevisions,
		MainsRevisions:   req.MainsRevisions,
	}
	p, err := s.syllabus.UpdateTopic(c.Request.Context(), userID(c), c.Param("subjectID"), c.Param("topicID"), patch)
	s.respond(c, p, err)
}

func (s *Server) adjustRevisions(c *gin.Context) {
	var req revisionRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.syllabus.AdjustRevisions(
		c.Request.Context(), userID(c), c.Param("subjectID"), c.Param("topicID"), req.Stage, req.Delta,
	)
	s.respond(c, p, err)
}
