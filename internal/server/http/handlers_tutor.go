package httpserver

import (
	"net/http"

	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/tutor"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (s *Server) ask(c *gin.Context) {
	var req askRequest
	if !s.bind(c, &req) {
		return
	}
	prior := make([]model.ChatTurn, 0, len(req.History))
	for _, t := range req.History {
		prior = append(prior, model.ChatTurn{Role: t.Role, Text: t.Text})
	}

	reply, err := s.tutor.Ask(c.Request.Context(), req.Prompt, prior)
	if err != nil {
		s.fail(c, err)
		return
	}
	if reply.Status == tutor.StatusTransportFailure {
		s.log.Warn("tutor",
			zap.Error(reply.Err),
			zap.Int("upstream_status", tutor.StatusCode(reply.Err)),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
	}
	c.JSON(http.StatusOK, askResponse{Text: reply.Text, Status: string(reply.Status)})
}
