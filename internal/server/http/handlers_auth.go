package httpserver

import (
	"net/http"
	"time"

	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/service"
	"github.com/gin-gonic/gin"
)

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) issue(c *gin.Context, code int, sess service.Session) {
	u := sess.User()
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(code, sessionResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt.UTC().Format(time.RFC3339),
		User:        viewOf(u),
	})
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if !s.bind(c, &req) {
		return
	}
	sess, err := s.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.issue(c, http.StatusCreated, sess)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}
	sess, err := s.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.issue(c, http.StatusOK, sess)
}

func (s *Server) me(c *gin.Context) {
	sess, err := s.auth.Lookup(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(sess.User()))
}
