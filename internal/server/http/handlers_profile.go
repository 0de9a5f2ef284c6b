package httpserver

import (
	"fmt"
	"net/http"

	"github.com/and161185/bankprep/internal/export"
	"github.com/and161185/bankprep/internal/model"
	"github.com/gin-gonic/gin"
)

func (s *Server) profile(c *gin.Context) {
	p, err := s.profiles.Profile(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) stats(c *gin.Context) {
	st, err := s.dashboard.Stats(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) export(c *gin.Context) {
	p, err := s.profiles.Profile(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	f, err := export.Workbook(p)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="bankprep-%s.xlsx"`, p.UserID))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// respond writes the outcome of a mutation.
func (s *Server) respond(c *gin.Context, p model.Profile, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// respondCreated writes the outcome of an append. An empty id means the
// parent was missing and nothing changed.
func (s *Server) respondCreated(c *gin.Context, id string, p model.Profile, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	code := http.StatusCreated
	if id == "" {
		code = http.StatusOK
	}
	c.JSON(code, createdResponse{ID: id, Profile: p})
}

func (s *Server) setTargetDate(c *gin.Context) {
	var req targetDateRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.tasks.SetTargetExamDate(c.Request.Context(), userID(c), req.Date)
	s.respond(c, p, err)
}
