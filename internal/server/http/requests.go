package httpserver

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/and161185/bankprep/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	AccessToken string   `json:"accessToken"`
	ExpiresAt   string   `json:"expiresAt"`
	User        userView `json:"user"`
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type targetDateRequest struct {
	Date string `json:"date"` // empty clears the target
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type topicPatchRequest struct {
	Completed        *bool `json:"completed"`
	PrelimsRevisions *int  `json:"prelimsRevisions" validate:"omitempty,min=0"`
	MainsRevisions   *int  `json:"mainsRevisions" validate:"omitempty,min=0"`
}

type revisionRequest struct {
	Stage model.TopicField `json:"stage" validate:"required,oneof=prelimsRevisions mainsRevisions"`
	Delta int              `json:"delta"`
}

type scoreRequest struct {
	Date          string              `json:"date" validate:"required"`
	Provider      string              `json:"provider"`
	TotalMarks    float64             `json:"totalMarks"`
	ObtainedMarks float64             `json:"obtainedMarks"`
	Percentile    float64             `json:"percentile" validate:"gte=0,lte=100"`
	SectionScores model.SectionScores `json:"sectionScores"`
}

type taskRequest struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date"`
}

type chatTurn struct {
	Role model.Role `json:"role" validate:"required,oneof=user model"`
	Text string     `json:"text"`
}

type askRequest struct {
	Prompt  string     `json:"prompt" validate:"required"`
	History []chatTurn `json:"history" validate:"dive"`
}

type askResponse struct {
	Text   string `json:"text"`
	Status string `json:"status"`
}

type createdResponse struct {
	ID      string        `json:"id"`
	Profile model.Profile `json:"profile"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind decodes the JSON body into dst and validates it. On failure the
// response is written and false is returned.
func (s *Server) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request payload", Details: err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "validation failed", Details: describe(err)})
		return false
	}
	return true
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		parts = append(parts, fe.Namespace()+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
