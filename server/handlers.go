package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/pawsona/pawsona/internal/models"
	"github.com/pawsona/pawsona/pkg/catalog"
	"github.com/pawsona/pawsona/pkg/rag"
)

const (
	maxMessageChars   = 1000
	maxHistoryEntries = 10
)

type chatRequest struct {
	Message   string             `json:"message"`
	PawnaType string             `json:"pawna_type,omitempty"`
	UseLLM    *bool              `json:"use_llm,omitempty"`
	History   []chatHistoryEntry `json:"history,omitempty"`
}

type chatHistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message    string    `json:"message"`
	Sources    []string  `json:"sources"`
	Confidence float64   `json:"confidence"`
	PawnaType  string    `json:"pawna_type,omitempty"`
	UsedLLM    bool      `json:"used_llm"`
	Timestamp  time.Time `json:"timestamp"`
}

// handleChat answers one chat turn. Only invalid input yields an error
// status; pipeline trouble is absorbed by the composer into a fallback
// reply so clients always get 200 with a usable message.
func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if utf8.RuneCountInString(message) > maxMessageChars {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("message must be at most %d characters", maxMessageChars))
	}
	if len(req.History) > maxHistoryEntries {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("history must be at most %d entries", maxHistoryEntries))
	}

	history := make([]models.ChatMessage, 0, len(req.History))
	for _, h := range req.History {
		history = append(history, models.ChatMessage{Role: h.Role, Content: h.Content})
	}

	useLLM := true
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	resp := s.composer.Compose(c.Request().Context(), rag.Request{
		Query:        message,
		TypeCode:     req.PawnaType,
		UseGenerator: useLLM,
		History:      history,
	})

	return c.JSON(http.StatusOK, chatResponse{
		Message:    resp.Text,
		Sources:    resp.Sources,
		Confidence: resp.Confidence,
		PawnaType:  req.PawnaType,
		UsedLLM:    resp.UsedGenerator,
		Timestamp:  now(),
	})
}

func (s *Server) handleQuestions(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.Questions())
}

type submitRequest struct {
	Answers []catalog.Answer `json:"answers"`
}

type pawnaResult struct {
	PawnaCode   string    `json:"pawna_code"`
	MBTIType    string    `json:"mbti_type"`
	TypeName    string    `json:"type_name"`
	Description string    `json:"description"`
	Solution    string    `json:"solution"`
	CareTips    []string  `json:"care_tips"`
	Traits      []string  `json:"personality_traits"`
	ImageURL    string    `json:"image_url,omitempty"`
	SiteURL     string    `json:"site_url,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func typeResult(t catalog.Type) pawnaResult {
	tips := []string{}
	if t.Solution != "" {
		tips = []string{t.Solution}
	}
	traits := t.Traits
	if traits == nil {
		traits = []string{}
	}
	return pawnaResult{
		PawnaCode:   t.Code,
		MBTIType:    t.MBTI,
		TypeName:    t.Name,
		Description: t.Description,
		Solution:    t.Solution,
		CareTips:    tips,
		Traits:      traits,
		ImageURL:    t.ImageURL,
		SiteURL:     t.SiteURL,
		Timestamp:   now(),
	}
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	code, err := catalog.Score(req.Answers)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	t, ok := s.catalog.Lookup(code)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("personality type %s is not in the catalog", code))
	}
	return c.JSON(http.StatusOK, typeResult(t))
}

func (s *Server) handleTypes(c echo.Context) error {
	return c.JSON(http.StatusOK, s.catalog.Types())
}

func (s *Server) handleType(c echo.Context) error {
	code := c.Param("code")
	t, ok := s.catalog.Lookup(code)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("personality type %s is not in the catalog", strings.ToUpper(code)))
	}
	return c.JSON(http.StatusOK, typeResult(t))
}

func (s *Server) handleHealth(c echo.Context) error {
	documents := 0
	if s.store != nil {
		documents = s.store.Count()
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": documents,
	})
}
