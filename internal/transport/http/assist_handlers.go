package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/assist"
)

// assistFailure is the only detail a caller gets when the model call fails.
const assistFailure = "Error generating response."

// AssistHandlers proxies tutoring questions to the model provider.
type AssistHandlers struct {
	service *assist.Service
	log     *zerolog.Logger
}

// NewAssistHandlers creates a new assist handlers instance.
func NewAssistHandlers(service *assist.Service, logger *zerolog.Logger) *AssistHandlers {
	return &AssistHandlers{
		service: service,
		log:     logger,
	}
}

// AssistRequest represents the proxy request body.
type AssistRequest struct {
	Message string        `json:"message"`
	History []assist.Turn `json:"history"`
}

// Generate returns the model's raw text for the message.
// POST /gemini
func (h *AssistHandlers) Generate(c *gin.Context) {
	var req AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid assist request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	text, err := h.service.Reply(c.Request.Context(), req.Message, req.History)
	if err != nil {
		if errors.Is(err, assist.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
		h.log.Error().Err(err).Int("history", len(req.History)).Msg("failed to generate response")
		c.String(http.StatusInternalServerError, assistFailure)
		return
	}

	c.String(http.StatusOK, text)
}
