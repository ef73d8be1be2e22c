// Package assist forwards tutoring questions to a generative model.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/coderelay/internal/metrics"
)

// Roles understood by the model provider.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

var (
	// ErrEmptyMessage is returned when the request carries no question.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrNotConfigured is returned by every call when no API key is set.
	ErrNotConfigured = errors.New("assistant not configured")
)

// Turn is one message of the conversation.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Generator produces a reply for a conversation. System instruction and
// decoding parameters are the generator's concern.
type Generator interface {
	Generate(ctx context.Context, turns []Turn) (string, error)
}

// Service validates requests and calls the generator with a deadline.
type Service struct {
	gen     Generator
	timeout time.Duration
	log     *zerolog.Logger
	metrics *metrics.Metrics
}

// NewService wraps gen. A zero timeout disables the per-call deadline.
func NewService(gen Generator, timeout time.Duration, logger *zerolog.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{gen: gen, timeout: timeout, log: logger, metrics: m}
}

// Reply sends history followed by message and returns the model's raw text.
func (s *Service) Reply(ctx context.Context, message string, history []Turn) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyMessage
	}

	turns := buildTurns(message, history)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := s.gen.Generate(ctx, turns)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.AssistCall("error", elapsed)
		return "", fmt.Errorf("generate reply: %w", err)
	}
	s.metrics.AssistCall("ok", elapsed)

	s.log.Debug().Int("turns", len(turns)).Dur("elapsed", elapsed).Msg("assistant replied")
	return text, nil
}

// Empty turns are skipped and unknown roles are treated as the user.
func buildTurns(message string, history []Turn) []Turn {
	turns := make([]Turn, 0, len(history)+1)
	for _, t := range history {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := t.Role
		if role != RoleModel {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: t.Text})
	}
	return append(turns, Turn{Role: RoleUser, Text: message})
}

// Unavailable is the generator used when no provider is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, []Turn) (string, error) {
	return "", ErrNotConfigured
}
