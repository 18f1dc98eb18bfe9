package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/dto"
	"github.com/portal-hospitalario/backend/internal/models"
)

// ErrSuggestionSuperseded is returned when the viewer started a fetch for a
// different description while this one was in flight.
var ErrSuggestionSuperseded = errors.New("suggestion superseded by a newer request")

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmRequest struct {
	Model       string       `json:"model"`
	Messages    []llmMessage `json:"messages"`
	Temperature float64      `json:"temperature"`
	MaxTokens   int          `json:"max_tokens"`
}

type llmResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type suggestionToken struct {
	seq    uint64
	digest string
}

// SuggestionService asks an OpenAI-compatible chat model for a proposed
// solution to a ticket. Results are advisory and never persisted.
type SuggestionService struct {
	tickets *TicketService
	cfg     *config.Config
	client  *http.Client

	mu     sync.Mutex
	seq    uint64
	latest map[string]suggestionToken
}

func NewSuggestionService(tickets *TicketService, cfg *config.Config) *SuggestionService {
	timeout := cfg.AITimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SuggestionService{
		tickets: tickets,
		cfg:     cfg,
		client:  &http.Client{Timeout: timeout},
		latest:  make(map[string]suggestionToken),
	}
}

// DescriptionDigest identifies the description a suggestion was produced for.
func DescriptionDigest(description string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(description)))
	return hex.EncodeToString(sum[:])
}

// Suggest returns a suggestion for the ticket as seen by actor.
func (s *SuggestionService) Suggest(ctx context.Context, actor *models.User, ticketID uuid.UUID) (*dto.SuggestionResponse, error) {
	ticket, err := s.tickets.Get(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	digest := DescriptionDigest(ticket.Description)
	token := s.register(actor.ID, digest)

	text, err := s.callLLM(ctx, ticket.Subject, ticket.Description)

	if s.superseded(actor.ID, token) {
		return nil, ErrSuggestionSuperseded
	}
	if err != nil {
		return nil, err
	}
	return &dto.SuggestionResponse{
		Available:         true,
		SuggestedSolution: text,
		DescriptionDigest: digest,
	}, nil
}

func (s *SuggestionService) register(viewerID, digest string) suggestionToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := suggestionToken{seq: s.seq, digest: digest}
	s.latest[viewerID] = t
	return t
}

// superseded reports whether a later fetch by the same viewer targets a
// different description. A repeat fetch of the same text does not count.
func (s *SuggestionService) superseded(viewerID string, t suggestionToken) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.latest[viewerID]
	if !ok {
		return false
	}
	return cur.seq != t.seq && cur.digest != t.digest
}

func (s *SuggestionService) callLLM(ctx context.Context, subject, description string) (string, error) {
	// GLM first, DeepSeek as fallback
	text, err := s.callProvider(ctx, s.cfg.GLMAPIURL, s.cfg.GLMAPIKey, s.cfg.GLMModel, subject, description)
	if err == nil {
		return text, nil
	}
	slog.Warn("GLM failed, trying DeepSeek", "error", err)

	if s.cfg.DeepSeekAPIKey != "" {
		text, err = s.callProvider(ctx, s.cfg.DeepSeekAPIURL, s.cfg.DeepSeekAPIKey, s.cfg.DeepSeekModel, subject, description)
		if err == nil {
			return text, nil
		}
		slog.Warn("DeepSeek also failed", "error", err)
	}

	return "", &DependencyError{Service: "suggestion provider", Err: fmt.Errorf("all LLM providers failed: %w", err)}
}

func (s *SuggestionService) callProvider(ctx context.Context, apiURL, apiKey, model, subject, description string) (string, error) {
	if apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	systemPrompt := `Eres un asistente de soporte tecnico de un hospital.
Propones una solucion breve y concreta para el problema reportado.
Responde en espanol, en texto plano, con pasos numerados si aplica.`

	userPrompt := fmt.Sprintf("Asunto: %s\n\nDescripcion:\n%s", subject, description)

	reqBody, err := json.Marshal(llmRequest{
		Model: model,
		Messages: []llmMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	var llmResp llmResponse
	if err := json.Unmarshal(body, &llmResp); err != nil {
		return "", err
	}

	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	content := strings.TrimSpace(llmResp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty suggestion from API")
	}
	return content, nil
}
