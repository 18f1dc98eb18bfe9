package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/portal-hospitalario/backend/internal/config"
	"github.com/portal-hospitalario/backend/internal/dto"
)

func chatReply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

func newSuggestions(f *fixture, glmURL, deepseekURL string) *SuggestionService {
	cfg := &config.Config{
		GLMAPIKey:      "glm-key",
		GLMAPIURL:      glmURL,
		GLMModel:       "glm-4",
		DeepSeekAPIKey: "ds-key",
		DeepSeekAPIURL: deepseekURL,
		DeepSeekModel:  "deepseek-chat",
		AITimeout:      5 * time.Second,
	}
	return NewSuggestionService(f.tickets, cfg)
}

func TestSuggestFallsBackToDeepSeek(t *testing.T) {
	f := newFixture(t, false)
	ticket := newTicket(t, f, f.other)

	var glmCalls int32
	glm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&glmCalls, 1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer glm.Close()

	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ds-key" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var req llmRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "deepseek-chat" || len(req.Messages) != 2 || !strings.Contains(req.Messages[1].Content, ticket.Description) {
			t.Errorf("request = %+v", req)
		}
		chatReply(w, "  1. Reiniciar el servidor del HIS  ")
	}))
	defer deepseek.Close()

	svc := newSuggestions(f, glm.URL, deepseek.URL)
	resp, err := svc.Suggest(context.Background(), f.other, ticket.ID)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !resp.Available || resp.SuggestedSolution != "1. Reiniciar el servidor del HIS" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.DescriptionDigest != DescriptionDigest(ticket.Description) {
		t.Errorf("digest = %q", resp.DescriptionDigest)
	}
	if atomic.LoadInt32(&glmCalls) != 1 {
		t.Errorf("glm calls = %d, want 1", glmCalls)
	}

	// The ticket itself is never touched.
	stored, err := f.tickets.Get(context.Background(), f.other, ticket.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != ticket.Status || len(stored.Comments) != 0 {
		t.Errorf("ticket mutated: %+v", stored)
	}
}

func TestSuggestAllProvidersFail(t *testing.T) {
	f := newFixture(t, false)
	ticket := newTicket(t, f, f.other)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(w, "")
	}))
	defer down.Close()

	svc := newSuggestions(f, down.URL, down.URL)
	_, err := svc.Suggest(context.Background(), f.other, ticket.ID)
	requireErrorIs(t, err, ErrDependency)
}

func TestSuggestSupersededByDifferentDescription(t *testing.T) {
	f := newFixture(t, false)
	first := newTicket(t, f, f.other)
	second, err := f.tickets.Create(context.Background(), f.other, &dto.CreateTicketRequest{
		Subject:     "Impresora",
		Description: "La impresora de admision no imprime etiquetas",
		Priority:    "Low",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	arrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req llmRequest
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Messages[1].Content, first.Description) {
			close(arrived)
			<-release
			chatReply(w, "respuesta vieja")
			return
		}
		chatReply(w, "respuesta nueva")
	}))
	defer server.Close()
	svc := newSuggestions(f, server.URL, "")

	type result struct {
		resp *dto.SuggestionResponse
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := svc.Suggest(context.Background(), f.other, first.ID)
		done <- result{resp, err}
	}()

	<-arrived
	resp, err := svc.Suggest(context.Background(), f.other, second.ID)
	if err != nil {
		t.Fatalf("second Suggest: %v", err)
	}
	if resp.SuggestedSolution != "respuesta nueva" {
		t.Errorf("second suggestion = %q", resp.SuggestedSolution)
	}
	close(release)

	r := <-done
	requireErrorIs(t, r.err, ErrSuggestionSuperseded)

	// Another viewer's fetch is unaffected.
	other, err := svc.Suggest(context.Background(), f.admin, second.ID)
	if err != nil || other.SuggestedSolution != "respuesta nueva" {
		t.Fatalf("admin Suggest = %+v, %v", other, err)
	}
}

func TestDescriptionDigestIgnoresSurroundingSpace(t *testing.T) {
	if DescriptionDigest("  abc\n") != DescriptionDigest("abc") {
		t.Error("digest differs for trimmed text")
	}
	if DescriptionDigest("abc") == DescriptionDigest("abd") {
		t.Error("digest collides")
	}
}
