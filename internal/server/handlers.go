package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jonathan/persona-chat/internal/artifact"
	"github.com/jonathan/persona-chat/internal/pipeline"
)

// ScrapeRequest is the request body for POST /api/scrape
type ScrapeRequest struct {
	Username      string `json:"username" validate:"required"`
	WithCharacter bool   `json:"with_character"`
}

// GenerateCharacterRequest is the request body for POST /api/generate-character
type GenerateCharacterRequest struct {
	Username string `json:"username" validate:"required"`
	Day      string `json:"day,omitempty"`
}

// ChatRequest is the request body for POST /api/chat
type ChatRequest struct {
	Username string `json:"username" validate:"required"`
	Day      string `json:"day,omitempty"`
	Message  string `json:"message" validate:"required"`
}

// decodeAndValidate parses the JSON request body into v and runs struct
// validation. A false return means the error response has been written.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("Validation failed: %v", err))
		return false
	}
	return true
}

// resolveIdentity builds the artifact identity for a request. An empty day
// means today; otherwise the day must be YYYY-MM-DD.
func resolveIdentity(username, day string) (artifact.Identity, error) {
	if day == "" {
		return artifact.Today(username), nil
	}
	if _, err := time.Parse(artifact.DayFormat, day); err != nil {
		return artifact.Identity{}, fmt.Errorf("invalid day %q: expected YYYY-MM-DD", day)
	}
	return artifact.Identity{Username: username, Day: day}, nil
}

// handleScrape starts a pipeline run in the background and returns 202.
func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, runID, err := s.orchestrator.Start(req.Username, pipeline.Options{WithCharacter: req.WithCharacter})
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, map[string]string{
		"username": id.Username,
		"day":      id.Day,
		"run_id":   runID,
		"status":   pipeline.StatusInProgress,
	})
}

// handleStatus reports pipeline state for a username. An optional ?day=
// query pins the check to a past day instead of today.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")
	id, err := resolveIdentity(username, r.URL.Query().Get("day"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	status := s.orchestrator.Status(id)
	_, charErr := s.deriver.Get(id)

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"username":      id.Username,
		"day":           id.Day,
		"status":        status,
		"has_character": charErr == nil,
	})
}

// handleGenerateCharacter returns the identity's character, deriving it on
// demand if the analytics summary exists. This call blocks for the LLM.
func (s *Server) handleGenerateCharacter(w http.ResponseWriter, r *http.Request) {
	var req GenerateCharacterRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := resolveIdentity(req.Username, req.Day)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	char, err := s.deriver.GetOrGenerate(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"username":  id.Username,
		"day":       id.Day,
		"character": char,
	})
}

// handleChat answers one chat turn as the identity's character.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	id, err := resolveIdentity(req.Username, req.Day)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := s.chat.SendTurn(r.Context(), id, req.Message)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{
		"username": id.Username,
		"day":      id.Day,
		"reply":    reply,
	})
}
