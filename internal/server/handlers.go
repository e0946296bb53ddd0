package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/liyue/office-engine/internal/generation"
	"github.com/liyue/office-engine/internal/types"
)

// GenerateResponse is the success payload for generate and modify calls.
type GenerateResponse struct {
	Filename  string                   `json:"filename"`
	FileURL   string                   `json:"file_url"`
	Message   string                   `json:"message"`
	DocType   types.DocType            `json:"doc_type"`
	Structure *types.DocumentStructure `json:"structure,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// DetectRequest asks for the document type implied by a piece of text.
type DetectRequest struct {
	Text string          `json:"text"`
	AI   *types.AIConfig `json:"ai,omitempty"`
}

// DetectResponse carries the resolved document type.
type DetectResponse struct {
	Type types.DocType `json:"type"`
}

// StatusResponse reports service configuration and the artifact inventory.
type StatusResponse struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Artifacts int    `json:"artifacts"`
	OutputDir string `json:"output_dir"`
}

// eventPayload frames status, delta and warning messages on an SSE stream.
type eventPayload struct {
	Message string `json:"message"`
}

func generateResponse(res *types.GenerationResult) GenerateResponse {
	return GenerateResponse{
		Filename:  res.Filename,
		FileURL:   "/api/download/" + res.Filename,
		Message:   res.Message,
		DocType:   res.DocType,
		Structure: res.Structure,
		Warnings:  res.Warnings,
	}
}

// handleGenerate runs one generation request to completion.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.svc.Generate(r.Context(), &req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, generateResponse(result))
}

// handleGenerateStream runs a generation request and streams progress via
// SSE. Once the stream is open, failures surface as error events.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req types.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := sse.StartHeartbeat(heartbeatInterval)
	defer stop()

	err = s.svc.GenerateStream(r.Context(), &req, func(ev generation.Event) {
		switch ev.Type {
		case generation.EventResult:
			if werr := sse.WriteEvent(generation.EventResult, generateResponse(ev.Result)); werr != nil {
				log.Printf("Error writing SSE result: %v", werr)
			}
		case generation.EventError:
			sse.WriteError(ev.Message)
		default:
			if werr := sse.WriteEvent(ev.Type, eventPayload{Message: ev.Message}); werr != nil {
				log.Printf("Error writing SSE event: %v", werr)
			}
		}
	})
	if err != nil {
		log.Printf("Streaming generation failed: %v", err)
	}
}

// handleModify regenerates an artifact from a previous structure plus an
// instruction.
func (s *Server) handleModify(w http.ResponseWriter, r *http.Request) {
	var req types.ModifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	result, err := s.svc.Modify(r.Context(), &req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, generateResponse(result))
}

// handleChat runs one requirement-gathering turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	reply, err := s.svc.Chat(r.Context(), &req)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, reply)
}

// handleChatStream runs a chat turn with incremental delivery. Deltas ride
// as SSE events and the final reply arrives as a complete event.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req types.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	stop := sse.StartHeartbeat(heartbeatInterval)
	defer stop()

	reply, err := s.svc.ChatStream(r.Context(), &req, func(delta string) {
		if werr := sse.WriteEvent("delta", eventPayload{Message: delta}); werr != nil {
			log.Printf("Error writing SSE delta: %v", werr)
		}
	})
	if err != nil {
		log.Printf("Streaming chat failed: %v", err)
		sse.WriteError(err.Error())
		return
	}
	sse.WriteComplete(reply)
}

// handleDetect resolves the document type for a piece of text.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		s.errorResponse(w, http.StatusBadRequest, "text is required")
		return
	}

	dt, err := s.svc.Detect(r.Context(), req.Text, req.AI)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, DetectResponse{Type: dt})
}

// handleDownload serves a published artifact as an attachment. The store
// rejects anything but a bare generated filename.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	path, contentType, err := s.svc.Store().Resolve(name)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, path)
}
