package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/liyue/office-engine/internal/emit"
	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/prompts"
	"github.com/liyue/office-engine/internal/storage"
	"github.com/liyue/office-engine/internal/stream"
	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/styleparse"
	"github.com/liyue/office-engine/internal/types"
)

// Stream event types.
const (
	EventStatus  = "status"
	EventDelta   = "delta"
	EventWarning = "warning"
	EventResult  = "result"
	EventError   = "error"
)

// Event is one unit of a streaming generation, in emission order: status
// and delta events while working, warnings as they surface, then exactly
// one result or error event.
type Event struct {
	Type    string                  `json:"type"`
	Message string                  `json:"message,omitempty"`
	Result  *types.GenerationResult `json:"result,omitempty"`
}

// Service runs generation pipelines against an artifact store and a base
// provider configuration. Per-request AI overrides are merged in without
// touching the base.
type Service struct {
	store *storage.Store
	base  llm.Config

	// newClient is a seam for tests.
	newClient func(ctx context.Context, cfg llm.Config) (llm.Client, error)
}

// NewService builds a Service over store with base as the fallback
// provider configuration.
func NewService(store *storage.Store, base llm.Config) *Service {
	return &Service{store: store, base: base, newClient: llm.NewClient}
}

// Store exposes the artifact store backing this service.
func (s *Service) Store() *storage.Store {
	return s.store
}

// Model reports the configured base model name.
func (s *Service) Model() string {
	return s.base.Model
}

// Provider reports the configured base provider name.
func (s *Service) Provider() string {
	return s.base.Provider
}

// Generate runs the full pipeline: resolve the document type, parse style
// directives from the request text, obtain a structure (supplied, AI
// outline, or draft fallback), merge styles, validate, emit, and publish.
func (s *Service) Generate(ctx context.Context, req *types.GenerationRequest) (*types.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var client llm.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()
	getClient := func() (llm.Client, error) {
		if client != nil {
			return client, nil
		}
		c, err := s.newClient(ctx, s.base.Merge(req.AI))
		if err != nil {
			return nil, err
		}
		client = c
		return client, nil
	}

	parsed, styleWarns := styleparse.Parse(req.Text)
	warnings := styleparse.Strings(styleWarns)

	st := req.Structure
	dt, err := s.resolveType(ctx, req, getClient)
	if err != nil {
		return nil, err
	}

	if st == nil {
		c, err := getClient()
		if err != nil {
			return nil, err
		}
		raw, err := c.GenerateJSON(ctx, outlineSystem(dt), outlineUser(req.Text))
		if err != nil {
			return nil, err
		}
		built, outlineWarns, perr := parseOutline(dt, raw)
		if perr != nil {
			built = Draft(dt, raw, req.Title)
			warnings = append(warnings, fmt.Sprintf("outline unusable: %v; built a draft from the response text", perr))
		} else {
			warnings = append(warnings, outlineWarns...)
		}
		st = built
	}

	if req.Title != "" {
		st.Title = req.Title
	}
	style := types.DefaultStyle().Apply(st.Style).Apply(parsed).Apply(req.Style)

	if err := structure.Validate(st); err != nil {
		return nil, err
	}
	filename, err := s.emitArtifact(st, style)
	if err != nil {
		return nil, err
	}

	return &types.GenerationResult{
		Filename:  filename,
		Message:   resultMessage(dt),
		DocType:   dt,
		Structure: st,
		Warnings:  warnings,
	}, nil
}

// GenerateStream runs the pipeline with a streaming AI call. Plain response
// text surfaces as delta events while the structure payload is captured in
// the background; the last event is result on success or error on failure.
func (s *Service) GenerateStream(ctx context.Context, req *types.GenerationRequest, events func(Event)) error {
	if events == nil {
		events = func(Event) {}
	}
	result, err := s.generateStream(ctx, req, events)
	if err != nil {
		events(Event{Type: EventError, Message: err.Error()})
		return err
	}
	events(Event{Type: EventResult, Result: result})
	return nil
}

func (s *Service) generateStream(ctx context.Context, req *types.GenerationRequest, events func(Event)) (*types.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var client llm.Client
	defer func() {
		if client != nil {
			client.Close()
		}
	}()
	getClient := func() (llm.Client, error) {
		if client != nil {
			return client, nil
		}
		c, err := s.newClient(ctx, s.base.Merge(req.AI))
		if err != nil {
			return nil, err
		}
		client = c
		return client, nil
	}

	events(Event{Type: EventStatus, Message: "analyzing request"})
	parsed, styleWarns := styleparse.Parse(req.Text)
	warnings := styleparse.Strings(styleWarns)
	for _, w := range warnings {
		events(Event{Type: EventWarning, Message: w})
	}

	st := req.Structure
	dt, err := s.resolveType(ctx, req, getClient)
	if err != nil {
		return nil, err
	}
	events(Event{Type: EventStatus, Message: fmt.Sprintf("document type: %s", dt)})

	if st == nil {
		c, err := getClient()
		if err != nil {
			return nil, err
		}
		events(Event{Type: EventStatus, Message: "generating content"})

		var plain strings.Builder
		ex := stream.New(func(text string) {
			plain.WriteString(text)
			events(Event{Type: EventDelta, Message: text})
		})
		full, err := c.GenerateStream(ctx, outlineSystem(dt)+prompts.MustGet(prompts.GenerationFile, "stream-envelope"), outlineUser(req.Text), ex.Feed)
		if err != nil {
			return nil, err
		}
		payload, protoWarns := ex.Finish()
		for _, w := range protoWarns {
			msg := w.String()
			warnings = append(warnings, msg)
			events(Event{Type: EventWarning, Message: msg})
		}

		var built *types.DocumentStructure
		if payload != nil {
			b, outlineWarns, perr := parseOutline(dt, string(payload))
			if perr == nil {
				built = b
				for _, w := range outlineWarns {
					warnings = append(warnings, w)
					events(Event{Type: EventWarning, Message: w})
				}
			} else {
				msg := fmt.Sprintf("structure payload unusable: %v", perr)
				warnings = append(warnings, msg)
				events(Event{Type: EventWarning, Message: msg})
			}
		}
		if built == nil {
			source := plain.String()
			if strings.TrimSpace(source) == "" {
				source = full
			}
			built = Draft(dt, source, req.Title)
			msg := "no usable structure payload; built a draft from the streamed text"
			warnings = append(warnings, msg)
			events(Event{Type: EventWarning, Message: msg})
		}
		st = built
	}

	if req.Title != "" {
		st.Title = req.Title
	}
	style := types.DefaultStyle().Apply(st.Style).Apply(parsed).Apply(req.Style)

	if err := structure.Validate(st); err != nil {
		return nil, err
	}
	events(Event{Type: EventStatus, Message: "rendering artifact"})
	filename, err := s.emitArtifact(st, style)
	if err != nil {
		return nil, err
	}

	return &types.GenerationResult{
		Filename:  filename,
		Message:   resultMessage(dt),
		DocType:   dt,
		Structure: st,
		Warnings:  warnings,
	}, nil
}

// Modify regenerates an artifact: the current structure and the change
// instruction go to the model, which returns a full replacement structure.
func (s *Service) Modify(ctx context.Context, req *types.ModifyRequest) (*types.GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := structure.Validate(req.Structure); err != nil {
		return nil, err
	}
	dt := req.Structure.Type

	client, err := s.newClient(ctx, s.base.Merge(req.AI))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	current, err := json.MarshalIndent(req.Structure, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode current structure: %w", err)
	}
	user := prompts.Format(prompts.MustGet(prompts.GenerationFile, "modify-user"), map[string]string{
		"Structure": string(current),
		"Request":   req.Instruction,
	})
	raw, err := client.GenerateJSON(ctx, prompts.MustGet(prompts.GenerationFile, "modify"), user)
	if err != nil {
		return nil, err
	}

	st, err := decodeStructureResponse(raw)
	if err != nil {
		return nil, &OutlineError{Stage: "modify", Message: "model returned an unusable structure", Cause: err}
	}
	if st.Type != dt {
		return nil, &OutlineError{Stage: "modify", Message: fmt.Sprintf("model changed the document type from %q to %q", dt, st.Type)}
	}

	parsed, styleWarns := styleparse.Parse(req.Instruction)
	style := types.DefaultStyle().Apply(st.Style).Apply(parsed).Apply(req.Style)

	filename, err := s.emitArtifact(st, style)
	if err != nil {
		return nil, err
	}
	return &types.GenerationResult{
		Filename:  filename,
		Message:   "Your updated " + artifactNoun(dt) + " is ready.",
		DocType:   dt,
		Structure: st,
		Warnings:  styleparse.Strings(styleWarns),
	}, nil
}

// Detect resolves the document type for a piece of request text. Provider
// setup failures degrade to keyword scoring.
func (s *Service) Detect(ctx context.Context, text string, ai *types.AIConfig) (types.DocType, error) {
	client, err := s.newClient(ctx, s.base.Merge(ai))
	if err != nil {
		return keywordType(text), nil
	}
	defer client.Close()
	return DetectType(ctx, text, client)
}

func (s *Service) resolveType(ctx context.Context, req *types.GenerationRequest, getClient func() (llm.Client, error)) (types.DocType, error) {
	switch {
	case req.Structure != nil && req.Structure.Type.Valid():
		return req.Structure.Type, nil
	case req.DocType.Valid():
		return req.DocType, nil
	}
	client, err := getClient()
	if err != nil {
		return keywordType(req.Text), nil
	}
	return DetectType(ctx, req.Text, client)
}

// emitArtifact renders st into a temp file and publishes it under a fresh
// uuid filename. A failed emit discards the temp file and publishes
// nothing.
func (s *Service) emitArtifact(st *types.DocumentStructure, style types.StyleSpec) (string, error) {
	em, err := emit.For(st.Type)
	if err != nil {
		return "", err
	}
	filename, err := s.store.NewFilename(st.Type.Extension())
	if err != nil {
		return "", err
	}
	tmp, err := s.store.CreateTemp(st.Type.Extension())
	if err != nil {
		return "", err
	}
	if err := em.Emit(st, style, tmp); err != nil {
		s.store.Discard(tmp)
		return "", err
	}
	if _, err := s.store.Publish(tmp, filename); err != nil {
		return "", err
	}
	return filename, nil
}

func decodeStructureResponse(raw string) (*types.DocumentStructure, error) {
	raw = strings.TrimSpace(llm.CleanJSONBlock(raw))
	st, err := structure.Decode([]byte(raw))
	if err == nil {
		return st, nil
	}
	if extracted, ok := llm.ExtractJSON(raw); ok && extracted != raw {
		if st2, err2 := structure.Decode([]byte(extracted)); err2 == nil {
			return st2, nil
		}
	}
	return nil, err
}

func outlineSystem(dt types.DocType) string {
	key := "outline-word"
	switch dt {
	case types.DocTypeExcel:
		key = "outline-excel"
	case types.DocTypePPT:
		key = "outline-ppt"
	}
	return prompts.MustGet(prompts.GenerationFile, key)
}

func outlineUser(text string) string {
	return prompts.Format(prompts.MustGet(prompts.GenerationFile, "outline-user"),
		map[string]string{"Request": text})
}

func resultMessage(dt types.DocType) string {
	return "Your " + artifactNoun(dt) + " is ready."
}

func artifactNoun(dt types.DocType) string {
	switch dt {
	case types.DocTypeExcel:
		return "spreadsheet"
	case types.DocTypePPT:
		return "presentation"
	}
	return "document"
}
