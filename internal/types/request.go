package types

import (
	"github.com/go-playground/validator/v10"
)

// AIConfig selects the AI provider for a single request. It is threaded
// explicitly through the generation path; there is no process-global
// provider state. Empty fields fall back to server configuration and then
// to environment variables.
type AIConfig struct {
	Provider string `json:"provider,omitempty" validate:"omitempty,oneof=openai gemini"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" validate:"omitempty,url"`
	Model    string `json:"model,omitempty"`
}

// GenerationRequest is the request boundary for all artifact generation.
// Text drives inference; a pre-built Structure bypasses it. Style overrides
// whatever the directive parser finds in Text.
type GenerationRequest struct {
	Text      string             `json:"text,omitempty" validate:"required_without=Structure"`
	Title     string             `json:"title,omitempty"`
	DocType   DocType            `json:"doc_type,omitempty" validate:"omitempty,oneof=word excel ppt"`
	Structure *DocumentStructure `json:"structure,omitempty"`
	Style     *StylePatch        `json:"style,omitempty"`
	AI        *AIConfig          `json:"ai,omitempty"`
}

// Validate validates the GenerationRequest using the validator.
func (r *GenerationRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ModifyRequest regenerates an artifact from a previous structure plus a
// change instruction.
type ModifyRequest struct {
	Instruction string             `json:"instruction" validate:"required,min=1"`
	Structure   *DocumentStructure `json:"structure" validate:"required"`
	Style       *StylePatch        `json:"style,omitempty"`
	AI          *AIConfig          `json:"ai,omitempty"`
}

// Validate validates the ModifyRequest using the validator.
func (r *ModifyRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ChatMessage is one turn of a requirement-gathering conversation.
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest carries the conversation so far.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	AI       *AIConfig     `json:"ai,omitempty"`
}

// Validate validates the ChatRequest using the validator.
func (r *ChatRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// ChatReply is the assistant's turn. When the conversation has gathered
// enough to generate, Ready is true and DocType/Summary carry the handoff.
type ChatReply struct {
	Message string  `json:"message"`
	Ready   bool    `json:"ready"`
	DocType DocType `json:"doc_type,omitempty"`
	Summary string  `json:"summary,omitempty"`
}

// GenerationResult reports one emitted artifact. Filename is opaque (a
// fresh UUID plus extension); callers download it through the storage
// layer. Warnings carry non-fatal style and stream protocol notes.
type GenerationResult struct {
	Filename  string             `json:"filename"`
	Message   string             `json:"message"`
	DocType   DocType            `json:"doc_type"`
	Structure *DocumentStructure `json:"structure,omitempty"`
	Warnings  []string           `json:"warnings,omitempty"`
}
