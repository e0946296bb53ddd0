package generation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/liyue/office-engine/internal/prompts"
	"github.com/liyue/office-engine/internal/types"
)

// chatTailHoldback is how many trailing bytes of a streamed chat reply are
// withheld from delta callbacks so the readiness marker never flashes on
// screen before it can be stripped. Sized to cover a marker with a long
// one-line summary.
const chatTailHoldback = 160

var readyMarker = regexp.MustCompile(`\[READY:([A-Za-z]+):([^\]]*)\]`)

// Chat runs one requirement-gathering turn. The model's readiness marker,
// if present, is stripped from the visible message and surfaced as
// Ready/DocType/Summary.
func (s *Service) Chat(ctx context.Context, req *types.ChatRequest) (*types.ChatReply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client, err := s.newClient(ctx, s.base.Merge(req.AI))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	text, err := client.GenerateContent(ctx,
		prompts.MustGet(prompts.ChatFile, "requirements"),
		flattenConversation(req.Messages))
	if err != nil {
		return nil, err
	}
	reply := parseReady(text)
	return &reply, nil
}

// ChatStream is Chat with incremental delivery. Deltas lag the model by up
// to chatTailHoldback bytes; the final flush carries the remainder of the
// marker-stripped message.
func (s *Service) ChatStream(ctx context.Context, req *types.ChatRequest, onDelta func(string)) (*types.ChatReply, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	client, err := s.newClient(ctx, s.base.Merge(req.AI))
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if onDelta == nil {
		onDelta = func(string) {}
	}
	emitted := 0
	var pending []byte
	full, err := client.GenerateStream(ctx,
		prompts.MustGet(prompts.ChatFile, "requirements"),
		flattenConversation(req.Messages),
		func(delta string) {
			pending = append(pending, delta...)
			if len(pending) <= chatTailHoldback {
				return
			}
			cut := len(pending) - chatTailHoldback
			for cut > 0 && !utf8.RuneStart(pending[cut]) {
				cut--
			}
			if cut == 0 {
				return
			}
			onDelta(string(pending[:cut]))
			emitted += cut
			pending = pending[cut:]
		})
	if err != nil {
		return nil, err
	}

	visible, ready, dt, summary := stripMarker(full)
	if emitted < len(visible) {
		onDelta(visible[emitted:])
	}
	return &types.ChatReply{
		Message: strings.TrimSpace(visible),
		Ready:   ready,
		DocType: dt,
		Summary: summary,
	}, nil
}

func flattenConversation(messages []types.ChatMessage) string {
	var sb strings.Builder
	for _, m := range messages {
		role := "User"
		if m.Role == "assistant" {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n\n", role, m.Content)
	}
	sb.WriteString("Assistant:")
	return sb.String()
}

// stripMarker removes the last readiness marker from text and decodes its
// fields. A marker with an unknown type is still stripped but reports not
// ready.
func stripMarker(text string) (visible string, ready bool, dt types.DocType, summary string) {
	ms := readyMarker.FindAllStringSubmatchIndex(text, -1)
	if len(ms) == 0 {
		return text, false, "", ""
	}
	m := ms[len(ms)-1]
	visible = text[:m[0]] + text[m[1]:]
	parsed, err := types.ParseDocType(strings.ToLower(text[m[2]:m[3]]))
	if err != nil {
		return visible, false, "", ""
	}
	return visible, true, parsed, strings.TrimSpace(text[m[4]:m[5]])
}

func parseReady(text string) types.ChatReply {
	visible, ready, dt, summary := stripMarker(text)
	return types.ChatReply{
		Message: strings.TrimSpace(visible),
		Ready:   ready,
		DocType: dt,
		Summary: summary,
	}
}
