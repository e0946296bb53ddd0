package generation

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/storage"
	"github.com/liyue/office-engine/internal/structure"
	"github.com/liyue/office-engine/internal/types"
)

type mockClient struct {
	generateContent func(ctx context.Context, system, prompt string) (string, error)
	generateJSON    func(ctx context.Context, system, prompt string) (string, error)
	generateStream  func(ctx context.Context, system, prompt string, onDelta func(string)) (string, error)
}

func (m *mockClient) GenerateContent(ctx context.Context, system, prompt string) (string, error) {
	if m.generateContent == nil {
		return "", errors.New("unexpected GenerateContent call")
	}
	return m.generateContent(ctx, system, prompt)
}

func (m *mockClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	if m.generateJSON == nil {
		return "", errors.New("unexpected GenerateJSON call")
	}
	return m.generateJSON(ctx, system, prompt)
}

func (m *mockClient) GenerateStream(ctx context.Context, system, prompt string, onDelta func(string)) (string, error) {
	if m.generateStream == nil {
		return "", errors.New("unexpected GenerateStream call")
	}
	return m.generateStream(ctx, system, prompt, onDelta)
}

func (m *mockClient) Model() string { return "mock-model" }
func (m *mockClient) Close() error  { return nil }

// newTestService wires a service to a temp store and the given client. A
// nil client makes any provider access fail the test's pipeline.
func newTestService(t *testing.T, client llm.Client) *Service {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	require.NoError(t, err)

	svc := NewService(store, llm.Config{Provider: llm.ProviderOpenAI, APIKey: "test", Model: "test-model"})
	svc.newClient = func(_ context.Context, _ llm.Config) (llm.Client, error) {
		if client == nil {
			return nil, &llm.ProviderError{Provider: "mock", Message: "no client in this test"}
		}
		return client, nil
	}
	return svc
}

func wordStructure() *types.DocumentStructure {
	return &types.DocumentStructure{
		Type:  types.DocTypeWord,
		Title: "Notes",
		Word: &types.WordContent{Blocks: []types.WordBlock{
			{Kind: types.BlockParagraph, Paragraph: &types.ParagraphBlock{Text: "First draft."}},
		}},
	}
}

func TestGenerate_PrebuiltStructureSkipsProvider(t *testing.T) {
	svc := newTestService(t, nil)

	result, err := svc.Generate(context.Background(), &types.GenerationRequest{Structure: wordStructure()})
	require.NoError(t, err)

	assert.Equal(t, types.DocTypeWord, result.DocType)
	assert.True(t, strings.HasSuffix(result.Filename, ".docx"))
	assert.FileExists(t, filepath.Join(svc.Store().Dir(), result.Filename))
	assert.Empty(t, result.Warnings)
}

func TestGenerate_StructureTypeWinsOverRequestType(t *testing.T) {
	svc := newTestService(t, nil)

	result, err := svc.Generate(context.Background(), &types.GenerationRequest{
		Structure: wordStructure(),
		DocType:   types.DocTypeExcel,
	})
	require.NoError(t, err)
	assert.Equal(t, types.DocTypeWord, result.DocType)
}

func TestGenerate_OutlinePipelinePublishesWorkbook(t *testing.T) {
	client := &mockClient{
		generateJSON: func(_ context.Context, system, prompt string) (string, error) {
			assert.Contains(t, system, "Excel workbook")
			assert.Contains(t, prompt, "team budget")
			return excelOutlineJSON, nil
		},
	}
	svc := newTestService(t, client)

	result, err := svc.Generate(context.Background(), &types.GenerationRequest{
		Text:    "a team budget",
		DocType: types.DocTypeExcel,
	})
	require.NoError(t, err)
	assert.Equal(t, "Your spreadsheet is ready.", result.Message)

	f, err := excelize.OpenFile(filepath.Join(svc.Store().Dir(), result.Filename))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	got, err := f.GetCellValue("Budget", "B4")
	require.NoError(t, err)
	assert.Equal(t, "1500", got)
}

func TestGenerate_CallerTitleOverridesModelTitle(t *testing.T) {
	client := &mockClient{
		generateJSON: func(_ context.Context, _, _ string) (string, error) {
			return `{"title": "Model Title", "sections": [{"heading": "A", "content": "b"}]}`, nil
		},
	}
	svc := newTestService(t, client)

	result, err := svc.Generate(context.Background(), &types.GenerationRequest{
		Text:    "a report, font size 16pt",
		Title:   "Caller Title",
		DocType: types.DocTypeWord,
	})
	require.NoError(t, err)
	assert.Equal(t, "Caller Title", result.Structure.Title)
}

func TestGenerate_UnusableOutlineFallsBackToDraft(t *testing.T) {
	client := &mockClient{
		generateJSON: func(_ context.Context, _, _ string) (string, error) {
			return "## Thoughts\n\nNo JSON today.", nil
		},
	}
	svc := newTestService(t, client)

	result, err := svc.Generate(context.Background(), &types.GenerationRequest{
		Text:    "write something",
		DocType: types.DocTypeWord,
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "outline unusable")
	require.NotNil(t, result.Structure.Word)
	assert.NotEmpty(t, result.Structure.Word.Blocks)
}

func TestGenerate_InvalidRequest(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Generate(context.Background(), &types.GenerationRequest{})
	assert.Error(t, err)
}

func TestGenerate_InvalidStructureRejectedBeforeEmit(t *testing.T) {
	svc := newTestService(t, nil)
	st := wordStructure()
	st.Word.Blocks[0].Kind = "bogus"

	_, err := svc.Generate(context.Background(), &types.GenerationRequest{Structure: st})

	var verr *structure.ValidationError
	require.ErrorAs(t, err, &verr)
	count, cerr := svc.Store().ArtifactCount()
	require.NoError(t, cerr)
	assert.Zero(t, count)
}

func TestGenerate_EmitFailureLeavesNoArtifact(t *testing.T) {
	svc := newTestService(t, nil)
	st := wordStructure()
	st.Word.Blocks = append(st.Word.Blocks, types.WordBlock{
		Kind:  types.BlockImage,
		Image: &types.ImageBlock{Path: filepath.Join(t.TempDir(), "missing.png")},
	})

	_, err := svc.Generate(context.Background(), &types.GenerationRequest{Structure: st})
	require.Error(t, err)

	entries, globErr := filepath.Glob(filepath.Join(svc.Store().Dir(), "*"))
	require.NoError(t, globErr)
	assert.Empty(t, entries)
}

func TestGenerateStream_EnvelopeAcrossChunks(t *testing.T) {
	reply := "Building your budget sheet now." +
		"<STRUCTURE>" + excelOutlineJSON + "</STRUCTURE>"
	client := &mockClient{
		generateStream: func(_ context.Context, system, _ string, onDelta func(string)) (string, error) {
			assert.Contains(t, system, "<STRUCTURE>")
			for i := 0; i < len(reply); i += 7 {
				end := i + 7
				if end > len(reply) {
					end = len(reply)
				}
				onDelta(reply[i:end])
			}
			return reply, nil
		},
	}
	svc := newTestService(t, client)

	var events []Event
	err := svc.GenerateStream(context.Background(), &types.GenerationRequest{
		Text:    "a team budget",
		DocType: types.DocTypeExcel,
	}, func(e Event) { events = append(events, e) })
	require.NoError(t, err)

	var deltas strings.Builder
	var result *types.GenerationResult
	for _, e := range events {
		switch e.Type {
		case EventDelta:
			deltas.WriteString(e.Message)
		case EventResult:
			result = e.Result
		}
	}
	assert.Equal(t, "Building your budget sheet now.", deltas.String())
	require.NotNil(t, result)
	assert.Equal(t, EventResult, events[len(events)-1].Type)
	assert.FileExists(t, filepath.Join(svc.Store().Dir(), result.Filename))
	assert.Empty(t, result.Warnings)
}

func TestGenerateStream_UnterminatedEnvelopeFallsBack(t *testing.T) {
	client := &mockClient{
		generateStream: func(_ context.Context, _, _ string, onDelta func(string)) (string, error) {
			onDelta("Here is the plan. ")
			onDelta("<STRUCTURE>{\"title\": \"half")
			return "Here is the plan. <STRUCTURE>{\"title\": \"half", nil
		},
	}
	svc := newTestService(t, client)

	var events []Event
	err := svc.GenerateStream(context.Background(), &types.GenerationRequest{
		Text:    "plan doc",
		DocType: types.DocTypeWord,
	}, func(e Event) { events = append(events, e) })
	require.NoError(t, err)

	var result *types.GenerationResult
	var warnings []string
	for _, e := range events {
		if e.Type == EventWarning {
			warnings = append(warnings, e.Message)
		}
		if e.Type == EventResult {
			result = e.Result
		}
	}
	require.NotNil(t, result)
	assert.Contains(t, strings.Join(warnings, "\n"), "unterminated")
	require.NotNil(t, result.Structure.Word)
	require.NotEmpty(t, result.Structure.Word.Blocks)
	assert.Equal(t, "Here is the plan.", result.Structure.Word.Blocks[0].Paragraph.Text)
}

func TestGenerateStream_ProviderErrorEmitsErrorEvent(t *testing.T) {
	client := &mockClient{
		generateStream: func(_ context.Context, _, _ string, _ func(string)) (string, error) {
			return "", &llm.ProviderError{Provider: "openai", Message: "boom"}
		},
	}
	svc := newTestService(t, client)

	var events []Event
	err := svc.GenerateStream(context.Background(), &types.GenerationRequest{
		Text:    "anything",
		DocType: types.DocTypeWord,
	}, func(e Event) { events = append(events, e) })

	require.Error(t, err)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Contains(t, last.Message, "boom")
}

func TestModify_ReplacesStructure(t *testing.T) {
	updated := &types.DocumentStructure{
		Type:  types.DocTypeWord,
		Title: "Notes",
		Word: &types.WordContent{Blocks: []types.WordBlock{
			{Kind: types.BlockParagraph, Paragraph: &types.ParagraphBlock{Text: "First draft."}},
			{Kind: types.BlockParagraph, Paragraph: &types.ParagraphBlock{Text: "Second thoughts."}},
		}},
	}
	client := &mockClient{
		generateJSON: func(_ context.Context, _, prompt string) (string, error) {
			assert.Contains(t, prompt, "First draft.")
			assert.Contains(t, prompt, "add a second paragraph")
			data, err := json.Marshal(updated)
			return string(data), err
		},
	}
	svc := newTestService(t, client)

	result, err := svc.Modify(context.Background(), &types.ModifyRequest{
		Instruction: "add a second paragraph",
		Structure:   wordStructure(),
	})
	require.NoError(t, err)
	require.Len(t, result.Structure.Word.Blocks, 2)
	assert.FileExists(t, filepath.Join(svc.Store().Dir(), result.Filename))
}

func TestModify_RejectsTypeChange(t *testing.T) {
	client := &mockClient{
		generateJSON: func(_ context.Context, _, _ string) (string, error) {
			return `{"type": "excel", "sheet": {"headers": ["A"]}}`, nil
		},
	}
	svc := newTestService(t, client)

	_, err := svc.Modify(context.Background(), &types.ModifyRequest{
		Instruction: "turn it into a sheet",
		Structure:   wordStructure(),
	})

	var oerr *OutlineError
	require.ErrorAs(t, err, &oerr)
	assert.Contains(t, oerr.Message, "changed the document type")
}

func TestModify_UnusableReplyIsOutlineError(t *testing.T) {
	client := &mockClient{
		generateJSON: func(_ context.Context, _, _ string) (string, error) {
			return "cannot help with that", nil
		},
	}
	svc := newTestService(t, client)

	_, err := svc.Modify(context.Background(), &types.ModifyRequest{
		Instruction: "anything",
		Structure:   wordStructure(),
	})

	var oerr *OutlineError
	assert.ErrorAs(t, err, &oerr)
}

func TestDetect_ProviderFailureDegradesToKeywords(t *testing.T) {
	svc := newTestService(t, nil)

	dt, err := svc.Detect(context.Background(), "a sales presentation", nil)
	require.NoError(t, err)
	assert.Equal(t, types.DocTypePPT, dt)
}
