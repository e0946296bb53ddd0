package generation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/liyue/office-engine/internal/llm"
	"github.com/liyue/office-engine/internal/prompts"
	"github.com/liyue/office-engine/internal/types"
)

// DetectType asks the model which artifact the request targets. Model
// failures and unusable answers fall back to keyword scoring, so the only
// error path is context cancellation.
func DetectType(ctx context.Context, text string, client llm.Client) (types.DocType, error) {
	system := prompts.MustGet(prompts.GenerationFile, "detect-type")
	user := prompts.Format(prompts.MustGet(prompts.GenerationFile, "detect-type-user"),
		map[string]string{"Request": text})

	raw, err := client.GenerateJSON(ctx, system, user)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return keywordType(text), nil
	}

	if extracted, ok := llm.ExtractJSON(raw); ok {
		raw = extracted
	}
	var reply struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err == nil {
		if dt, err := types.ParseDocType(strings.ToLower(strings.TrimSpace(reply.Type))); err == nil {
			return dt, nil
		}
	}
	return keywordType(text), nil
}

var keywordHints = map[types.DocType][]string{
	types.DocTypeExcel: {"spreadsheet", "excel", "workbook", "budget", "xlsx", "表格", "电子表格", "预算", "工作表", "统计表"},
	types.DocTypePPT:   {"presentation", "slide", "deck", "pitch", "ppt", "幻灯片", "演示文稿", "课件", "路演"},
	types.DocTypeWord:  {"report", "document", "letter", "article", "essay", "memo", "文档", "报告", "信函", "总结", "合同"},
}

// keywordType scores known vocabulary per document type. Empty scores and
// ties resolve toward word via the scan order.
func keywordType(text string) types.DocType {
	lower := strings.ToLower(text)
	best := types.DocTypeWord
	bestScore := 0
	for _, dt := range []types.DocType{types.DocTypeExcel, types.DocTypePPT, types.DocTypeWord} {
		score := 0
		for _, kw := range keywordHints[dt] {
			score += strings.Count(lower, kw)
		}
		if score > bestScore {
			best, bestScore = dt, score
		}
	}
	return best
}
