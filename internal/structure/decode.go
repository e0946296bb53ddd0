package structure

import (
	"encoding/json"
	"fmt"

	"github.com/liyue/office-engine/internal/types"
)

// Decode parses a JSON document structure and validates it. Malformed JSON
// returns a plain decode error; well-formed JSON that breaks an invariant
// returns a *ValidationError.
func Decode(data []byte) (*types.DocumentStructure, error) {
	var st types.DocumentStructure
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode structure: %w", err)
	}
	if err := Validate(&st); err != nil {
		return nil, err
	}
	return &st, nil
}
