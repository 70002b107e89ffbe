package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ParseArguments decodes a fully accumulated argument string. Empty input is
// an empty object. Malformed JSON is repaired when possible; otherwise the
// result is an empty object together with the parse error.
func ParseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}

	err := json.Unmarshal([]byte(raw), &args)
	if err == nil {
		return args, nil
	}

	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return map[string]any{}, fmt.Errorf("arguments are not an object: %w", err)
	}

	fixed, repairErr := jsonrepair.JSONRepair(raw)
	if repairErr != nil {
		return map[string]any{}, fmt.Errorf("failed to parse arguments: %w", err)
	}

	repaired := map[string]any{}
	if err := json.Unmarshal([]byte(fixed), &repaired); err != nil {
		return map[string]any{}, fmt.Errorf("failed to parse repaired arguments: %w", err)
	}
	logger.Debug("repaired malformed tool arguments", "raw", raw, "repaired", fixed)
	return repaired, nil
}
