package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// StripFences removes a surrounding markdown code fence from an LLM response,
// e.g. ```json ... ```. Responses without a fence pass through unchanged.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseJSONArray cleans and unmarshals an LLM response expected to be a JSON
// array of T. It strips fences, slices the outermost brackets to drop any
// surrounding prose, and as a last resort runs the payload through jsonrepair
// to recover from truncated output.
func ParseJSONArray[T any](response string) ([]T, error) {
	jsonStr := StripFences(response)

	start := strings.IndexByte(jsonStr, '[')
	end := strings.LastIndexByte(jsonStr, ']')
	if start == -1 {
		return nil, fmt.Errorf("no JSON array found in response (missing '[')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	} else {
		jsonStr = jsonStr[start:]
	}

	var result []T
	if err := json.Unmarshal([]byte(jsonStr), &result); err == nil {
		return result, nil
	}

	repaired, err := jsonrepair.JSONRepair(jsonStr)
	if err != nil {
		return nil, fmt.Errorf("failed to repair JSON array: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON array: %w", err)
	}
	return result, nil
}

// ParseJSON cleans and unmarshals a JSON object response into a type T.
// It handles common LLM quirks like surrounding markdown or extra text.
func ParseJSON[T any](response string) (T, error) {
	var zero T
	jsonStr := StripFences(response)

	start := strings.IndexByte(jsonStr, '{')
	end := strings.LastIndexByte(jsonStr, '}')
	if start == -1 {
		return zero, fmt.Errorf("no JSON object found in response (missing '{')")
	}
	if end > start {
		jsonStr = jsonStr[start : end+1]
	}

	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err == nil {
		return result, nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(jsonStr)
	if repairErr != nil {
		return zero, fmt.Errorf("failed to repair JSON object: %w", repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return zero, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return result, nil
}
