package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Event    string `json:"event"`
	Category string `json:"category"`
}

func TestParseJSONArray(t *testing.T) {
	items, err := ParseJSONArray[testItem](`[{"event": "doctor visit", "category": "appointment"}]`)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "doctor visit", items[0].Event)
}

func TestParseJSONArrayStripsFences(t *testing.T) {
	response := "```json\n[{\"event\": \"birthday party\", \"category\": \"birthday\"}]\n```"
	items, err := ParseJSONArray[testItem](response)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "birthday party", items[0].Event)
}

func TestParseJSONArraySurroundingProse(t *testing.T) {
	response := `Here are the events I found:
[{"event": "lunch with Mary", "category": "activity"}]
Let me know if you need anything else.`
	items, err := ParseJSONArray[testItem](response)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestParseJSONArrayEmpty(t *testing.T) {
	items, err := ParseJSONArray[testItem]("[]")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestParseJSONArrayRepairsTruncated(t *testing.T) {
	// Missing closing brackets, recoverable via repair.
	response := `[{"event": "dentist", "category": "appointment"`
	items, err := ParseJSONArray[testItem](response)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "dentist", items[0].Event)
}

func TestParseJSONArrayRejectsNonArray(t *testing.T) {
	_, err := ParseJSONArray[testItem](`null`)
	assert.Error(t, err)

	_, err = ParseJSONArray[testItem](`{"event": "x"}`)
	assert.Error(t, err)

	_, err = ParseJSONArray[testItem]("complete gibberish")
	assert.Error(t, err)
}

func TestParseJSONObject(t *testing.T) {
	type wrapper struct {
		Fact string `json:"fact"`
	}
	got, err := ParseJSON[wrapper]("```\n{\"fact\": \"lives in Ohio\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "lives in Ohio", got.Fact)
}
