package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	errNoObject       = errors.New("model response is not a JSON object")
	errTrailingOutput = errors.New("model response has content after the JSON object")
)

// reasoningBlock matches a leading <think>...</think> block some models emit
// even when a response schema is set.
var reasoningBlock = regexp.MustCompile(`(?s)^\s*<think>.*?</think>`)

// fencedBlock matches a response wrapped entirely in one markdown code fence.
var fencedBlock = regexp.MustCompile("(?s)^```[A-Za-z]*[ \t]*\n(.*?)\n?```$")

// ExtractObject returns the JSON object a model response consists of.
// Only a leading reasoning block and one markdown fence around the whole
// object are removed; any other text before or after the object is an error.
func ExtractObject(response string) (string, error) {
	text := strings.TrimSpace(reasoningBlock.ReplaceAllString(response, ""))
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	if !strings.HasPrefix(text, "{") {
		return "", errNoObject
	}

	dec := json.NewDecoder(strings.NewReader(text))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", fmt.Errorf("%w: %v", errNoObject, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", errTrailingOutput
	}
	return string(raw), nil
}

// DecodeObject extracts the JSON object from a model response and
// unmarshals it into T.
func DecodeObject[T any](response string) (T, error) {
	var out T

	obj, err := ExtractObject(response)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return out, fmt.Errorf("decode model object: %w", err)
	}
	return out, nil
}
