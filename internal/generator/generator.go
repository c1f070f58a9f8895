// Package generator talks to the text-generation service that drafts
// dashboard configurations, and turns its free-form replies into JSON.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrEmptyResponse is returned when the service replies without text.
	ErrEmptyResponse = errors.New("generator: empty response")
	// ErrNoJSON is returned when a reply holds no JSON object.
	ErrNoJSON = errors.New("generator: no JSON object in response")
)

// Generator produces a raw text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ExtractJSON returns the JSON object in a reply. Markdown code fences are
// stripped; when prose surrounds the object, the outermost braces win.
func ExtractJSON(reply string) ([]byte, error) {
	cleaned := strings.TrimSpace(reply)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}
	cleaned = stripFence(cleaned)
	if json.Valid([]byte(cleaned)) && strings.HasPrefix(cleaned, "{") {
		return []byte(cleaned), nil
	}
	start := strings.IndexByte(cleaned, '{')
	end := strings.LastIndexByte(cleaned, '}')
	if start < 0 || end <= start {
		return nil, ErrNoJSON
	}
	candidate := []byte(cleaned[start : end+1])
	if !json.Valid(candidate) {
		return nil, ErrNoJSON
	}
	return bytes.TrimSpace(candidate), nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	// Drop the opening fence line, including any language tag.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
