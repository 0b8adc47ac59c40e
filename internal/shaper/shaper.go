// Package shaper validates raw model output and unwraps the JSON envelopes
// that models put around structured results.
package shaper

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	ErrEmptyAnswer   = errors.New("empty model answer")
	ErrMalformedJSON = errors.New("malformed JSON in model output")
)

const fence = "```"

// Answer returns a chat answer verbatim. Whitespace-only output is an error.
func Answer(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyAnswer
	}
	return raw, nil
}

// Decode extracts a JSON document from raw model output. It accepts bare
// JSON, JSON inside a markdown code fence, or JSON surrounded by prose (the
// outermost {...} span is used).
func Decode(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrMalformedJSON
	}
	if body, ok := fencedBody(s); ok {
		s = body
	}
	if gjson.Valid(s) {
		return []byte(s), nil
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		span := s[start : end+1]
		if gjson.Valid(span) {
			return []byte(span), nil
		}
	}
	return nil, ErrMalformedJSON
}

// fencedBody returns the content of the first ``` block, dropping the
// language tag on the opening line.
func fencedBody(s string) (string, bool) {
	open := strings.Index(s, fence)
	if open < 0 {
		return "", false
	}
	rest := s[open+len(fence):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if !strings.ContainsAny(tag, "{[") {
			rest = rest[nl+1:]
		}
	}
	if closeIdx := strings.Index(rest, fence); closeIdx >= 0 {
		rest = rest[:closeIdx]
	}
	return strings.TrimSpace(rest), true
}

// Unwrap digs the payload for key out of a decoded JSON object:
//  1. the value under key;
//  2. otherwise the value under "data";
//  3. otherwise the first array (flashcards, quiz) or first object (mindmap)
//     among the object's members, in document order;
//  4. otherwise parsed unchanged.
//
// Non-object input is returned unchanged. Unwrap never fails.
func Unwrap(parsed []byte, key string) []byte {
	root := gjson.ParseBytes(parsed)
	if !root.IsObject() {
		return parsed
	}
	if v := memberNamed(root, key); v.Exists() {
		return []byte(v.Raw)
	}
	if v := memberNamed(root, "data"); v.Exists() {
		return []byte(v.Raw)
	}
	wantObject := key == "mindmap"
	var found []byte
	root.ForEach(func(_, value gjson.Result) bool {
		if (wantObject && value.IsObject()) || (!wantObject && value.IsArray()) {
			found = []byte(value.Raw)
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return parsed
}

// memberNamed looks up a top-level member without gjson path syntax.
func memberNamed(obj gjson.Result, name string) gjson.Result {
	var out gjson.Result
	obj.ForEach(func(k, v gjson.Result) bool {
		if k.String() == name {
			out = v
			return false
		}
		return true
	})
	return out
}
