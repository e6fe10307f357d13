// Package reply classifies assistant answers as structured price quotes or
// plain prose. Classification is a pure function of the accumulated text and
// is re-run on every render, so partial or invalid JSON is simply "not
// structured yet".
package reply

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Price is one row of a quoted price list.
type Price struct {
	Label string `json:"label"`
	Price string `json:"price"`
}

// StructuredReply is an answer carrying free text and an optional price list.
type StructuredReply struct {
	Text   string  `json:"text"`
	Prices []Price `json:"prices"`
}

// HasPrices reports whether there is a price table to draw.
func (r *StructuredReply) HasPrices() bool {
	return r != nil && len(r.Prices) > 0
}

// Classify returns the structured reply embedded in text, or nil when text
// should be rendered as prose. The whole text is tried first, then the span
// from the first '{' to the last '}'. Classify never panics.
func Classify(text string) *StructuredReply {
	if r, ok := parse(text); ok {
		return r
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		if r, ok := parse(text[start : end+1]); ok {
			return r
		}
	}
	return nil
}

func parse(s string) (*StructuredReply, bool) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	// Reject trailing data: the candidate must be exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	text, ok := obj["text"].(string)
	if !ok || text == "" {
		return nil, false
	}

	r := &StructuredReply{Text: text, Prices: []Price{}}
	items, _ := obj["prices"].([]any)
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r.Prices = append(r.Prices, Price{
			Label: firstPresent(entry, "label", "type"),
			Price: firstPresent(entry, "price", "amount"),
		})
	}
	return r, true
}

// firstPresent returns the first key whose value renders non-empty. Zero,
// false and "" count as absent.
func firstPresent(entry map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := scalar(entry[k]); s != "" {
			return s
		}
	}
	return ""
}

func scalar(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			return ""
		}
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
