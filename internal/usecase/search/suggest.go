package search

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/kailas-cloud/esmem/internal/domain"
)

// globalText is the suggest body key shared by entries that carry no text of their own.
const globalText = "text"

// suggestions renders one term suggestion per suggest entry. A string text is suggested
// as "<text>_suggestion" and a number as the next number.
func suggestions(body map[string]any) (map[string]any, error) {
	shared := body[globalText]

	out := make(map[string]any, len(body))
	for name, raw := range body {
		if name == globalText {
			continue
		}
		entry, ok := raw.(map[string]any)
		if !ok {
			return nil, domain.NewParsing(fmt.Sprintf("suggester [%s] must be an object", name))
		}
		text, ok := entry["text"]
		if !ok {
			text = shared
		}
		if text == nil {
			return nil, domain.NewValidation(fmt.Sprintf("suggester [%s] requires a text;", name))
		}

		option, err := suggestOption(text)
		if err != nil {
			return nil, fmt.Errorf("suggester [%s]: %w", name, err)
		}
		out[name] = []any{map[string]any{
			"text":   text,
			"offset": 0,
			"length": 1,
			"options": []any{map[string]any{
				"text":  option,
				"freq":  1,
				"score": score,
			}},
		}}
	}
	return out, nil
}

func suggestOption(text any) (any, error) {
	if s, ok := text.(string); ok {
		return s + "_suggestion", nil
	}
	n, err := cast.ToFloat64E(text)
	if err != nil {
		return nil, domain.NewParsing(fmt.Sprintf("unsupported suggest text [%v]", text))
	}
	return n + 1, nil
}
