package domain

import (
	"fmt"
	"strings"
)

var (
	contentKeys = []string{"page_content", "content", "text"}

	metadataAliases = map[string]string{
		"title":        MetaHeading,
		"section_type": MetaType,
		"source_url":   MetaSource,
	}
)

// PassageFromPayload decodes a stored point payload. Both the nested
// {"page_content", "metadata": {...}} layout and flat payloads are accepted;
// legacy keys (title, section_type, source_url) map onto the Meta* keys
// without overwriting them.
func PassageFromPayload(payload map[string]any, score float64) Passage {
	p := Passage{Score: score, Metadata: map[string]string{}}

	for _, key := range contentKeys {
		if v, ok := payload[key].(string); ok && strings.TrimSpace(v) != "" {
			p.Content = v
			break
		}
	}

	if nested, ok := payload["metadata"].(map[string]any); ok {
		mergeMetadata(p.Metadata, nested)
	}
	flat := make(map[string]any, len(payload))
	for k, v := range payload {
		switch k {
		case "metadata", "page_content", "content", "text":
			continue
		}
		flat[k] = v
	}
	mergeMetadata(p.Metadata, flat)
	return p
}

func NormalizeMetadata(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	raw := make(map[string]any, len(meta))
	for k, v := range meta {
		raw[k] = v
	}
	mergeMetadata(out, raw)
	return out
}

func mergeMetadata(dst map[string]string, src map[string]any) {
	for k, v := range src {
		if v == nil {
			continue
		}
		if _, exists := dst[k]; exists {
			continue
		}
		dst[k] = stringify(v)
	}
	for legacy, key := range metadataAliases {
		if v, ok := dst[legacy]; ok && dst[key] == "" {
			dst[key] = v
		}
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", v)
	}
}
