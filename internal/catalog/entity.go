package catalog

import (
	"encoding/json"
	"strings"
)

// Metadata is the typed product record stored alongside each vector. Both
// collections carry the same shape; the image collection holds a
// denormalized copy that may go stale relative to the text record.
type Metadata struct {
	ID             string
	OEMID          string
	Kind           string // "text" or "image"
	Name           string
	Description    string
	Images         string // canonical comma-joined URL list
	Specifications string // canonical JSON-encoded value
	Deleted        bool
}

// IsZero reports whether no field carries information.
func (m Metadata) IsZero() bool {
	return m.ID == "" && m.OEMID == "" && m.Kind == "" && m.Name == "" &&
		m.Description == "" && m.Images == "" && m.Specifications == "" && !m.Deleted
}

// ToMap converts to the schema-less form the vector store persists.
func (m Metadata) ToMap() map[string]any {
	out := map[string]any{}
	if m.ID != "" {
		out["id"] = m.ID
	}
	if m.OEMID != "" {
		out["oem_id"] = m.OEMID
	}
	if m.Kind != "" {
		out["type"] = m.Kind
	}
	if m.Name != "" {
		out["name"] = m.Name
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	if m.Images != "" {
		out["images"] = m.Images
	}
	if m.Specifications != "" {
		out["specifications"] = m.Specifications
	}
	if m.Deleted {
		out["deleted"] = true
	}
	return out
}

// MetadataFromMap recovers a typed record from stored metadata.
// Returns nil when raw is nil.
func MetadataFromMap(raw map[string]any) *Metadata {
	if raw == nil {
		return nil
	}
	m := &Metadata{
		ID:             stringField(raw, "id"),
		OEMID:          stringField(raw, "oem_id"),
		Kind:           stringField(raw, "type"),
		Name:           stringField(raw, "name"),
		Description:    stringField(raw, "description"),
		Images:         stringField(raw, "images"),
		Specifications: stringField(raw, "specifications"),
	}
	switch v := raw["deleted"].(type) {
	case bool:
		m.Deleted = v
	case string:
		m.Deleted = strings.EqualFold(strings.TrimSpace(v), "true")
	case float64:
		m.Deleted = v != 0
	}
	return m
}

func stringField(raw map[string]any, key string) string {
	v, ok := raw[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// ParseImages splits the canonical comma-joined form into an ordered URL
// list, trimming entries and dropping empties.
func ParseImages(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinImages is the inverse of ParseImages for trim-stable, non-empty URLs.
func JoinImages(list []string) string {
	kept := make([]string, 0, len(list))
	for _, u := range list {
		if u = strings.TrimSpace(u); u != "" {
			kept = append(kept, u)
		}
	}
	return strings.Join(kept, ",")
}

// ParseSpecifications best-effort decodes the canonical JSON string.
// Malformed input degrades to an empty list and never produces an error;
// a whole response must not fail on one bad specifications field.
func ParseSpecifications(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return []any{}
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return []any{}
	}
	return v
}

// EncodeSpecifications renders a structured value into the canonical stored
// form. Strings are re-encoded through a parse when they already hold JSON
// so the round-trip stays stable; anything unencodable degrades to "".
func EncodeSpecifications(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			if b, err := json.Marshal(parsed); err == nil {
				return string(b)
			}
		}
		return s
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		if string(b) == "null" {
			return ""
		}
		return string(b)
	}
}

// DeriveDescription recovers a description from an embeddable document
// written under the legacy "{name}: {description}" convention: everything
// after the first ": ", or the whole document when no separator exists.
func DeriveDescription(document string) string {
	if document == "" {
		return ""
	}
	if _, after, ok := strings.Cut(document, ": "); ok {
		return after
	}
	return document
}

// EmbeddableText derives the text embedded for a record: the description
// when present, else the name, else empty.
func EmbeddableText(m Metadata) string {
	if m.Description != "" {
		return m.Description
	}
	return m.Name
}
