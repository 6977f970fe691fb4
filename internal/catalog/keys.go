package catalog

import (
	"strconv"
	"strings"
)

const (
	textKeyPrefix  = "text-"
	imageKeyPrefix = "image-"
)

// TextKey returns the text-collection key for a canonical id.
func TextKey(id string) string {
	return textKeyPrefix + id
}

// ImageKey returns the image-collection key for the i-th image of an entity.
func ImageKey(id string, i int) string {
	return imageKeyPrefix + id + "-" + strconv.Itoa(i)
}

// CanonicalID recovers the canonical entity id from any record key. It never
// fails: a key that doesn't match either scheme is already a canonical id,
// and a malformed image key falls back to the whole string. Ids are trusted
// not to collide with the prefixes.
func CanonicalID(raw string) string {
	if rest, ok := strings.CutPrefix(raw, textKeyPrefix); ok {
		return rest
	}
	if id, _, ok := SplitImageKey(raw); ok {
		return id
	}
	return raw
}

// SplitImageKey decodes an "image-{id}-{index}" key. The id may itself
// contain hyphens, so the index is the segment after the last one.
func SplitImageKey(raw string) (id string, index int, ok bool) {
	rest, ok := strings.CutPrefix(raw, imageKeyPrefix)
	if !ok {
		return "", 0, false
	}
	cut := strings.LastIndex(rest, "-")
	if cut <= 0 {
		return "", 0, false
	}
	idx, err := strconv.Atoi(rest[cut+1:])
	if err != nil || idx < 0 {
		return "", 0, false
	}
	return rest[:cut], idx, true
}
