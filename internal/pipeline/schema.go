package pipeline

import "strings"

// SchemaNormalizer renames source-specific column headers to the common
// internal vocabulary using a per-source mapping table. Headers without a
// mapping keep a slug of their original spelling so adapters can still
// address columns the mapping table does not know about.
type SchemaNormalizer struct {
	renames map[string]string // normalized raw header -> canonical name
}

// NewSchemaNormalizer builds a normalizer from a raw-header rename table.
func NewSchemaNormalizer(renames map[string]string) *SchemaNormalizer {
	normalized := make(map[string]string, len(renames))
	for raw, canonical := range renames {
		normalized[normalizeHeader(raw)] = canonical
	}
	return &SchemaNormalizer{renames: normalized}
}

// Header maps a raw header row to canonical column names, position by
// position.
func (n *SchemaNormalizer) Header(headers []string) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		if canonical, ok := n.renames[normalizeHeader(h)]; ok {
			out[i] = canonical
			continue
		}
		out[i] = headerSlug(h)
	}
	return out
}

// Row pairs canonical column names with the cells of one record. Short rows
// leave trailing columns absent; extra cells beyond the header are dropped.
func (n *SchemaNormalizer) Row(canonicalHeaders []string, cells []string) Row {
	row := make(Row, len(canonicalHeaders))
	for i, name := range canonicalHeaders {
		if name == "" {
			continue
		}
		if i < len(cells) {
			row[name] = cells[i]
		}
	}
	return row
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// headerSlug converts an unmapped header to a lowercase underscore form.
func headerSlug(h string) string {
	return strings.ReplaceAll(normalizeHeader(h), " ", "_")
}
