package legal

import (
	"fmt"
	"strings"
)

// ActIDFor derives "jurisdiction-actNo-actYear" from doc, with the
// jurisdiction lowercased. It reports false when any of the three fields is
// missing.
func ActIDFor(doc DocumentMetadata) (string, bool) {
	j := strings.ToLower(strings.TrimSpace(doc.Legal.Jurisdiction))
	no := strings.TrimSpace(doc.Legal.ActNo)
	year := strings.TrimSpace(doc.Legal.ActYear)
	if j == "" || no == "" || year == "" {
		return "", false
	}
	return j + "-" + no + "-" + year, true
}

// NewActMetadata seeds an act from the first document carrying its triple.
// The document itself is not added.
func NewActMetadata(doc DocumentMetadata) (ActMetadata, error) {
	id, ok := ActIDFor(doc)
	if !ok {
		return ActMetadata{}, fmt.Errorf("%w: act number, year or jurisdiction missing for document %s", ErrInvalidActMetadata, doc.ID)
	}
	j, err := ParseJurisdiction(doc.Legal.Jurisdiction)
	if err != nil {
		return ActMetadata{}, fmt.Errorf("%w: document %s: %v", ErrInvalidActMetadata, doc.ID, err)
	}
	return ActMetadata{
		ID:                id,
		No:                strings.TrimSpace(doc.Legal.ActNo),
		Year:              strings.TrimSpace(doc.Legal.ActYear),
		Title:             doc.Legal.ActTitle,
		PassingDate:       parseDate(doc.Legal.PassDate),
		EffectiveFromDate: parseDate(doc.Legal.EffectiveDate),
		Jurisdiction:      j,
	}, nil
}

// ActCatalog maps act ids to acts, keeping the order in which acts were first seen.
type ActCatalog struct {
	acts []ActMetadata
	byID map[string]int
}

// BuildActCatalog groups docs by act id in encounter order. Documents with an
// incomplete triple are left out; a complete triple naming an unknown
// jurisdiction fails with ErrInvalidActMetadata.
func BuildActCatalog(docs []DocumentMetadata) (*ActCatalog, error) {
	c := &ActCatalog{byID: map[string]int{}}
	for _, doc := range docs {
		id, ok := ActIDFor(doc)
		if !ok {
			continue
		}
		idx, seen := c.byID[id]
		if !seen {
			act, err := NewActMetadata(doc)
			if err != nil {
				return nil, err
			}
			idx = len(c.acts)
			c.acts = append(c.acts, act)
			c.byID[id] = idx
		}
		c.acts[idx].Documents = append(c.acts[idx].Documents, doc)
	}
	return c, nil
}

func (c *ActCatalog) Get(id string) (ActMetadata, bool) {
	if c == nil {
		return ActMetadata{}, false
	}
	idx, ok := c.byID[id]
	if !ok {
		return ActMetadata{}, false
	}
	return c.acts[idx], true
}

// Acts returns the acts in catalog order.
func (c *ActCatalog) Acts() []ActMetadata {
	if c == nil {
		return nil
	}
	out := make([]ActMetadata, len(c.acts))
	copy(out, c.acts)
	return out
}

func (c *ActCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.acts)
}
