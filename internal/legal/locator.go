package legal

import (
	"context"
	"errors"
	"fmt"

	"legalqa/internal/blob"

	"github.com/rs/zerolog"
)

// SectionIndexReader loads the section index of one document.
type SectionIndexReader interface {
	SectionIndex(ctx context.Context, docID string) ([]SectionRecord, error)
}

type SectionLocator struct {
	sections SectionIndexReader
	log      zerolog.Logger
}

func NewSectionLocator(sections SectionIndexReader, log zerolog.Logger) *SectionLocator {
	return &SectionLocator{sections: sections, log: log}
}

// Locate returns the section in primary followed by the same section in every
// other document of primary's act, in act order. The primary document must
// define the section; other documents yield Found=false entries when they do not.
func (l *SectionLocator) Locate(ctx context.Context, number string, primary DocumentMetadata, acts *ActCatalog) ([]DocumentSection, error) {
	first, err := l.find(ctx, number, primary)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("%w: no section index for document %s", ErrSectionNotFound, primary.ID)
		}
		return nil, err
	}
	if !first.Found {
		return nil, fmt.Errorf("%w: section %s in document %s", ErrSectionNotFound, number, primary.ID)
	}
	out := []DocumentSection{first}

	actID, ok := ActIDFor(primary)
	if !ok {
		l.log.Debug().Str("document_id", primary.ID).Msg("primary document has no act identity")
		return out, nil
	}
	act, ok := acts.Get(actID)
	if !ok {
		l.log.Warn().Str("act_id", actID).Msg("act missing from catalog")
		return out, nil
	}
	for _, doc := range act.Documents {
		if doc.ID == primary.ID {
			continue
		}
		sec, err := l.find(ctx, number, doc)
		if err != nil {
			if !errors.Is(err, blob.ErrNotFound) {
				return nil, err
			}
			l.log.Warn().Str("document_id", doc.ID).Msg("section index missing")
			sec = DocumentSection{Number: number, Metadata: doc}
		}
		out = append(out, sec)
	}
	return out, nil
}

func (l *SectionLocator) find(ctx context.Context, number string, doc DocumentMetadata) (DocumentSection, error) {
	records, err := l.sections.SectionIndex(ctx, doc.ID)
	if err != nil {
		return DocumentSection{}, fmt.Errorf("read sections of %s: %w", doc.ID, err)
	}
	for _, r := range records {
		if r.Number == number {
			return DocumentSection{
				SectionID:   r.FullName,
				SectionName: r.Name,
				StartPage:   r.StartPage,
				Number:      number,
				Found:       true,
				Metadata:    doc,
			}, nil
		}
	}
	return DocumentSection{Number: number, Metadata: doc}, nil
}
