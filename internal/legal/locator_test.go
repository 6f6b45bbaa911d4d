package legal

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func locatorFixture() (*fakeDocuments, *ActCatalog) {
	act := legalDoc("mv-act", "Motor Vehicles Act", "center", "59", "1988")
	amend := legalDoc("mv-amend", "Motor Vehicles (Amendment) Act", "center", "59", "1988")
	rules := legalDoc("mv-rules", "Central Motor Vehicles Rules", "center", "59", "1988")
	docs := &fakeDocuments{
		docs: []DocumentMetadata{act, amend, rules},
		sections: map[string][]SectionRecord{
			"mv-act":   {{Number: "4", FullName: "4. Age limit", Name: "Age limit", StartPage: 2}, {Number: "5", FullName: "5. Responsibility of owners", Name: "Responsibility of owners", StartPage: 3}},
			"mv-amend": {{Number: "5", FullName: "5. Substitution of section 5", Name: "Substitution", StartPage: 1}},
		},
	}
	acts, _ := BuildActCatalog(docs.docs)
	return docs, acts
}

func TestLocateAcrossActDocuments(t *testing.T) {
	docs, acts := locatorFixture()
	l := NewSectionLocator(docs, zerolog.Nop())

	got, err := l.Locate(context.Background(), "5", docs.docs[0], acts)
	require.NoError(t, err)
	require.Len(t, got, 3)

	require.Equal(t, "mv-act", got[0].Metadata.ID)
	require.True(t, got[0].Found)
	require.Equal(t, "5. Responsibility of owners", got[0].SectionID)
	require.Equal(t, 3, got[0].StartPage)

	require.Equal(t, "mv-amend", got[1].Metadata.ID)
	require.True(t, got[1].Found)

	// Rules have no section index at all.
	require.Equal(t, "mv-rules", got[2].Metadata.ID)
	require.False(t, got[2].Found)
}

func TestLocateFromAmendmentPutsItFirst(t *testing.T) {
	docs, acts := locatorFixture()
	l := NewSectionLocator(docs, zerolog.Nop())

	got, err := l.Locate(context.Background(), "5", docs.docs[1], acts)
	require.NoError(t, err)
	require.Equal(t, []string{"mv-amend", "mv-act", "mv-rules"}, []string{got[0].Metadata.ID, got[1].Metadata.ID, got[2].Metadata.ID})
}

func TestLocateSectionAbsentInSibling(t *testing.T) {
	docs, acts := locatorFixture()
	l := NewSectionLocator(docs, zerolog.Nop())

	got, err := l.Locate(context.Background(), "4", docs.docs[0], acts)
	require.NoError(t, err)
	require.True(t, got[0].Found)
	require.False(t, got[1].Found)
	require.Equal(t, "4", got[1].Number)
}

func TestLocateMissingInPrimaryFails(t *testing.T) {
	docs, acts := locatorFixture()
	l := NewSectionLocator(docs, zerolog.Nop())

	_, err := l.Locate(context.Background(), "99", docs.docs[0], acts)
	require.ErrorIs(t, err, ErrSectionNotFound)
	require.ErrorIs(t, err, ErrInternal)

	_, err = l.Locate(context.Background(), "5", docs.docs[2], acts)
	require.ErrorIs(t, err, ErrSectionNotFound)
}

func TestLocateDocumentWithoutAct(t *testing.T) {
	doc := DocumentMetadata{ID: "circular", Title: "Circular"}
	docs := &fakeDocuments{sections: map[string][]SectionRecord{"circular": {{Number: "2", FullName: "2. Scope", Name: "Scope", StartPage: 1}}}}
	got, err := NewSectionLocator(docs, zerolog.Nop()).Locate(context.Background(), "2", doc, &ActCatalog{})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLocateFindsSiblingWithDifferentJurisdictionCase(t *testing.T) {
	act := legalDoc("stamp-act", "Karnataka Stamp Act", "karnataka", "34", "1957")
	amend := legalDoc("stamp-amend", "Karnataka Stamp (Amendment) Act", "Karnataka", "34", "1957")
	docs := &fakeDocuments{
		docs: []DocumentMetadata{act, amend},
		sections: map[string][]SectionRecord{
			"stamp-act":   {{Number: "3", FullName: "3. Instruments chargeable with duty", StartPage: 4}},
			"stamp-amend": {{Number: "3", FullName: "3. Amendment of section 3", StartPage: 1}},
		},
	}
	acts, err := BuildActCatalog(docs.docs)
	require.NoError(t, err)

	got, err := NewSectionLocator(docs, zerolog.Nop()).Locate(context.Background(), "3", amend, acts)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "stamp-amend", got[0].Metadata.ID)
	require.Equal(t, "stamp-act", got[1].Metadata.ID)
	require.True(t, got[1].Found)
}
