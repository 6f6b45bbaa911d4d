package legal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDocumentMetadataJSON(t *testing.T) {
	raw := `{"id":"doc-1","title":"Karnataka Stamp Act","original_file_name":"stamp.pdf","original_format":"pdf",
		"extra_data":{"legal_act_no":"34","legal_act_year":1957,"legal_act_jurisdiction":"karnataka","legal_doc_type":"act","gazette":"KA-1957"}}`
	var doc DocumentMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	require.Equal(t, "34", doc.Legal.ActNo)
	require.Equal(t, "1957", doc.Legal.ActYear)
	require.Equal(t, DocTypeAct, doc.Legal.DocType)
	require.Equal(t, []string{"gazette"}, doc.ExtraKeys())

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	var back map[string]any
	require.NoError(t, json.Unmarshal(out, &back))
	extra := back["extra_data"].(map[string]any)
	require.Equal(t, "karnataka", extra["legal_act_jurisdiction"])
	require.Equal(t, "KA-1957", extra["gazette"])
}

func TestParseJurisdiction(t *testing.T) {
	j, err := ParseJurisdiction(" Karnataka ")
	require.NoError(t, err)
	require.Equal(t, JurisdictionKarnataka, j)

	_, err = ParseJurisdiction("kerala")
	require.Error(t, err)
}

func TestDecodeSectionIndex(t *testing.T) {
	recs, err := DecodeSectionIndex([]byte(`[{"Section number":"5","Full section name":"5. Registration","Section name":"Registration","Start page":3}]`))
	require.NoError(t, err)
	require.Equal(t, []SectionRecord{{Number: "5", FullName: "5. Registration", Name: "Registration", StartPage: 3}}, recs)

	_, err = DecodeSectionIndex([]byte("not json"))
	require.Error(t, err)
}
