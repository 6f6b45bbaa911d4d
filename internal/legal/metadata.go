package legal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Jurisdiction string

const (
	JurisdictionCenter    Jurisdiction = "center"
	JurisdictionKarnataka Jurisdiction = "karnataka"
)

func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch j := Jurisdiction(strings.ToLower(strings.TrimSpace(s))); j {
	case JurisdictionCenter, JurisdictionKarnataka:
		return j, nil
	default:
		return "", fmt.Errorf("unknown jurisdiction %q", s)
	}
}

type DocumentType string

const (
	DocTypeAct        DocumentType = "act"
	DocTypeAmendment  DocumentType = "amendment"
	DocTypeRules      DocumentType = "rules"
	DocTypeRegulation DocumentType = "regulation"
	DocTypeOther      DocumentType = "other"
)

// Extension keys carried in a document's extra_data map.
const (
	KeyDocType           = "legal_doc_type"
	KeyActNo             = "legal_act_no"
	KeyActYear           = "legal_act_year"
	KeyActJurisdiction   = "legal_act_jurisdiction"
	KeyActTitle          = "legal_act_title"
	KeyMinistry          = "legal_ministry"
	KeyLastAmendmentDate = "legal_last_amendment_date"
	KeyPassDate          = "legal_pass_date"
	KeyEffectiveDate     = "legal_effective_date"
)

// LegalFields holds the known legal extension keys. Empty means absent.
type LegalFields struct {
	DocType           DocumentType
	ActNo             string
	ActYear           string
	Jurisdiction      string
	ActTitle          string
	Ministry          string
	LastAmendmentDate string
	PassDate          string
	EffectiveDate     string
}

func (f *LegalFields) fields() []struct {
	key string
	val *string
} {
	docType := (*string)(&f.DocType)
	return []struct {
		key string
		val *string
	}{
		{KeyDocType, docType},
		{KeyActNo, &f.ActNo},
		{KeyActYear, &f.ActYear},
		{KeyActJurisdiction, &f.Jurisdiction},
		{KeyActTitle, &f.ActTitle},
		{KeyMinistry, &f.Ministry},
		{KeyLastAmendmentDate, &f.LastAmendmentDate},
		{KeyPassDate, &f.PassDate},
		{KeyEffectiveDate, &f.EffectiveDate},
	}
}

// DocumentMetadata identifies one physical document in a collection.
type DocumentMetadata struct {
	ID               string
	Title            string
	OriginalFileName string
	OriginalFormat   string
	SourceURL        string
	Legal            LegalFields
	// Extra keeps extension keys that are not legal fields.
	Extra map[string]any
}

type documentMetadataJSON struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	OriginalFileName string         `json:"original_file_name"`
	OriginalFormat   string         `json:"original_format"`
	SourceURL        string         `json:"source_url,omitempty"`
	ExtraData        map[string]any `json:"extra_data,omitempty"`
}

func (d DocumentMetadata) MarshalJSON() ([]byte, error) {
	extra := make(map[string]any, len(d.Extra)+4)
	for k, v := range d.Extra {
		extra[k] = v
	}
	for _, f := range d.Legal.fields() {
		if *f.val != "" {
			extra[f.key] = *f.val
		}
	}
	if len(extra) == 0 {
		extra = nil
	}
	return json.Marshal(documentMetadataJSON{
		ID:               d.ID,
		Title:            d.Title,
		OriginalFileName: d.OriginalFileName,
		OriginalFormat:   d.OriginalFormat,
		SourceURL:        d.SourceURL,
		ExtraData:        extra,
	})
}

func (d *DocumentMetadata) UnmarshalJSON(data []byte) error {
	var raw documentMetadataJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DocumentMetadata{
		ID:               raw.ID,
		Title:            raw.Title,
		OriginalFileName: raw.OriginalFileName,
		OriginalFormat:   raw.OriginalFormat,
		SourceURL:        raw.SourceURL,
	}
	known := map[string]bool{}
	for _, f := range d.Legal.fields() {
		known[f.key] = true
		if v, ok := raw.ExtraData[f.key]; ok {
			*f.val = scalarString(v)
		}
	}
	for k, v := range raw.ExtraData {
		if known[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = map[string]any{}
		}
		d.Extra[k] = v
	}
	return nil
}

// ExtraKeys lists the unknown extension keys in sorted order.
func (d DocumentMetadata) ExtraKeys() []string {
	keys := make([]string, 0, len(d.Extra))
	for k := range d.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// ActMetadata aggregates every document sharing one
// (jurisdiction, act number, act year) triple.
type ActMetadata struct {
	ID          string `json:"id"`
	No          string `json:"no"`
	Year        string `json:"year"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	// Dates stay nil unless the seeding document carries them as YYYY-MM-DD.
	PassingDate       *time.Time         `json:"passing_date,omitempty"`
	EffectiveFromDate *time.Time         `json:"effective_from_date,omitempty"`
	Jurisdiction      Jurisdiction       `json:"jurisdiction"`
	Documents         []DocumentMetadata `json:"documents"`
}

// DatesKnown reports whether both act dates were present in the metadata.
func (a ActMetadata) DatesKnown() bool {
	return a.PassingDate != nil && a.EffectiveFromDate != nil
}

// DocumentSection is one occurrence of a section in a document. Found is false
// when the document does not define the requested section.
type DocumentSection struct {
	SectionID   string           `json:"section_id"`
	SectionName string           `json:"section_name"`
	StartPage   int              `json:"start_page"`
	Number      string           `json:"section_number"`
	Found       bool             `json:"found"`
	Metadata    DocumentMetadata `json:"metadata"`
}

// SectionRecord is one entry of a document's sections.json index.
type SectionRecord struct {
	Number    string `json:"Section number"`
	FullName  string `json:"Full section name"`
	Name      string `json:"Section name"`
	StartPage int    `json:"Start page"`
}

// DecodeSectionIndex parses the raw bytes of a sections.json artifact.
func DecodeSectionIndex(data []byte) ([]SectionRecord, error) {
	var records []SectionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode section index: %w", err)
	}
	return records, nil
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil
	}
	return &t
}
