package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

// MaxMetadataLength is the longest entry text the remote platform accepts.
const MaxMetadataLength = 2000

// Metadata describes a stored entry. Collection heads carry the full record
// with Ready set to true; staged Parts carry Draft and Ready=false. Keys this
// struct does not know are kept in Extra and written back unchanged.
type Metadata struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	IsPublic    bool      `json:"isPublic"`
	LastUpdate  time.Time `json:"lastUpdate"`
	ContentType string    `json:"contentType,omitempty"`
	Chunks      int       `json:"chunks,omitempty"`
	Parts       []string  `json:"parts,omitempty"`
	Draft       string    `json:"draft,omitempty"`
	Ready       *bool     `json:"ready,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Committed reports whether the entry is visible as a Collection. Entries
// written before the ready marker existed have no Ready key and count as
// committed.
func (m Metadata) Committed() bool {
	return m.Ready == nil || *m.Ready
}

type metadataFields Metadata

func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataFields(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(m.Extra)+9)
	for k, v := range m.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range []string{"name", "size", "isPublic", "lastUpdate", "contentType", "chunks", "parts", "draft", "ready"} {
		delete(all, k)
	}
	if len(all) > 0 {
		fields.Extra = all
	}

	*m = Metadata(fields)
	return nil
}

// EncodeMetadata renders m as a fenced JSON block. Records that would not fit
// in one entry are reported as validation errors.
func EncodeMetadata(m Metadata) (string, error) {
	body, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	text := "```json\n" + string(body) + "\n```"
	if len(text) <= MaxMetadataLength {
		return text, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, body); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	text = "```json\n" + compact.String() + "\n```"
	if len(text) > MaxMetadataLength {
		return "", fmt.Errorf("%w: metadata for %q is %d bytes, limit %d", common.ErrValidation, m.Name, len(text), MaxMetadataLength)
	}
	return text, nil
}

// MetadataKind tells which variant a MetadataValue holds.
type MetadataKind int

const (
	MetadataEmpty MetadataKind = iota
	MetadataParsed
	MetadataRaw
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataParsed:
		return "parsed"
	case MetadataRaw:
		return "raw"
	default:
		return "empty"
	}
}

// MetadataValue is either Parsed(Metadata), Raw(text) or Empty.
type MetadataValue struct {
	kind   MetadataKind
	parsed Metadata
	raw    string
}

func Parsed(m Metadata) MetadataValue { return MetadataValue{kind: MetadataParsed, parsed: m} }

func Raw(s string) MetadataValue { return MetadataValue{kind: MetadataRaw, raw: s} }

func (v MetadataValue) Kind() MetadataKind { return v.kind }

// Parsed returns the decoded record and true for the Parsed variant.
func (v MetadataValue) Parsed() (Metadata, bool) {
	return v.parsed, v.kind == MetadataParsed
}

// Raw returns the original text for the Raw variant and "" otherwise.
func (v MetadataValue) Raw() string {
	return v.raw
}

// DecodeMetadata parses entry text produced by EncodeMetadata. A surrounding
// ```json fence is optional.
func DecodeMetadata(content string) MetadataValue {
	text := strings.TrimSpace(content)
	if text == "" {
		return MetadataValue{}
	}

	body := text
	if rest, ok := strings.CutPrefix(body, "```"); ok {
		if _, after, found := strings.Cut(rest, "\n"); found {
			rest = after
		}
		body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}

	if !strings.HasPrefix(body, "{") {
		return Raw(content)
	}

	var m Metadata
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		return Raw(content)
	}
	return Parsed(m)
}
