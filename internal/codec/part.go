package codec

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

const partPrefix = "chunk_"

// Part is one physical attachment of a Collection.
// Total is zero for Parts read from legacy names that did not record it.
type Part struct {
	Index int
	Total int
	Name  string
	Data  []byte
}

// PartName builds the attachment filename of chunk index out of total.
func PartName(index, total int, name string) string {
	return fmt.Sprintf("%s%d_%d_%s", partPrefix, index, total, name)
}

// ParsePartName reverses PartName. Legacy names of the form
// chunk_{index}_{name} are accepted with total reported as 0.
func ParsePartName(filename string) (index, total int, name string, ok bool) {
	index, tail, ok := ParseLegacyPartName(filename)
	if !ok {
		return 0, 0, "", false
	}

	if t, n, found := strings.Cut(tail, "_"); found && n != "" {
		if total, err := strconv.Atoi(t); err == nil && total >= index {
			return index, total, n, true
		}
	}

	return index, 0, tail, true
}

// ParseLegacyPartName reads filename as chunk_{index}_{name} only. Names
// whose remainder starts with digits and an underscore are ambiguous under
// ParsePartName; callers that know the entry predates the total use this.
func ParseLegacyPartName(filename string) (index int, name string, ok bool) {
	rest, found := strings.CutPrefix(filename, partPrefix)
	if !found {
		return 0, "", false
	}

	head, tail, found := strings.Cut(rest, "_")
	if !found || tail == "" {
		return 0, "", false
	}
	index, err := strconv.Atoi(head)
	if err != nil || index < 1 {
		return 0, "", false
	}
	return index, tail, true
}

// PartFromAttachment rebuilds a Part from a stored attachment. Files that do
// not carry a chunk name are whole single-Part payloads.
func PartFromAttachment(filename string, data []byte) Part {
	index, total, name, ok := ParsePartName(filename)
	if !ok {
		return Part{Index: 1, Total: 1, Name: filename, Data: data}
	}
	return Part{Index: index, Total: total, Name: name, Data: data}
}

// Encode splits content into Parts of at most limit bytes.
func Encode(name string, content []byte, limit int) ([]Part, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty file name", common.ErrValidation)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: part size limit must be positive, got %d", common.ErrValidation, limit)
	}

	size := len(content)
	if size <= limit {
		return []Part{{Index: 1, Total: 1, Name: name, Data: content}}, nil
	}

	total := (size + limit - 1) / limit
	parts := make([]Part, 0, total)
	for i := 0; i < total; i++ {
		start := i * limit
		end := min(start+limit, size)
		parts = append(parts, Part{
			Index: i + 1,
			Total: total,
			Name:  PartName(i+1, total, name),
			Data:  content[start:end],
		})
	}

	return parts, nil
}

// Decode concatenates parts in ascending index order. Every index in
// [1, total] must be present exactly once. Parts may arrive in any order.
func Decode(parts []Part) ([]byte, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: no parts", common.ErrDecodeCorrupt)
	}

	total := parts[0].Total
	if total == 0 {
		total = len(parts)
	}
	if total != len(parts) {
		return nil, fmt.Errorf("%w: have %d of %d parts", common.ErrDecodeCorrupt, len(parts), total)
	}

	sorted := slices.Clone(parts)
	slices.SortFunc(sorted, func(a, b Part) int { return a.Index - b.Index })

	size := 0
	for i, p := range sorted {
		if p.Index != i+1 {
			return nil, fmt.Errorf("%w: missing part %d of %d", common.ErrDecodeCorrupt, i+1, total)
		}
		if p.Total != 0 && p.Total != total {
			return nil, fmt.Errorf("%w: part %d claims %d parts, expected %d", common.ErrDecodeCorrupt, p.Index, p.Total, total)
		}
		size += len(p.Data)
	}

	var buf bytes.Buffer
	buf.Grow(size)
	for _, p := range sorted {
		buf.Write(p.Data)
	}

	return buf.Bytes(), nil
}
