package store

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

const (
	maxNodeName = 100
	maxFileName = 255
)

// Slugify lowercases name and reduces it to the charset the platform
// displays for channels: a-z, 0-9, '-' and '_'. Runs of whitespace and
// dashes collapse into one dash.
func Slugify(name string) (string, error) {
	var b strings.Builder
	dash := false

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			dash = false
		case r == '-' || unicode.IsSpace(r):
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}

	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxNodeName {
		slug = strings.TrimRight(slug[:maxNodeName], "-")
	}
	if slug == "" {
		return "", fmt.Errorf("%w: name %q has no usable characters", common.ErrValidation, name)
	}
	return slug, nil
}

func validateFileName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("%w: empty collection name", common.ErrValidation)
	case utf8.RuneCountInString(name) > maxFileName:
		return fmt.Errorf("%w: collection name longer than %d characters", common.ErrValidation, maxFileName)
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("%w: collection name %q contains a path separator", common.ErrValidation, name)
	}
	return nil
}

func validateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: empty %s id", common.ErrValidation, kind)
	}
	return nil
}
