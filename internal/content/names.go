package content

import (
	"path"
	"regexp"
	"strings"

	"github.com/blogdesk/blogdesk/internal/apperr"
)

// Repository directories.
const (
	PostsDir = "_posts"
	PagesDir = "_pages"
	TrashDir = "_trash"
)

var postNameRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-(.+)\.(md|markdown|html)$`)

// Slugify lowercases s and joins runs of letters and digits with hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	sep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			sep = false
		default:
			if !sep && b.Len() > 0 {
				b.WriteByte('-')
				sep = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

func isContentFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown", ".html":
		return true
	}
	return false
}

// checkFilename rejects names that would escape the collection directory.
func checkFilename(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") || !isContentFile(name) {
		return &apperr.ValidationError{Fields: []string{"filename"}, Message: "filename must be a plain .md, .markdown or .html file name"}
	}
	return nil
}

// splitPostName returns the date and slug encoded in a post filename.
func splitPostName(name string) (date, slug string, ok bool) {
	m := postNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func slugOf(name string) string {
	if _, slug, ok := splitPostName(name); ok {
		return slug
	}
	return strings.TrimSuffix(name, path.Ext(name))
}
