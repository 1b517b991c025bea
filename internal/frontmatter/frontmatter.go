// Package frontmatter reads and writes the `---` delimited metadata block at
// the head of Jekyll posts and pages.
//
// Only the subset of YAML the admin console produces is understood: scalar
// values, inline `[a, b]` sequences and block `- item` sequences. Values are
// held as string, bool or []string.
package frontmatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Delimiter opens and closes the metadata block.
const Delimiter = "---"

// Frontmatter is an insertion-ordered mapping of field name to value.
// The zero value is ready to use.
type Frontmatter struct {
	keys   []string
	values map[string]any
}

// New returns an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: map[string]any{}}
}

// Set stores v under key. New keys are appended to the iteration order;
// existing keys keep their position.
func (f *Frontmatter) Set(key string, v any) {
	if f.values == nil {
		f.values = map[string]any{}
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = v
}

func (f *Frontmatter) Get(key string) (any, bool) {
	if f == nil || f.values == nil {
		return nil, false
	}
	v, ok := f.values[key]
	return v, ok
}

// String returns the value of key rendered as text, or "" when absent.
func (f *Frontmatter) String(key string) string {
	v, ok := f.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, isStr := v.(string); isStr {
		return s
	}
	return fmt.Sprint(v)
}

// Bool returns true only for a boolean true value.
func (f *Frontmatter) Bool(key string) bool {
	v, _ := f.Get(key)
	b, _ := v.(bool)
	return b
}

// Strings returns the value of key as a sequence. A scalar string becomes a
// one-element slice.
func (f *Frontmatter) Strings(key string) []string {
	v, _ := f.Get(key)
	switch t := v.(type) {
	case []string:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return nil
}

func (f *Frontmatter) Delete(key string) {
	if f == nil || f.values == nil {
		return
	}
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Keys returns field names in insertion order.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
func (f *Frontmatter) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(f.values[k])
		if err != nil {
			return nil, fmt.Errorf("frontmatter field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
// Numbers become strings, arrays become []string and nulls are dropped.
func (f *Frontmatter) UnmarshalJSON(data []byte) error {
	*f = Frontmatter{values: map[string]any{}}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("frontmatter: expected JSON object")
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("frontmatter field %q: %w", key, err)
		}
		switch v := raw.(type) {
		case nil:
			continue
		case string, bool:
			f.Set(key, v)
		case json.Number:
			f.Set(key, v.String())
		case []any:
			items := make([]string, 0, len(v))
			for _, it := range v {
				items = append(items, fmt.Sprint(it))
			}
			f.Set(key, items)
		default:
			b, _ := json.Marshal(v)
			f.Set(key, string(b))
		}
	}
	_, err = dec.Token()
	return err
}

// Document is a content file split into metadata and body.
type Document struct {
	Frontmatter *Frontmatter `json:"frontmatter"`
	Body        string       `json:"body"`
}

// Render serializes the document back to file content.
func (d Document) Render() string {
	return Build(d.Frontmatter) + d.Body
}

var (
	documentRe = regexp.MustCompile(`^---\r?\n(?:([\s\S]*?)\r?\n)?---(?:\r?\n([\s\S]*))?$`)
	fieldRe    = regexp.MustCompile(`^([A-Za-z_][\w-]*):\s*(.*)$`)
)

// pending accumulates the values of a field until the next field starts.
type pending struct {
	key    string
	values []string
	list   bool
}

func (p *pending) commit(fm *Frontmatter) {
	switch {
	case p.list || len(p.values) > 1:
		fm.Set(p.key, p.values)
	case len(p.values) == 1:
		fm.Set(p.key, scalar(p.values[0]))
	default:
		fm.Set(p.key, "")
	}
}

// Parse splits content into frontmatter and body. Content without a
// well-formed block is returned whole as the body with empty frontmatter;
// Parse never fails.
func Parse(content string) Document {
	m := documentRe.FindStringSubmatch(content)
	if m == nil {
		return Document{Frontmatter: New(), Body: content}
	}
	return Document{Frontmatter: parseBlock(m[1]), Body: m[2]}
}

func parseBlock(block string) *Frontmatter {
	fm := New()
	var cur *pending
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := fieldRe.FindStringSubmatch(line); m != nil {
			if cur != nil {
				cur.commit(fm)
				cur = nil
			}
			key, value := m[1], strings.TrimSpace(m[2])
			if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
				fm.Set(key, inlineSequence(value[1:len(value)-1]))
				continue
			}
			cur = &pending{key: key}
			if value != "" {
				cur.values = append(cur.values, unquote(value))
			}
			continue
		}
		if strings.HasPrefix(trimmed, "-") && cur != nil {
			cur.values = append(cur.values, unquote(strings.TrimSpace(trimmed[1:])))
			cur.list = true
		}
	}
	if cur != nil {
		cur.commit(fm)
	}
	return fm
}

func inlineSequence(inner string) []string {
	items := []string{}
	if strings.TrimSpace(inner) == "" {
		return items
	}
	for _, part := range strings.Split(inner, ",") {
		items = append(items, unquote(strings.TrimSpace(part)))
	}
	return items
}

func scalar(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Build serializes fm into a delimited block terminated by a newline.
// Nil values are skipped; sequence items are written verbatim.
func Build(fm *Frontmatter) string {
	var b strings.Builder
	b.WriteString(Delimiter + "\n")
	for _, k := range fm.Keys() {
		v := fm.values[k]
		switch t := v.(type) {
		case nil:
			continue
		case bool:
			b.WriteString(k + ": " + strconv.FormatBool(t) + "\n")
		case []string:
			writeSequence(&b, k, t)
		case []any:
			items := make([]string, 0, len(t))
			for _, it := range t {
				items = append(items, fmt.Sprint(it))
			}
			writeSequence(&b, k, items)
		default:
			b.WriteString(k + ": " + fmt.Sprint(t) + "\n")
		}
	}
	b.WriteString(Delimiter + "\n")
	return b.String()
}

func writeSequence(b *strings.Builder, key string, items []string) {
	if len(items) == 0 {
		b.WriteString(key + ": []\n")
		return
	}
	b.WriteString(key + ":\n")
	for _, it := range items {
		b.WriteString("  - " + it + "\n")
	}
}
