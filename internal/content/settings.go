package content

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/github"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// ConfigPath is the Jekyll site configuration file.
const ConfigPath = "_config.yml"

// SiteSettings is the decoded `_config.yml`.
type SiteSettings struct {
	Values map[string]any `json:"settings"`
	SHA    string         `json:"sha"`
}

// Settings edits top-level keys of `_config.yml` in place, keeping comments
// and key order.
type Settings struct {
	gw github.Gateway
}

func NewSettings(gw github.Gateway) *Settings {
	return &Settings{gw: gw}
}

func (s *Settings) read(ctx context.Context) (*yaml.Node, string, error) {
	f, err := s.gw.ReadFile(ctx, ConfigPath, "")
	if err != nil {
		return nil, "", err
	}
	text, err := f.Decoded()
	if err != nil {
		return nil, "", err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", ConfigPath, err)
	}
	if len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, "", fmt.Errorf("%s: top level is not a mapping", ConfigPath)
	}
	return &doc, f.SHA, nil
}

// Get returns the settings as plain values.
func (s *Settings) Get(ctx context.Context) (*SiteSettings, error) {
	doc, sha, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	values := map[string]any{}
	if err := doc.Content[0].Decode(&values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ConfigPath, err)
	}
	return &SiteSettings{Values: values, SHA: sha}, nil
}

// Update sets the given top-level keys. Values must be scalars or lists of
// scalars; nested mappings are left to direct edits of the file. An empty
// sha updates whatever version is current.
func (s *Settings) Update(ctx context.Context, values map[string]any, sha string) (*SaveResult, error) {
	if len(values) == 0 {
		return nil, apperr.Invalid("settings")
	}
	doc, current, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if sha == "" {
		sha = current
	}
	root := doc.Content[0]

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var bad []string
	for _, k := range keys {
		n, err := valueNode(values[k])
		if err != nil {
			bad = append(bad, k)
			continue
		}
		setKey(root, k, n)
	}
	if len(bad) > 0 {
		return nil, &apperr.ValidationError{Fields: bad, Message: fmt.Sprintf("unsupported setting values: %v", bad)}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode %s: %w", ConfigPath, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	res, err := s.gw.WriteFile(ctx, github.WriteRequest{Path: ConfigPath, Content: buf.String(), SHA: sha, Message: "Update site settings"})
	if err != nil {
		return nil, err
	}
	if err := res.Err(ConfigPath); err != nil {
		return nil, err
	}
	logger.Infow("settings updated", "keys", keys)
	return &SaveResult{Filename: ConfigPath, Path: ConfigPath, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// setKey replaces the value of key in a mapping node, keeping the existing
// scalar style and comments, or appends the key.
func setKey(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != key {
			continue
		}
		old := m.Content[i+1]
		if old.Kind == yaml.ScalarNode && v.Kind == yaml.ScalarNode && v.Tag == "!!str" {
			v.Style = old.Style
		}
		v.LineComment = old.LineComment
		v.HeadComment = old.HeadComment
		v.FootComment = old.FootComment
		m.Content[i+1] = v
		return
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}

func valueNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}, nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	case float64:
		if t == float64(int64(t)) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(t), 10)}, nil
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}, nil
	case []any:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t {
			n, err := valueNode(it)
			if err != nil || n.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("unsupported list item %T", it)
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case []string:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: it})
		}
		return seq, nil
	}
	return nil, fmt.Errorf("unsupported value %T", v)
}
