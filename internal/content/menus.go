package content

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/blogdesk/blogdesk/internal/apperr"
	"github.com/blogdesk/blogdesk/internal/github"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

const (
	// DefaultMenusTTL is used when NewMenus is given no TTL.
	DefaultMenusTTL = 5 * time.Minute
	// MenusPath is the Jekyll data file holding site navigation.
	MenusPath = "_data/menus.yml"
	// MenusCacheKey is the blob key caching the parsed menus.
	MenusCacheKey = "menus.json"
)

// MenuItem is one navigation link.
type MenuItem struct {
	Title    string     `yaml:"title" json:"title"`
	URL      string     `yaml:"url" json:"url"`
	External bool       `yaml:"external,omitempty" json:"external,omitempty"`
	Children []MenuItem `yaml:"children,omitempty" json:"children,omitempty"`
}

// MenuSet maps a menu name (e.g. "main", "footer") to its items.
type MenuSet map[string][]MenuItem

// CachedMenus is the value stored under MenusCacheKey.
type CachedMenus struct {
	Menus    MenuSet   `json:"menus"`
	SHA      string    `json:"sha"`
	CachedAt time.Time `json:"cachedAt"`
}

// Cache is the blob store subset menus use.
type Cache interface {
	GetJSON(ctx context.Context, key string, v any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
}

// Menus reads `_data/menus.yml` through a blob cache. A cached copy is
// served for ttl; commits made outside the admin API show up once it
// expires, or at once with refresh.
type Menus struct {
	gw    github.Gateway
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewMenus(gw github.Gateway, cache Cache, ttl time.Duration) *Menus {
	if ttl <= 0 {
		ttl = DefaultMenusTTL
	}
	return &Menus{gw: gw, cache: cache, ttl: ttl, now: time.Now}
}

// Get returns the menus, from the cache while it is younger than the TTL
// unless refresh is set. A missing data file yields no menus.
func (m *Menus) Get(ctx context.Context, refresh bool) (*CachedMenus, error) {
	if !refresh {
		var cached CachedMenus
		found, err := m.cache.GetJSON(ctx, MenusCacheKey, &cached)
		switch {
		case err != nil:
			logger.Warnf("menus cache read: %v", err)
		case found && m.now().Sub(cached.CachedAt) < m.ttl:
			return &cached, nil
		}
	}

	out := &CachedMenus{Menus: MenuSet{}, CachedAt: m.now().UTC()}
	f, err := m.gw.ReadFile(ctx, MenusPath, "")
	switch {
	case apperr.IsNotFound(err):
	case err != nil:
		return nil, err
	default:
		text, err := f.Decoded()
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal([]byte(text), &out.Menus); err != nil {
			return nil, fmt.Errorf("parse %s: %w", MenusPath, err)
		}
		if out.Menus == nil {
			out.Menus = MenuSet{}
		}
		out.SHA = f.SHA
	}
	m.store(ctx, out)
	return out, nil
}

// Update writes the menus back to the repository and refreshes the cache.
// sha is the version last read; empty creates the file.
func (m *Menus) Update(ctx context.Context, menus MenuSet, sha string) (*SaveResult, error) {
	if menus == nil {
		return nil, apperr.Invalid("menus")
	}
	for name, items := range menus {
		for i, it := range items {
			if it.Title == "" || it.URL == "" {
				return nil, &apperr.ValidationError{Fields: []string{"menus"}, Message: fmt.Sprintf("menu %s item %d needs title and url", name, i)}
			}
		}
	}
	b, err := yaml.Marshal(menus)
	if err != nil {
		return nil, fmt.Errorf("encode menus: %w", err)
	}
	res, err := m.gw.WriteFile(ctx, github.WriteRequest{Path: MenusPath, Content: string(b), SHA: sha, Message: "Update menus"})
	if err != nil {
		return nil, err
	}
	if err := res.Err(MenusPath); err != nil {
		return nil, err
	}
	m.store(ctx, &CachedMenus{Menus: menus, SHA: res.ContentSHA, CachedAt: m.now().UTC()})
	return &SaveResult{Filename: "menus.yml", Path: MenusPath, SHA: res.ContentSHA, CommitSHA: res.CommitSHA}, nil
}

// store writes the cache; failures are logged only.
func (m *Menus) store(ctx context.Context, c *CachedMenus) {
	if err := m.cache.SetJSON(ctx, MenusCacheKey, c); err != nil {
		logger.Warnf("menus cache write: %v", err)
	}
}
