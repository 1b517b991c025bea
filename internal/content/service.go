package content

import (
	"time"

	"github.com/blogdesk/blogdesk/internal/github"
)

// Service groups the content operations over one repository.
type Service struct {
	Posts       *Collection
	Pages       *Collection
	Trash       *Trash
	Settings    *Settings
	Menus       *Menus
	Deployments *Deployments
}

// NewService wires the content operations. branch scopes deployment
// history; cache backs the menus for menusTTL.
func NewService(gw github.Gateway, cache Cache, branch string, menusTTL time.Duration) *Service {
	trash := NewTrash(gw)
	return &Service{
		Posts:       newCollection(gw, PostsDir, "post", true, trash),
		Pages:       newCollection(gw, PagesDir, "page", false, trash),
		Trash:       trash,
		Settings:    NewSettings(gw),
		Menus:       NewMenus(gw, cache, menusTTL),
		Deployments: NewDeployments(gw, branch),
	}
}
