// Package navigation builds the navigation state of a page from the menu items an actor may see.
package navigation

import (
	"strings"

	"github.com/tenantdesk/tenantdesk/internal/rbac"
)

// HomePath is the first breadcrumb of every page.
const HomePath = "/dashboard"

// BreadcrumbItem represents a single breadcrumb link.
type BreadcrumbItem struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Active bool   `json:"active"`
}

// Entry is one rendered navigation link.
type Entry struct {
	Code   string `json:"code"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Icon   string `json:"icon,omitempty"`
	Active bool   `json:"active"`
}

// Context represents the navigation context for a page.
type Context struct {
	ActivePath  string           `json:"activePath"`
	PageTitle   string           `json:"pageTitle"`
	Entries     []Entry          `json:"entries"`
	Breadcrumbs []BreadcrumbItem `json:"breadcrumbs"`
}

// NewContext creates a new navigation context.
func NewContext(pageTitle, activePath string) *Context {
	return &Context{
		PageTitle:   pageTitle,
		ActivePath:  activePath,
		Entries:     make([]Entry, 0),
		Breadcrumbs: make([]BreadcrumbItem, 0),
	}
}

// Build creates the context for activePath from visible menu items, keeping their order.
// The entry owning activePath is marked active and closes the breadcrumb trail.
func Build(items []rbac.MenuItem, activePath string) *Context {
	ctx := NewContext("", activePath)

	current := -1

	for _, item := range items {
		active := current < 0 && ctx.IsActive(item.Path)
		if active {
			current = len(ctx.Entries)
		}

		ctx.Entries = append(ctx.Entries, Entry{
			Code:   item.Code,
			Title:  item.Name,
			URL:    item.Path,
			Icon:   item.Icon,
			Active: active,
		})
	}

	if current < 0 {
		return ctx
	}

	entry := ctx.Entries[current]
	ctx.PageTitle = entry.Title

	if entry.URL != HomePath {
		ctx.AddBreadcrumb("Home", HomePath, false)
	}

	ctx.AddBreadcrumb(entry.Title, entry.URL, true)

	return ctx
}

// AddBreadcrumb adds a breadcrumb item to the context.
func (c *Context) AddBreadcrumb(title, url string, active bool) *Context {
	c.Breadcrumbs = append(c.Breadcrumbs, BreadcrumbItem{
		Title:  title,
		URL:    url,
		Active: active,
	})

	return c
}

// IsActive reports whether url is the active path or one of its parents.
func (c *Context) IsActive(url string) bool {
	if url == "" {
		return false
	}

	return c.ActivePath == url || strings.HasPrefix(c.ActivePath, strings.TrimSuffix(url, "/")+"/")
}
