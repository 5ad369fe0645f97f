// Package settings exposes the running configuration to super administrators.
package settings

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the base path for the settings handler.
	Path = handler.APIPath + "/admin/settings"

	// MenuCode is the menu item gating the settings.
	MenuCode = "SETTINGS"

	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25

	maxPageSize = 100
)

// Service is the settings handler service.
type Service struct {
	cfg *config.Config
}

// Data is one page of settings.
type Data struct {
	Settings    []Setting `json:"settings"`
	CurrentPage int       `json:"currentPage"`
	PageSize    int       `json:"pageSize"`
	TotalItems  int       `json:"totalItems"`
	TotalPages  int       `json:"totalPages"`
	HasPrevPage bool      `json:"hasPrevPage"`
	HasNextPage bool      `json:"hasNextPage"`
	SearchQuery string    `json:"searchQuery,omitempty"`
	FilterType  string    `json:"filterType,omitempty"`
}

// Setting is one flattened configuration value.
type Setting struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

var (
	// Handler is the settings handler.
	Handler = Service{}
)

// Init registers the settings route.
func (s *Service) Init(app *fiber.App, deps handler.Deps) error {
	if app == nil || !deps.Valid() {
		return handler.ErrMissingDeps
	}

	s.cfg = deps.Cfg

	router := handler.Group(app, Path, deps)
	router.Get(handler.RootPath,
		auth.RequireApplicationAccess(),
		auth.RequireMenuAccess(deps.Auth, MenuCode),
		s.Get,
	)

	return nil
}

// Get returns one page of the redacted configuration. It accepts page, pageSize,
// search (name or value, case insensitive) and type query parameters.
func (s *Service) Get(c fiber.Ctx) error {
	page, pageSize := getPaginationParams(c)
	searchQuery, filterType := c.Query("search"), c.Query("type")

	all := Flatten(s.cfg.Redacted())

	settings := make([]Setting, 0, len(all))
	for _, setting := range all {
		if includeSetting(setting, searchQuery, filterType) {
			settings = append(settings, setting)
		}
	}

	totalItems := len(settings)
	totalPages, page := computeTotalPagesAndAdjust(totalItems, pageSize, page)
	startIdx, endIdx := pageSliceBounds(totalItems, pageSize, page)

	log.Debug().
		Uint64("actor_id", auth.ActorID(c)).
		Int("total_settings", totalItems).
		Int("page", page).
		Str("search", searchQuery).
		Str("filter_type", filterType).
		Msg("settings retrieved")

	return handler.OK(c, fiber.StatusOK, Data{
		Settings:    settings[startIdx:endIdx],
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasPrevPage: page > 1,
		HasNextPage: page < totalPages,
		SearchQuery: searchQuery,
		FilterType:  filterType,
	})
}

// Flatten lists every leaf of cfg as a dotted name in declaration order.
func Flatten(cfg config.Config) []Setting {
	var out []Setting

	flatten("", reflect.ValueOf(cfg), &out)

	return out
}

func flatten(prefix string, v reflect.Value, out *[]Setting) {
	if d, ok := v.Interface().(time.Duration); ok {
		*out = append(*out, Setting{Name: prefix, Type: "duration", Value: d.String()})
		return
	}

	switch v.Kind() { //nolint:exhaustive
	case reflect.Struct:
		for i := range v.NumField() {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}

			name := field.Name
			if prefix != "" {
				name = prefix + "." + name
			}

			flatten(name, v.Field(i), out)
		}
	case reflect.Slice:
		items := make([]string, 0, v.Len())
		for i := range v.Len() {
			items = append(items, fmt.Sprint(v.Index(i).Interface()))
		}

		*out = append(*out, Setting{Name: prefix, Type: "list", Value: strings.Join(items, ",")})
	case reflect.Bool:
		*out = append(*out, Setting{Name: prefix, Type: "bool", Value: fmt.Sprint(v.Bool())})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		*out = append(*out, Setting{Name: prefix, Type: "int", Value: fmt.Sprint(v.Int())})
	default:
		*out = append(*out, Setting{Name: prefix, Type: "string", Value: fmt.Sprint(v.Interface())})
	}
}

// getPaginationParams parses and normalizes page and pageSize query parameters.
func getPaginationParams(c fiber.Ctx) (int, int) {
	page := fiber.Query[int](c, "page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := fiber.Query[int](c, "pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize
}

// includeSetting returns true if the setting matches search and filter criteria.
func includeSetting(s Setting, searchQuery, filterType string) bool {
	if searchQuery != "" && !contains(s.Name, searchQuery) && !contains(s.Value, searchQuery) {
		return false
	}

	return filterType == "" || s.Type == filterType
}

// computeTotalPagesAndAdjust computes total pages and adjusts the page into range.
func computeTotalPagesAndAdjust(totalItems, pageSize, page int) (int, int) {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	return totalPages, page
}

// pageSliceBounds calculates start and end indices for slicing a page.
func pageSliceBounds(totalItems, pageSize, page int) (int, int) {
	startIdx := (page - 1) * pageSize

	endIdx := min(startIdx+pageSize, totalItems)

	startIdx = max(startIdx, 0)
	startIdx = min(startIdx, endIdx)

	return startIdx, endIdx
}

// contains checks if s contains a non empty substr, ignoring case.
func contains(s, substr string) bool {
	return substr != "" && strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
