package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jengzang/quake-explorer-go/internal/models"
	"github.com/jengzang/quake-explorer-go/internal/query"
)

//go:embed pages.yml
var defaultPages []byte

// ErrInvalidPages is returned when page definitions fail validation
var ErrInvalidPages = errors.New("invalid page definitions")

type pagesFile struct {
	Pages []models.PageDefinition `yaml:"pages"`
}

// LoadPages reads page definitions from path, or the built-in pages when path is empty
func LoadPages(path string) ([]models.PageDefinition, error) {
	if path == "" {
		return ParsePages(defaultPages)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages file: %w", err)
	}
	return ParsePages(data)
}

// ParsePages decodes and validates page definitions, filling defaults.
// Every problem is reported in one error.
func ParsePages(data []byte) ([]models.PageDefinition, error) {
	var file pagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pages: %w", err)
	}
	if len(file.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages defined", ErrInvalidPages)
	}

	var problems []string
	seen := make(map[string]bool, len(file.Pages))
	for i := range file.Pages {
		p := &file.Pages[i]
		applyPageDefaults(p)

		where := fmt.Sprintf("page[%d]", i)
		if p.Name != "" {
			where = fmt.Sprintf("page %q", p.Name)
		}

		if p.Name == "" {
			problems = append(problems, where+": name is required")
		} else if seen[p.Name] {
			problems = append(problems, where+": duplicate name")
		}
		seen[p.Name] = true

		if p.DataSource == "" {
			problems = append(problems, where+": dataSource is required")
		}
		if _, err := query.ParseMode(p.QueryMode); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
		}
		if !models.ValidPageSize(p.PageSize) {
			problems = append(problems, fmt.Sprintf("%s: unsupported pageSize %d", where, p.PageSize))
		}
		if err := models.ValidateFilterConfigs(p.Filters); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", where, err))
		}
		for j, c := range p.Columns {
			if c.Field == "" {
				problems = append(problems, fmt.Sprintf("%s: column[%d] field is required", where, j))
			}
		}
		if b := p.Map.Bounds; b != nil && (b.LonMin >= b.LonMax || b.LatMin >= b.LatMax) {
			problems = append(problems, where+": map bounds are empty")
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPages, strings.Join(problems, "; "))
	}
	return file.Pages, nil
}

func applyPageDefaults(p *models.PageDefinition) {
	if p.IDField == "" {
		p.IDField = "id"
	}
	if p.IDParam == "" {
		p.IDParam = p.IDField
	}
	if p.PageSize == 0 {
		p.PageSize = 25
	}
	if p.Title == "" {
		p.Title = p.Name
	}
}

// FindPage looks up a page definition by name
func FindPage(pages []models.PageDefinition, name string) (models.PageDefinition, bool) {
	for _, p := range pages {
		if p.Name == name {
			return p, true
		}
	}
	return models.PageDefinition{}, false
}
