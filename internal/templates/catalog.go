package templates

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Catalog is a read-only source of templates.
type Catalog interface {
	List() []domain.Template
	Get(id string) (domain.Template, error)
}

// MemoryCatalog keeps templates in memory. List and Get hand out copies.
type MemoryCatalog struct {
	mu    sync.RWMutex
	byID  map[string]domain.Template
	order []string
}

func NewMemoryCatalog(ts ...domain.Template) *MemoryCatalog {
	c := &MemoryCatalog{}
	c.replace(ts)
	return c
}

func (c *MemoryCatalog) List() []domain.Template {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id].Clone())
	}
	return out
}

func (c *MemoryCatalog) Get(id string) (domain.Template, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byID[id]
	if !ok {
		return domain.Template{}, fmt.Errorf("template %q: %w", id, domain.ErrNotFound)
	}
	return t.Clone(), nil
}

func (c *MemoryCatalog) replace(ts []domain.Template) {
	byID := make(map[string]domain.Template, len(ts))
	var order []string
	for _, t := range ts {
		if _, dup := byID[t.ID]; !dup {
			order = append(order, t.ID)
		}
		byID[t.ID] = t.Clone()
	}
	c.mu.Lock()
	c.byID, c.order = byID, order
	c.mu.Unlock()
}

// Builtin returns the catalog of templates shipped with the binary.
func Builtin(reg *registry.Registry) (*MemoryCatalog, error) {
	ts, err := loadFS(builtinFS, "builtin", reg)
	if err != nil {
		return nil, err
	}
	return NewMemoryCatalog(ts...), nil
}

func loadFS(fsys fs.FS, dir string, reg *registry.Registry) ([]domain.Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	var out []domain.Template
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", e.Name(), err)
		}
		t, err := Parse(data, reg)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", e.Name(), err)
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func isTemplateFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Parse decodes one YAML template and checks it against the registry.
// Skeletons without a category take it from the registry; skeleton props are
// layered over the type's defaults.
func Parse(data []byte, reg *registry.Registry) (domain.Template, error) {
	var t domain.Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return domain.Template{}, fmt.Errorf("decode yaml: %w", err)
	}
	if strings.TrimSpace(t.ID) == "" {
		return domain.Template{}, fmt.Errorf("id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return domain.Template{}, fmt.Errorf("name is required")
	}
	if len(t.Blocks) == 0 {
		return domain.Template{}, fmt.Errorf("template %s has no blocks", t.ID)
	}
	for i, s := range t.Blocks {
		d, err := reg.Describe(s.Type)
		if err != nil {
			return domain.Template{}, fmt.Errorf("block %d: %w", i, err)
		}
		if s.Category == "" {
			s.Category = d.Category
		}
		props := d.Defaults
		for k, v := range s.Props {
			props[k] = v
		}
		if s.Props, err = domain.NormalizeProps(props); err != nil {
			return domain.Template{}, fmt.Errorf("block %d props: %w", i, err)
		}
		t.Blocks[i] = s
	}
	return t, nil
}
