// Package catalog provides the read-only schema catalog consumed by the
// enhancement pipeline: known tables, their columns, and synonym resolution.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pipewise/sqlforge/pkg/apperrors"
)

// SchemaCatalog is an immutable-after-load map of known tables to known
// columns, with alias resolution. It is safe for concurrent reads without
// locking; nothing mutates it after Build.
type SchemaCatalog struct {
	tables   map[string]struct{}            // canonical, upper-cased
	columns  map[string]map[string]struct{} // table -> column set
	synonyms map[string]string              // alias -> canonical
}

// Builder accumulates tables, columns, and synonyms before sealing them
// into a SchemaCatalog.
type Builder struct {
	catalog *SchemaCatalog
	err     error
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{catalog: &SchemaCatalog{
		tables:   make(map[string]struct{}),
		columns:  make(map[string]map[string]struct{}),
		synonyms: make(map[string]string),
	}}
}

// AddTable registers a table and its columns. Names are case-folded to
// upper case, matching the analytical schemas the pipeline targets. A table
// whose name is already registered as a synonym alias is rejected; the
// shadowing rule holds in either insertion order.
func (b *Builder) AddTable(table string, columns ...string) *Builder {
	if b.err != nil {
		return b
	}
	t := strings.ToUpper(strings.TrimSpace(table))
	if t == "" {
		b.err = fmt.Errorf("add table: empty table name")
		return b
	}
	if canonical, exists := b.catalog.synonyms[t]; exists {
		b.err = fmt.Errorf("add table %q: name is a synonym for %q: %w", table, canonical, apperrors.ErrSynonymShadows)
		return b
	}
	b.catalog.tables[t] = struct{}{}
	cols, ok := b.catalog.columns[t]
	if !ok {
		cols = make(map[string]struct{})
		b.catalog.columns[t] = cols
	}
	for _, c := range columns {
		cols[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}
	return b
}

// AddSynonym registers an alias for a canonical table name. A synonym may
// never shadow a canonical name, and the canonical side must already exist.
func (b *Builder) AddSynonym(alias, canonical string) *Builder {
	if b.err != nil {
		return b
	}
	a := strings.ToUpper(strings.TrimSpace(alias))
	c := strings.ToUpper(strings.TrimSpace(canonical))
	if _, exists := b.catalog.tables[a]; exists {
		b.err = fmt.Errorf("add synonym %q: %w", alias, apperrors.ErrSynonymShadows)
		return b
	}
	if _, exists := b.catalog.tables[c]; !exists {
		b.err = fmt.Errorf("add synonym %q: canonical table %q: %w", alias, canonical, apperrors.ErrNotFound)
		return b
	}
	b.catalog.synonyms[a] = c
	return b
}

// Build seals the builder and returns the immutable catalog.
func (b *Builder) Build() (*SchemaCatalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.catalog, nil
}

// HasTable reports whether name resolves to a known table, directly or via
// a synonym. Matching is case-insensitive.
func (c *SchemaCatalog) HasTable(name string) bool {
	_, ok := c.ResolveTable(name)
	return ok
}

// ResolveTable resolves name to its canonical table name, following
// synonyms. Returns false if the name is unknown.
func (c *SchemaCatalog) ResolveTable(name string) (string, bool) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if _, ok := c.tables[n]; ok {
		return n, true
	}
	if canonical, ok := c.synonyms[n]; ok {
		return canonical, true
	}
	return "", false
}

// ResolveSynonym returns the canonical name for an alias, or false if the
// name is not a registered synonym.
func (c *SchemaCatalog) ResolveSynonym(name string) (string, bool) {
	canonical, ok := c.synonyms[strings.ToUpper(strings.TrimSpace(name))]
	return canonical, ok
}

// ColumnsOf returns the sorted column names of a table (resolved through
// synonyms). Returns nil for unknown tables.
func (c *SchemaCatalog) ColumnsOf(table string) []string {
	canonical, ok := c.ResolveTable(table)
	if !ok {
		return nil
	}
	cols := make([]string, 0, len(c.columns[canonical]))
	for col := range c.columns[canonical] {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// HasColumn reports whether the table (resolved through synonyms) has the
// named column. Matching is case-insensitive.
func (c *SchemaCatalog) HasColumn(table, column string) bool {
	canonical, ok := c.ResolveTable(table)
	if !ok {
		return false
	}
	_, ok = c.columns[canonical][strings.ToUpper(strings.TrimSpace(column))]
	return ok
}

// Tables returns the sorted canonical table names.
func (c *SchemaCatalog) Tables() []string {
	names := make([]string, 0, len(c.tables))
	for t := range c.tables {
		names = append(names, t)
	}
	sort.Strings(names)
	return names
}

// Summary renders the catalog as schema context text for generation
// prompts: one line per table with its column list.
func (c *SchemaCatalog) Summary() string {
	var b strings.Builder
	for _, t := range c.Tables() {
		fmt.Fprintf(&b, "%s (%s)\n", t, strings.Join(c.ColumnsOf(t), ", "))
	}
	return b.String()
}
