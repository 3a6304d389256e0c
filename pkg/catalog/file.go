package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the YAML shape of a static catalog file.
type fileSchema struct {
	Tables []struct {
		Name    string   `yaml:"name"`
		Columns []string `yaml:"columns"`
	} `yaml:"tables"`
	Synonyms map[string]string `yaml:"synonyms"`
}

// LoadFile builds a catalog from a YAML schema file. This is the loader
// used when no live database is available.
func LoadFile(path string) (*SchemaCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML builds a catalog from YAML bytes.
func ParseYAML(data []byte) (*SchemaCatalog, error) {
	var fs fileSchema
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	b := NewBuilder()
	for _, t := range fs.Tables {
		b.AddTable(t.Name, t.Columns...)
	}
	for alias, canonical := range fs.Synonyms {
		b.AddSynonym(alias, canonical)
	}
	return b.Build()
}
