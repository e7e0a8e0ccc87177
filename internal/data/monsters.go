package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MonsterTemplate holds display data for one monster type name as it
// appears on the wire.
type MonsterTemplate struct {
	Type        string  `yaml:"type"`
	DisplayName string  `yaml:"display_name"`
	Scale       float64 `yaml:"scale"`
	Boss        bool    `yaml:"boss"`
}

type monsterListFile struct {
	Monsters []MonsterTemplate `yaml:"monsters"`
}

// MonsterCatalog holds all monster templates indexed by wire type name.
type MonsterCatalog struct {
	templates map[string]*MonsterTemplate
}

// LoadMonsterCatalog loads monster templates from a YAML file.
func LoadMonsterCatalog(path string) (*MonsterCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monster catalog: %w", err)
	}
	var f monsterListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse monster catalog: %w", err)
	}
	c := &MonsterCatalog{templates: make(map[string]*MonsterTemplate, len(f.Monsters))}
	for i := range f.Monsters {
		m := &f.Monsters[i]
		c.templates[m.Type] = m
	}
	return c, nil
}

// Get returns the template for a wire type name, falling back to a default
// using the wire name directly for types the table predates.
func (c *MonsterCatalog) Get(monsterType string) *MonsterTemplate {
	if tpl, ok := c.templates[monsterType]; ok {
		return tpl
	}
	return &MonsterTemplate{Type: monsterType, DisplayName: monsterType, Scale: 1}
}

// Count returns the number of loaded templates.
func (c *MonsterCatalog) Count() int {
	return len(c.templates)
}
