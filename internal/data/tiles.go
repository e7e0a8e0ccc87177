package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TileTemplate holds display data for one tile-type code loaded from YAML.
type TileTemplate struct {
	Code     int    `yaml:"code"`
	Name     string `yaml:"name"`
	Walkable bool   `yaml:"walkable"`
}

type tileListFile struct {
	Tiles []TileTemplate `yaml:"tiles"`
}

// TileTable holds all tile templates indexed by wire code.
type TileTable struct {
	templates map[byte]*TileTemplate
}

// LoadTileTable loads tile templates from a YAML file.
func LoadTileTable(path string) (*TileTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tile table: %w", err)
	}
	var f tileListFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tile table: %w", err)
	}
	t := &TileTable{templates: make(map[byte]*TileTemplate, len(f.Tiles))}
	for i := range f.Tiles {
		tile := &f.Tiles[i]
		if tile.Code < 0 || tile.Code > 255 {
			return nil, fmt.Errorf("tile %q: code %d out of range", tile.Name, tile.Code)
		}
		t.templates[byte(tile.Code)] = tile
	}
	return t, nil
}

// Get returns the template for a wire tile code. Unknown codes fall back to
// a generic non-walkable template so a newer server never crashes display.
func (t *TileTable) Get(code byte) *TileTemplate {
	if tpl, ok := t.templates[code]; ok {
		return tpl
	}
	return &TileTemplate{Code: int(code), Name: fmt.Sprintf("tile_%d", code)}
}

// Count returns the number of loaded templates.
func (t *TileTable) Count() int {
	return len(t.templates)
}
