// Package report renders an aggregated dataset into presentation
// artifacts: a summary CSV, an HTML report and embedded charts. The
// core guarantees every value it hands over is fully resolved, so
// nothing in here re-interprets raw records.
package report

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Display carries the presentation mappings injected into rendering:
// client display priority (lower sorts first) and chart colors. New
// client names need a config entry, not a code change.
type Display struct {
	// Priorities maps a lowercase client name to its sort priority.
	Priorities map[string]int `yaml:"priorities"`
	// Colors maps a lowercase client name to a "#RRGGBB" chart color.
	Colors map[string]string `yaml:"colors"`
}

// DefaultDisplay returns the built-in mappings: the valkey clients sort
// first and the three known clients keep their traditional colors.
func DefaultDisplay() *Display {
	return &Display{
		Priorities: map[string]int{
			"valkey-glide": 0,
			"iovalkey":     1,
			"ioredis":      2,
		},
		Colors: map[string]string{
			"valkey-glide": "#4285F4",
			"iovalkey":     "#0F9D58",
			"ioredis":      "#DB4437",
		},
	}
}

// LoadDisplay reads a Display from a YAML file, filling unset sections
// from the defaults.
func LoadDisplay(path string) (*Display, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading display config %q: %w", path, err)
	}
	d := &Display{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parsing display config %q: %w", path, err)
	}
	defaults := DefaultDisplay()
	if d.Priorities == nil {
		d.Priorities = defaults.Priorities
	}
	if d.Colors == nil {
		d.Colors = defaults.Colors
	}
	return d, nil
}

// Priority returns the sort priority for a client. Configured names
// match by substring so "valkey-glide-v2" inherits "valkey-glide"'s
// slot; unknown valkey flavors beat everything else unknown.
func (d *Display) Priority(client string) int {
	lower := strings.ToLower(client)
	if p, ok := d.Priorities[lower]; ok {
		return p
	}
	best := -1
	for name, p := range d.Priorities {
		if strings.Contains(lower, name) && (best == -1 || p < best) {
			best = p
		}
	}
	if best >= 0 {
		return best
	}
	if strings.Contains(lower, "valkey") {
		return 1
	}
	return 100
}

// fallbackPalette colors clients without an explicit mapping, assigned
// deterministically by fallback index.
var fallbackPalette = []color.NRGBA{
	{R: 0x8A, G: 0x4E, B: 0xFF, A: 0xD9}, // purple
	{R: 0xF4, G: 0xB4, B: 0x00, A: 0xD9}, // yellow
	{R: 0x00, G: 0xAC, B: 0xC1, A: 0xD9}, // cyan
}

// Color returns a client's chart color. Configured names match by
// substring; unmatched clients cycle through the fallback palette.
func (d *Display) Color(client string, fallbackIdx int) color.Color {
	lower := strings.ToLower(client)
	for name, hex := range d.Colors {
		if strings.Contains(lower, name) {
			if c, err := parseHexColor(hex); err == nil {
				return c
			}
		}
	}
	return fallbackPalette[fallbackIdx%len(fallbackPalette)]
}

func parseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.NRGBA{}, fmt.Errorf("color %q: want #RRGGBB", s)
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.NRGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	return color.NRGBA{R: r, G: g, B: b, A: 0xD9}, nil
}
