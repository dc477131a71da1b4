// Package theme holds the closed color palette and the per-business-type
// presentation presets offered by the website builder.
package theme

import (
	"regexp"
	"sort"
	"strings"
)

// Default is used whenever a requested scheme is not in the palette.
const Default = "modern"

type Scheme struct {
	Name       string `json:"name"`
	Primary    string `json:"primary"`
	Secondary  string `json:"secondary"`
	Background string `json:"background"`
}

var palette = map[string]Scheme{
	"warm":       {Name: "warm", Primary: "#FF6B35", Secondary: "#F7931E", Background: "#FFF8F0"},
	"fresh":      {Name: "fresh", Primary: "#4CAF50", Secondary: "#8BC34A", Background: "#F1F8E9"},
	"elegant":    {Name: "elegant", Primary: "#6A0DAD", Secondary: "#9932CC", Background: "#FAF0FF"},
	"modern":     {Name: "modern", Primary: "#2196F3", Secondary: "#03DAC6", Background: "#F0F8FF"},
	"classic":    {Name: "classic", Primary: "#212121", Secondary: "#757575", Background: "#FAFAFA"},
	"bold":       {Name: "bold", Primary: "#E91E63", Secondary: "#FF5722", Background: "#FFF5F5"},
	"corporate":  {Name: "corporate", Primary: "#1565C0", Secondary: "#42A5F5", Background: "#E3F2FD"},
	"minimal":    {Name: "minimal", Primary: "#37474F", Secondary: "#78909C", Background: "#FAFAFA"},
	"trust":      {Name: "trust", Primary: "#2E7D32", Secondary: "#66BB6A", Background: "#E8F5E8"},
	"soft":       {Name: "soft", Primary: "#F8BBD9", Secondary: "#F48FB1", Background: "#FCE4EC"},
	"luxurious":  {Name: "luxurious", Primary: "#4A148C", Secondary: "#7B1FA2", Background: "#F3E5F5"},
	"tech":       {Name: "tech", Primary: "#0D47A1", Secondary: "#1976D2", Background: "#E1F5FE"},
	"futuristic": {Name: "futuristic", Primary: "#00BCD4", Secondary: "#00E676", Background: "#E0F8FF"},
	"neutral":    {Name: "neutral", Primary: "#5E4037", Secondary: "#8D6E63", Background: "#EFEBE9"},
	"business":   {Name: "business", Primary: "#1A237E", Secondary: "#3F51B5", Background: "#E8EAF6"},
	"friendly":   {Name: "friendly", Primary: "#FF9800", Secondary: "#FFC107", Background: "#FFF8E1"},
}

var nameShape = regexp.MustCompile(`^[a-z_]{1,32}$`)

// WellFormed reports whether name could be a scheme name at all. Well-formed
// but unknown names resolve to Default; malformed names are rejected upstream.
func WellFormed(name string) bool {
	return nameShape.MatchString(strings.ToLower(strings.TrimSpace(name)))
}

// Resolve returns the named scheme or the Default scheme.
func Resolve(name string) Scheme {
	if s, ok := palette[strings.ToLower(strings.TrimSpace(name))]; ok {
		return s
	}
	return palette[Default]
}

// Palette lists every scheme ordered by name.
func Palette() []Scheme {
	out := make([]Scheme, 0, len(palette))
	for _, s := range palette {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
