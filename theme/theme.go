// Package theme loads watch-face themes from plist files so color and label
// choices live outside the binary.
package theme

import (
	"fmt"
	"io"
	"os"
	"strings"

	"howett.net/plist"
)

// Theme describes the visual parameters of the watch face. Color fields are
// tcell color names ("yellow", "darkslategray", "#rrggbb").
type Theme struct {
	Name         string `plist:"Name"`
	Label        string `plist:"Label"`
	TimeColor    string `plist:"TimeColor"`
	AmbientColor string `plist:"AmbientColor"`
	DetailColor  string `plist:"DetailColor"`
	// ClockLayout formats the absolute instant line under the elapsed time.
	ClockLayout string `plist:"ClockLayout"`
}

// Default returns the built-in theme used when no theme file is configured.
func Default() Theme {
	return Theme{
		Name:         "default",
		Label:        "watchface",
		TimeColor:    "yellow",
		AmbientColor: "gray",
		DetailColor:  "white",
		ClockLayout:  "2006-01-02 15:04:05 MST",
	}
}

// Load reads a theme plist from path. Fields missing from the file keep
// their defaults, so a theme can override just the colors.
func Load(path string) (Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), fmt.Errorf("open theme plist: %w", err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes a theme from an io.ReadSeeker (exposed for testing).
func LoadFromReader(r io.ReadSeeker) (Theme, error) {
	th := Default()
	decoder := plist.NewDecoder(r)
	if err := decoder.Decode(&th); err != nil {
		return Default(), fmt.Errorf("decode theme plist: %w", err)
	}
	th.normalize()
	return th, nil
}

func (t *Theme) normalize() {
	d := Default()
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		t.Name = d.Name
	}
	if strings.TrimSpace(t.Label) == "" {
		t.Label = d.Label
	}
	if strings.TrimSpace(t.TimeColor) == "" {
		t.TimeColor = d.TimeColor
	}
	if strings.TrimSpace(t.AmbientColor) == "" {
		t.AmbientColor = d.AmbientColor
	}
	if strings.TrimSpace(t.DetailColor) == "" {
		t.DetailColor = d.DetailColor
	}
	if strings.TrimSpace(t.ClockLayout) == "" {
		t.ClockLayout = d.ClockLayout
	}
}
