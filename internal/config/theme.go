package config

// Theme defines the colors of the terminal renderings
type Theme struct {
	// Preset name ("default" or "monochrome")
	Preset string `yaml:"preset"`

	// Primary accent color (used for borders and headers)
	Accent string `yaml:"accent"`

	// Text colors
	Title  string `yaml:"title"`
	Subtle string `yaml:"subtle"` // Muted text: ids, dates, empty columns
	Normal string `yaml:"normal"`

	// Notification colors
	Success string `yaml:"success"`
	Warning string `yaml:"warning"`
	Error   string `yaml:"error"`

	// Monochrome renders every status in Normal instead of its own color.
	Monochrome bool `yaml:"monochrome"`
}

// DefaultTheme returns the default theme (purple accent)
func DefaultTheme() Theme {
	return Theme{
		Preset:  "default",
		Accent:  "#874BFD",
		Title:   "#D75FD7",
		Subtle:  "#585858",
		Normal:  "#D0D0D0",
		Success: "#5FD75F",
		Warning: "#FFD700",
		Error:   "#FF0000",
	}
}

// MonochromeTheme returns a black and white theme
func MonochromeTheme() Theme {
	return Theme{
		Preset:     "monochrome",
		Accent:     "#FFFFFF",
		Title:      "#FFFFFF",
		Subtle:     "#585858",
		Normal:     "#D0D0D0",
		Success:    "#FFFFFF",
		Warning:    "#FFFFFF",
		Error:      "#FFFFFF",
		Monochrome: true,
	}
}

// ThemePreset returns a preset theme by name
func ThemePreset(name string) Theme {
	if name == "monochrome" {
		return MonochromeTheme()
	}
	return DefaultTheme()
}

// ApplyDefaults fills in missing color values using the preset as base
func (t *Theme) ApplyDefaults() {
	preset := ThemePreset(t.Preset)
	if t.Preset == "" {
		t.Preset = preset.Preset
	}
	if !t.Monochrome {
		t.Monochrome = preset.Monochrome
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&t.Accent, preset.Accent)
	fill(&t.Title, preset.Title)
	fill(&t.Subtle, preset.Subtle)
	fill(&t.Normal, preset.Normal)
	fill(&t.Success, preset.Success)
	fill(&t.Warning, preset.Warning)
	fill(&t.Error, preset.Error)
}
