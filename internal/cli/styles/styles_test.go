package styles

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/thenoetrevino/tablero/internal/config"
	"github.com/thenoetrevino/tablero/internal/models"
)

func TestStatusColor_EveryColorIsMapped(t *testing.T) {
	Init(config.DefaultTheme())
	for _, c := range models.Colors {
		if _, ok := statusColors[c]; !ok {
			t.Errorf("status color %q has no terminal color", c)
		}
	}
}

func TestStatusColor_Monochrome(t *testing.T) {
	t.Cleanup(func() { Init(config.DefaultTheme()) })
	Init(config.MonochromeTheme())

	want := lipgloss.Color(config.MonochromeTheme().Normal)
	for _, c := range models.Colors {
		if got := StatusColor(c); got != want {
			t.Errorf("StatusColor(%q) = %v, want the normal text color", c, got)
		}
	}
}

func TestRenderColumn_KeepsContent(t *testing.T) {
	st := &models.Status{Title: "Doing", Color: models.ColorBlue}
	out := ansi.Strip(RenderColumn(st, RenderStatusHeader(st)+"\nfirst card"))

	if !strings.Contains(out, "Doing") || !strings.Contains(out, "first card") {
		t.Errorf("rendered column lost its content:\n%s", out)
	}
	if !strings.Contains(out, "╭") {
		t.Errorf("expected a rounded border:\n%s", out)
	}
}
