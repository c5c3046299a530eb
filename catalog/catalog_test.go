package catalog

import (
	"testing"
)

func TestNew_DefaultsWhenEmpty(t *testing.T) {
	c := New(nil)
	if len(c.Themes()) == 0 {
		t.Fatal("Expected built-in themes for an empty catalog")
	}
	if !c.Contains("animals") {
		t.Error("Expected the default catalog to contain animals")
	}
}

func TestNew_ConfiguredThemes(t *testing.T) {
	c := New([]string{"space", "ocean"})

	themes := c.Themes()
	if len(themes) != 2 || themes[0] != "space" || themes[1] != "ocean" {
		t.Errorf("Unexpected themes: %v", themes)
	}
	if c.Contains("animals") {
		t.Error("A configured catalog must not fall back to defaults")
	}
	if !c.Contains("ocean") {
		t.Error("Expected configured theme to be present")
	}
}
