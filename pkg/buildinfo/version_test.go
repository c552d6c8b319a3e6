package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	defer func() { Version = old }()

	if got := Get().Version; got != "v1.2.3" {
		t.Errorf("Get().Version = %q, want %q", got, "v1.2.3")
	}
	if !strings.Contains(Template(), "v1.2.3") {
		t.Errorf("Template() = %q, should contain version", Template())
	}
}
