package buildinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)
	Version, Commit, Date = "v1.2.3", "abc123", "2026-01-02"

	got := String()
	for _, want := range []string{"v1.2.3", "abc123", "2026-01-02"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
	if got := ServerHeader(); got != "pedigree/v1.2.3" {
		t.Errorf("ServerHeader() = %q, want %q", got, "pedigree/v1.2.3")
	}
	if got := Template(); !strings.HasPrefix(got, "{{.Name}} version v1.2.3") {
		t.Errorf("Template() = %q", got)
	}
}
