package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseMovieIDs(t *testing.T) {
	ids, err := parseMovieIDs([]string{"27205", "155,603", " 694 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{27205, 155, 603, 694}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}

	for _, bad := range []string{"abc", "0", "-5"} {
		if _, err := parseMovieIDs([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTaxonomyCommandListsWeights(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"taxonomy"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	body := out.String()
	for _, want := range []string{"violence_goreBlood", "Gore & Blood", "sexualContent_romance", "-0.5"} {
		if !strings.Contains(body, want) {
			t.Errorf("output missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "\x1b[") {
		t.Error("non-terminal output should not contain escape codes")
	}
}

func TestRenderStatusLine(t *testing.T) {
	if got := renderStatusLine("TMDB", true, "", false); !strings.Contains(got, "[OK]") {
		t.Fatalf("unexpected line %q", got)
	}
	if got := renderStatusLine("OMDb", false, "key missing", true); !strings.HasPrefix(got, ansiYellow) || !strings.Contains(got, "[MISSING] key missing") {
		t.Fatalf("unexpected line %q", got)
	}
}
