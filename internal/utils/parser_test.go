package utils

import (
	"strings"
	"testing"
)

func TestParseWatchlistTextPlain(t *testing.T) {
	entries := ParseWatchlistText("The Matrix (1999)\nUnfindable Movie XYZ123\n\nX\n")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Title != "The Matrix" || entries[0].Year != "1999" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Title != "Unfindable Movie XYZ123" || entries[1].Year != "" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestParseWatchlistTextCSV(t *testing.T) {
	csv := strings.Join([]string{
		"Const,Created,Title,Year",
		`tt0133093,2024-01-01,"The Matrix",1999`,
		`tt1375666,2024-01-02,"Inception, Extended",2010`,
	}, "\r\n")

	entries := ParseWatchlistText(csv)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Title != "The Matrix" || entries[0].Year != "1999" || entries[0].IMDbID != "tt0133093" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Title != "Inception, Extended" || entries[1].IMDbID != "tt1375666" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestParseWatchlistTextHeaderlessCSV(t *testing.T) {
	entries := ParseWatchlistText(`"Alien (1979)","tt0078748"`)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Title != "Alien" || got.Year != "1979" || got.IMDbID != "tt0078748" {
		t.Fatalf("unexpected entry %+v", got)
	}
}

func TestParseImportHTML(t *testing.T) {
	html := `<html><body><ul>
<li><a href="https://www.imdb.com/title/tt0133093/">The Matrix</a> (1999)</li>
<li><a href="/title/tt0081505/?ref=x">The Shining</a> (1980)</li>
<li><a href="/title/tt0081505/">The Shining</a> (1980)</li>
</ul></body></html>`

	entries, err := ParseImport(html)
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[1].Title != "The Shining" || entries[1].Year != "1980" || entries[1].IMDbID != "tt0081505" {
		t.Fatalf("unexpected entry %+v", entries[1])
	}
}

func TestParseImportHTMLTable(t *testing.T) {
	html := `<table>
<tr><th>Title</th><th>Year</th></tr>
<tr><td>Hereditary</td><td>2018</td></tr>
</table>`
	entries, err := ParseImport(html)
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Hereditary" || entries[0].Year != "2018" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestOMDbCacheKey(t *testing.T) {
	cases := []struct {
		title, year, want string
	}{
		{"The Matrix", "1999", "thematrix_1999"},
		{"Alien: Covenant", "", "aliencovenant_unknown"},
		{"WALL·E", "2008", "walle_2008"},
	}
	for _, tc := range cases {
		if got := OMDbCacheKey(tc.title, tc.year); got != tc.want {
			t.Fatalf("OMDbCacheKey(%q, %q) = %q, want %q", tc.title, tc.year, got, tc.want)
		}
	}
}

func TestTitlesSimilar(t *testing.T) {
	if !TitlesSimilar("The Dark Knight Rises", "The Dark Knight") {
		t.Fatal("expected shared words to match")
	}
	if TitlesSimilar("Up", "It") {
		t.Fatal("short words must not match")
	}
}
