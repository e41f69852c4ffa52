package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/user/dreadscale/internal/testsupport"
	"github.com/user/dreadscale/internal/utils"
)

func TestWatchlistAddDuplicateRemove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "wl@example.com", "Wl")

	if _, err := env.watchlist.Add(ctx, "", 603, nil); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}

	outcome, err := env.watchlist.Add(ctx, user.ID, 603, sampleMovie(t, 603))
	if err != nil || outcome != AddOutcomeAdded {
		t.Fatalf("expected added, got %q (%v)", outcome, err)
	}
	outcome, err = env.watchlist.Add(ctx, user.ID, 603, sampleMovie(t, 603))
	if err != nil || outcome != AddOutcomeDuplicate {
		t.Fatalf("expected duplicate, got %q (%v)", outcome, err)
	}
	if _, err := env.watchlist.Add(ctx, user.ID, 155, sampleMovie(t, 155)); err != nil {
		t.Fatalf("add 155: %v", err)
	}
	env.store.Flush()

	if !env.watchlist.IsInWatchlist(user.ID, 603) {
		t.Fatal("expected 603 in watchlist")
	}
	items := env.watchlist.List(user.ID)
	if len(items) != 2 || items[0].ID != 155 || items[1].ID != 603 {
		t.Fatalf("expected newest first [155 603], got %+v", items)
	}
	if items[1].Title != "The Matrix" {
		t.Fatalf("expected joined movie title, got %q", items[1].Title)
	}

	if err := env.watchlist.Remove(ctx, user.ID, 603); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if env.watchlist.IsInWatchlist(user.ID, 603) || env.watchlist.Count(user.ID) != 1 {
		t.Fatalf("expected only 155 left, got %v", env.watchlist.IDs(user.ID))
	}
}

func TestWatchlistCountAndClearCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "count@example.com", "Cora")

	for _, id := range []int{603, 694} {
		if _, err := env.watchlist.Add(ctx, user.ID, id, sampleMovie(t, id)); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	env.store.Flush()

	if n := env.watchlist.Count(user.ID); n != 2 {
		t.Fatalf("expected 2, got %d", n)
	}
	if n := env.watchlist.Count(""); n != 0 {
		t.Fatalf("anonymous count should be 0, got %d", n)
	}

	env.watchlist.List(user.ID)
	if n := env.watchlist.ClearCache(); n != 1 {
		t.Fatalf("expected one cached list cleared, got %d", n)
	}
	if items := env.watchlist.List(user.ID); len(items) != 2 {
		t.Fatalf("list should reload after clear, got %+v", items)
	}
}

func TestWatchlistImport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "import@example.com", "Import")

	entries, err := utils.ParseImport("The Matrix (1999)\nUnfindable Movie XYZ123\n")
	if err != nil {
		t.Fatalf("ParseImport failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Title != "The Matrix" || entries[0].Year != "1999" {
		t.Fatalf("unexpected entries %+v", entries)
	}

	var progressed []string
	result, err := env.watchlist.Import(ctx, user.ID, entries, func(done, total int, title string) {
		progressed = append(progressed, title)
	})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.SuccessCount != 1 || result.DuplicatesSkipped != 0 || result.TotalProcessed != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.FailedMovies) != 1 || result.FailedMovies[0].Title != "Unfindable Movie XYZ123" {
		t.Fatalf("unexpected failures %+v", result.FailedMovies)
	}
	if len(progressed) != 2 {
		t.Fatalf("expected progress for each entry, got %v", progressed)
	}
	if !env.watchlist.IsInWatchlist(user.ID, 603) {
		t.Fatal("expected The Matrix in watchlist")
	}

	again, err := env.watchlist.Import(ctx, user.ID, entries[:1], nil)
	if err != nil || again.DuplicatesSkipped != 1 || again.SuccessCount != 0 {
		t.Fatalf("expected duplicate on re-import, got %+v (%v)", again, err)
	}
}

func TestWatchlistImportCatalogDown(t *testing.T) {
	env := newTestEnv(t)
	user := testsupport.MustCreateUser(t, env.repos, "down@example.com", "Down")
	env.catalog.setDown(true)

	entries, _ := utils.ParseImport("Alien\nThe Shining\n")
	result, err := env.watchlist.Import(context.Background(), user.ID, entries, nil)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.SuccessCount != 0 || len(result.FailedMovies) != 2 {
		t.Fatalf("expected every entry to fail, got %+v", result)
	}
}

func TestWatchlistImportCancelled(t *testing.T) {
	env := newTestEnv(t)
	user := testsupport.MustCreateUser(t, env.repos, "cancel@example.com", "Cancel")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	entries, _ := utils.ParseImport("Alien\n")
	result, err := env.watchlist.Import(ctx, user.ID, entries, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.TotalProcessed != 0 {
		t.Fatalf("expected nothing processed, got %+v", result)
	}
}

func TestWatchlistExport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testsupport.MustCreateUser(t, env.repos, "export@example.com", "Export")

	if _, err := env.watchlist.Add(ctx, user.ID, 603, sampleMovie(t, 603)); err != nil {
		t.Fatalf("add: %v", err)
	}

	var buf bytes.Buffer
	if err := env.watchlist.Export(user.ID, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "Title,Year,Rating,Added Date" {
		t.Fatalf("unexpected csv %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "The Matrix,1999,8.2,") {
		t.Fatalf("unexpected row %q", lines[1])
	}
}
