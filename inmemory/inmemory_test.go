package inmemory

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/postsearch"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 0, 0, 0, time.UTC)
}

func newTestSearcher(t *testing.T) *Searcher {
	t.Helper()

	searcher := New()
	posts := []postsearch.Post{
		{ID: "1", Title: "Cats and their owners", Content: "A long read about cats.", PostType: "post", Status: postsearch.StatusPublished, Date: day(1)},
		{ID: "2", Title: "Dog training", Content: "Dogs are not cats, but they like cats.", PostType: "post", Status: postsearch.StatusPublished, Date: day(2)},
		{ID: "3", Title: "Draft about cats", Content: "unfinished", PostType: "post", Status: "draft", Date: day(3)},
		{ID: "4", Title: "Cat shelter", Content: "Visit the cat shelter page.", PostType: "page", Status: postsearch.StatusPublished, Date: day(4)},
		{ID: "5", Title: "Weekly notes", Content: "Nothing about felines.", PostType: "post", Status: postsearch.StatusPublished, Date: day(5)},
		{ID: "6", Title: "More cats", Content: "cats cats cats", PostType: "post", Status: postsearch.StatusPublished, Date: day(6)},
	}
	for _, p := range posts {
		searcher.AddPost(p)
	}
	return searcher
}

func ids(results *postsearch.Results) []string {
	out := make([]string, 0, len(results.Items))
	for _, item := range results.Items {
		out = append(out, item.Post.ID)
	}
	return out
}

func TestInMemorySearcher(t *testing.T) {
	searcher := newTestSearcher(t)
	ctx := context.Background()

	t.Run("BasicSearch", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if results.Total != 4 {
			t.Errorf("Expected 4 results, got %d (%v)", results.Total, ids(results))
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		results, err := searcher.Search(ctx, "CATS")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if results.Total != 4 {
			t.Errorf("Expected 4 results, got %d", results.Total)
		}
	})

	t.Run("AllTermsRequired", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cat shelter")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if got := ids(results); len(got) != 1 || got[0] != "4" {
			t.Errorf("Expected [4], got %v", got)
		}
	})

	t.Run("PublishedPostsOnly", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats",
			postsearch.OfType("post"),
			postsearch.WithStatus(postsearch.StatusPublished),
		)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		for _, item := range results.Items {
			if item.Post.Status != postsearch.StatusPublished || item.Post.PostType != "post" {
				t.Errorf("Unexpected post %s (%s/%s)", item.Post.ID, item.Post.PostType, item.Post.Status)
			}
		}
		if results.Total != 3 {
			t.Errorf("Expected 3 results, got %d", results.Total)
		}
	})

	t.Run("TitleMatchesRankFirst", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats", postsearch.WithStatus(postsearch.StatusPublished))
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		got := ids(results)
		// 6 and 1 have title hits and body hits; 6 is newer.
		if len(got) < 2 || got[0] != "6" || got[1] != "1" {
			t.Errorf("Expected [6 1 ...], got %v", got)
		}
	})

	t.Run("LimitCapsItemsNotTotal", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats", postsearch.WithLimit(2))
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if len(results.Items) != 2 {
			t.Errorf("Expected 2 items, got %d", len(results.Items))
		}
		if results.Total != 4 {
			t.Errorf("Expected total 4, got %d", results.Total)
		}
		if results.NextOffset == nil || *results.NextOffset != 2 {
			t.Error("Expected NextOffset to be 2")
		}
	})

	t.Run("OffsetPastEnd", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats", postsearch.WithOffset(50))
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if len(results.Items) != 0 || results.Total != 4 {
			t.Errorf("Expected no items and total 4, got %d items, total %d", len(results.Items), results.Total)
		}
		if results.NextOffset != nil {
			t.Error("Expected no NextOffset")
		}
	})

	t.Run("SortByDateAscending", func(t *testing.T) {
		results, err := searcher.Search(ctx, "cats", postsearch.WithSort(postsearch.FieldDate, false))
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		got := ids(results)
		want := []string{"1", "2", "3", "6"}
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("Expected %v, got %v", want, got)
		}
	})

	t.Run("NoMatches", func(t *testing.T) {
		results, err := searcher.Search(ctx, "zebra")
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}

		if results.Total != 0 || len(results.Items) != 0 {
			t.Errorf("Expected no results, got %d", results.Total)
		}
	})

	t.Run("NegativeLimit", func(t *testing.T) {
		_, err := searcher.Search(ctx, "cats", postsearch.WithLimit(-1))
		if !errors.Is(err, postsearch.ErrInvalidOption) {
			t.Errorf("Expected ErrInvalidOption, got %v", err)
		}
	})

	t.Run("CanceledContext", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := searcher.Search(canceled, "cats")
		if !errors.Is(err, postsearch.ErrCanceled) {
			t.Errorf("Expected ErrCanceled, got %v", err)
		}
	})
}

func TestAddPostReplaces(t *testing.T) {
	searcher := New()
	searcher.AddPost(postsearch.Post{ID: "a", Title: "first"})
	searcher.AddPost(postsearch.Post{ID: "a", Title: "second"})

	if searcher.Size() != 1 {
		t.Fatalf("Expected 1 post, got %d", searcher.Size())
	}

	results, err := searcher.Search(context.Background(), "second")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results.Total != 1 {
		t.Errorf("Expected replaced post to be searchable, got %d results", results.Total)
	}
}

func TestLoadJSON(t *testing.T) {
	searcher := New()
	input := `[
		{"id": "a1", "title": "Cats", "content": "x", "post_type": "post", "status": "published", "date": "2024-03-01T09:00:00Z"},
		{"id": "a2", "title": "Dogs", "content": "y", "post_type": "post", "status": "published", "date": "2024-03-02T09:00:00Z"}
	]`

	n, err := searcher.LoadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadJSON failed: %v", err)
	}
	if n != 2 || searcher.Size() != 2 {
		t.Errorf("Expected 2 posts, got n=%d size=%d", n, searcher.Size())
	}

	if _, err := searcher.LoadJSON(strings.NewReader(`[{"title": "no id"}]`)); err == nil {
		t.Error("Expected error for post without id")
	}
	if _, err := searcher.LoadJSON(strings.NewReader(`{`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
