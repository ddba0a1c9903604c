package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vagahunter-engine/internal/domain"
	"vagahunter-engine/internal/scrape/board"
	"vagahunter-engine/internal/scrape/fetch"
	"vagahunter-engine/internal/scrape/types"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeExtractor struct {
	name  string
	leads []domain.Lead
	err   error
	panic bool
	delay time.Duration
}

func (f fakeExtractor) Name() string { return f.name }

func (f fakeExtractor) Extract(ctx context.Context, _ string) ([]domain.Lead, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.panic {
		panic("boom")
	}
	return f.leads, f.err
}

func lead(source, url, title string) domain.Lead {
	return domain.Lead{Title: title, Company: "Acme", URL: url, Source: source}
}

func fixed(exs ...types.Extractor) BuildFunc {
	return func(fetch.Getter) ([]types.Extractor, error) { return exs, nil }
}

func TestAggregate_EmptyQueryIsRejected(t *testing.T) {
	agg := NewWithBuilder(fixed(), fetch.Options{})
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := agg.Aggregate(context.Background(), q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestAggregate_PriorityOrderAndDedup(t *testing.T) {
	a := fakeExtractor{name: "a", delay: 30 * time.Millisecond, leads: []domain.Lead{
		lead("a", "https://jobs.example.com/1", "A one"),
		lead("a", "https://jobs.example.com/2", "A two"),
	}}
	b := fakeExtractor{name: "b", leads: []domain.Lead{
		lead("b", "https://JOBS.example.com/1#apply", "B one"),
		lead("b", "https://jobs.example.com/3", "B three"),
	}}
	c := fakeExtractor{name: "c", leads: []domain.Lead{
		lead("c", "https://jobs.example.com/3?utm_source=feed", "C three"),
		lead("c", "https://jobs.example.com/4", "C four"),
	}}

	leads, err := NewWithBuilder(fixed(a, b, c), fetch.Options{}).Aggregate(context.Background(), "go")
	require.NoError(t, err)

	var titles []string
	for _, l := range leads {
		titles = append(titles, l.Title)
	}
	assert.Equal(t, []string{"A one", "A two", "B three", "C four"}, titles)
	assert.Equal(t, "a", leads[0].Source)
}

func TestAggregate_IsolatesFailures(t *testing.T) {
	good := fakeExtractor{name: "good", leads: []domain.Lead{lead("good", "https://a.com/1", "Kept")}}
	failing := fakeExtractor{name: "failing", err: errors.New("listing exploded")}
	panicking := fakeExtractor{name: "panicking", panic: true}

	leads, err := NewWithBuilder(fixed(failing, panicking, good), fetch.Options{}).Aggregate(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Kept", leads[0].Title)
}

func TestAggregate_DropsInvalidLeads(t *testing.T) {
	ex := fakeExtractor{name: "x", leads: []domain.Lead{
		lead("x", "", "No url"),
		lead("x", "/relative", "Relative"),
		{Title: "", Company: "", URL: "https://a.com/ok", Source: "x"},
		lead("x", "https://a.com/fine", "Fine"),
	}}

	leads, err := NewWithBuilder(fixed(ex), fetch.Options{}).Aggregate(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Fine", leads[0].Title)
}

func TestAggregate_NewClientPerRun(t *testing.T) {
	var mu sync.Mutex
	var seen []fetch.Getter
	build := func(g fetch.Getter) ([]types.Extractor, error) {
		mu.Lock()
		seen = append(seen, g)
		mu.Unlock()
		return nil, nil
	}
	agg := NewWithBuilder(build, fetch.Options{})
	for i := 0; i < 2; i++ {
		_, err := agg.Aggregate(context.Background(), "go")
		require.NoError(t, err)
	}
	require.Len(t, seen, 2)
	assert.NotSame(t, seen[0], seen[1])
}

func TestAggregate_BuildErrorSurfaces(t *testing.T) {
	build := func(fetch.Getter) ([]types.Extractor, error) { return nil, errors.New("bad spec") }
	_, err := NewWithBuilder(build, fetch.Options{}).Aggregate(context.Background(), "go")
	assert.Error(t, err)
}

func TestAggregate_RealBoardsSharedPosting(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	html := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/a/jobs-golang", html(`<a class="cell-list" href="/shared"><div class="cell-list-content"><h3>From A</h3></div></a>`))
	mux.HandleFunc("/b/search", html(`<section class="jobs"><article><ul>
<li><a href="/shared"><span class="title">From B</span><span class="company">Beta</span></a></li>
<li><a href="/remote-jobs/only-b"><span class="title">Only B</span><span class="company">Beta</span></a></li>
</ul></article></section>`))
	mux.HandleFunc("/shared", html(`<div class="line-height-2-4">shared description</div>`))
	mux.HandleFunc("/remote-jobs/only-b", html(`<div id="job-listing-show-container">b description</div>`))

	specs := board.Specs()
	a, b := specs[0], specs[1]
	a.BaseURL, a.ListingURL = ts.URL, ts.URL+"/a/jobs-{query}"
	b.BaseURL, b.ListingURL = ts.URL, ts.URL+"/b/search?term={query}"
	b.LinkSelector = "a[href]"

	agg := New([]board.Spec{a, b}, board.Options{}, fetch.Options{RetryDelay: 5 * time.Millisecond})
	leads, err := agg.Aggregate(context.Background(), "golang")
	require.NoError(t, err)
	require.Len(t, leads, 2)

	assert.Equal(t, "From A", leads[0].Title)
	assert.Equal(t, board.Programathor, leads[0].Source)
	assert.Equal(t, "shared description", leads[0].Description)
	assert.Equal(t, "[Remote] Only B", leads[1].Title)
	assert.True(t, leads[1].IsRemote)
}

func TestAggregate_UnreachableNetworkIsEmpty(t *testing.T) {
	var specs []board.Spec
	for _, s := range board.Specs() {
		s.BaseURL = "http://127.0.0.1:1"
		s.ListingURL = "http://127.0.0.1:1/" + s.Name + "/{query}"
		specs = append(specs, s)
	}
	agg := New(specs, board.Options{}, fetch.Options{RetryDelay: 5 * time.Millisecond})

	for i := 0; i < 2; i++ {
		leads, err := agg.Aggregate(context.Background(), "python")
		require.NoError(t, err)
		assert.Empty(t, leads)
	}
}

func TestMerge_SkipsFailedResults(t *testing.T) {
	results := []types.Result[types.ScrapeResult]{
		types.Fail[types.ScrapeResult](errors.New("down")),
		types.Ok(types.ScrapeResult{Source: "b", Leads: []domain.Lead{lead("b", "https://b.com/1", "B")}}),
	}
	leads := Merge(results)
	require.Len(t, leads, 1)
	assert.Equal(t, "b", leads[0].Source)
}
