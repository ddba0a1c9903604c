package board

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vagahunter-engine/internal/domain"
	"vagahunter-engine/internal/scrape/fetch"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type stubGetter struct{}

func (stubGetter) Get(context.Context, string, time.Duration) (*fetch.Response, error) {
	return nil, fmt.Errorf("not used")
}

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustSpec(t *testing.T, name string) Spec {
	t.Helper()
	specs, err := Lookup([]string{name})
	require.NoError(t, err)
	require.Len(t, specs, 1)
	return specs[0]
}

func localSpec(base string, s Spec) Spec {
	s.BaseURL = base
	s.ListingURL = base + "/jobs-{query}"
	return s
}

func testClient() *fetch.Client {
	return fetch.New(fetch.Options{RetryDelay: 5 * time.Millisecond})
}

func programathorCard(href, title, company, extra string) string {
	open := `<div class="cell-list">`
	if href != "" {
		open = fmt.Sprintf(`<a class="cell-list" href="%s">`, href)
	}
	closeTag := "</div>"
	if href != "" {
		closeTag = "</a>"
	}
	return fmt.Sprintf(`%s<div class="cell-list-content"><h3>%s</h3><div class="cell-list-content-icon"><span>%s</span><span>%s</span></div></div>%s`,
		open, title, company, extra, closeTag)
}

func listingPage(cards ...string) string {
	return "<html><body>" + strings.Join(cards, "\n") + "</body></html>"
}

func htmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

func TestParseListing_SkipsCardsWithoutLink(t *testing.T) {
	ex, err := New(mustSpec(t, Programathor), stubGetter{}, Options{})
	require.NoError(t, err)

	doc := mustDoc(t, listingPage(
		programathorCard("/jobs/1", "Desenvolvedor Go", "Acme", "Remoto"),
		programathorCard("", "Sem link", "Nope", ""),
		programathorCard("/jobs/2", "Backend Python", "", "São Paulo"),
		programathorCard("", "Outro sem link", "Nope", ""),
		programathorCard("/jobs/3", " ", "Globex", ""),
	))

	entries := ex.ParseListing(doc)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Title: "Desenvolvedor Go", Company: "Acme", URL: "https://programathor.com.br/jobs/1", IsRemote: true}, entries[0])
	assert.Equal(t, "Programathor Job", entries[1].Company)
	assert.False(t, entries[1].IsRemote)
	assert.Equal(t, "Globex opening", entries[2].Title)
}

func TestParseListing_CapsAtMaxResults(t *testing.T) {
	ex, err := New(mustSpec(t, Programathor), stubGetter{}, Options{MaxResults: 2})
	require.NoError(t, err)

	doc := mustDoc(t, listingPage(
		programathorCard("/jobs/1", "A", "X", ""),
		programathorCard("/jobs/2", "B", "X", ""),
		programathorCard("/jobs/3", "C", "X", ""),
	))
	assert.Len(t, ex.ParseListing(doc), 2)
}

func TestParseListing_WeWorkRemotely(t *testing.T) {
	ex, err := New(mustSpec(t, WeWorkRemotely), stubGetter{}, Options{})
	require.NoError(t, err)

	doc := mustDoc(t, `<section class="jobs"><article><ul>
<li><a href="/company/acme">logo</a><a href="/remote-jobs/acme-go-dev"><span class="company">Acme</span><span class="title">Go Developer</span></a></li>
<li><a href="/remote-jobs/beta-rust"><span class="company">Beta</span><span class="title">Remote Rust Engineer</span></a></li>
<li class="view-all"><a href="/categories/remote-programming-jobs">View all</a></li>
</ul></article></section>`)

	entries := ex.ParseListing(doc)
	require.Len(t, entries, 2)
	assert.Equal(t, "[Remote] Go Developer", entries[0].Title)
	assert.Equal(t, "https://weworkremotely.com/remote-jobs/acme-go-dev", entries[0].URL)
	assert.True(t, entries[0].IsRemote)
	assert.Equal(t, "Remote Rust Engineer", entries[1].Title)
	assert.True(t, entries[1].IsRemote)
}

func TestParseListing_RemoteOK(t *testing.T) {
	ex, err := New(mustSpec(t, RemoteOK), stubGetter{}, Options{})
	require.NoError(t, err)

	doc := mustDoc(t, `<table>
<tr class="job" data-href="/remote-jobs/123-senior-go"><td><h2 itemprop="title">Senior Go</h2><h3 itemprop="name">Gopher Inc</h3></td></tr>
<tr class="job"><td><h2>No link</h2></td></tr>
</table>`)

	entries := ex.ParseListing(doc)
	require.Len(t, entries, 1)
	assert.Equal(t, "https://remoteok.com/remote-jobs/123-senior-go", entries[0].URL)
	assert.Equal(t, "Gopher Inc", entries[0].Company)
	assert.Equal(t, "[Remote] Senior Go", entries[0].Title)
}

func TestExtract_DescriptionFallbacks(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/jobs-golang", htmlHandler(listingPage(
		programathorCard("/jobs/1", "Job 1", "Acme", ""),
		programathorCard("", "missing", "x", ""),
		programathorCard("/jobs/2", "Job 2", "Acme", ""),
		programathorCard("", "missing", "x", ""),
		programathorCard("/jobs/3", "Job 3", "Acme", ""),
	)))
	mux.HandleFunc("/jobs/1", htmlHandler(`<div class="line-height-2-4"> Build APIs   in Go </div><p>footer</p>`))
	mux.HandleFunc("/jobs/2", htmlHandler(`<body><script>var x = 1;</script><p>Only body text</p></body>`))
	mux.HandleFunc("/jobs/3", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	ex, err := New(localSpec(ts.URL, mustSpec(t, Programathor)), testClient(), Options{})
	require.NoError(t, err)

	leads, err := ex.Extract(context.Background(), "Golang")
	require.NoError(t, err)
	require.Len(t, leads, 3)

	assert.Equal(t, "Build APIs in Go", leads[0].Description)
	assert.Equal(t, "Only body text", leads[1].Description)
	assert.Equal(t, domain.DescriptionPlaceholder, leads[2].Description)
	for _, l := range leads {
		assert.Equal(t, Programathor, l.Source)
		assert.Nil(t, l.MatchScore)
		assert.True(t, strings.HasPrefix(l.URL, ts.URL+"/jobs/"))
	}
}

func TestExtract_DetailTimeoutKeepsLeadAndPairing(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var cards []string
	for i := 1; i <= 4; i++ {
		cards = append(cards, programathorCard(fmt.Sprintf("/jobs/%d", i), fmt.Sprintf("Job %d", i), "Acme", ""))
	}
	mux.HandleFunc("/jobs-go", htmlHandler(listingPage(cards...)))
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/jobs/")
		if id == "3" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		// answer out of order so pairing is not an accident of timing
		if id == "1" {
			time.Sleep(40 * time.Millisecond)
		}
		htmlHandler(fmt.Sprintf(`<div class="line-height-2-4">Description for job %s</div>`, id))(w, r)
	})

	ex, err := New(localSpec(ts.URL, mustSpec(t, Programathor)), testClient(), Options{DetailTimeout: 100 * time.Millisecond})
	require.NoError(t, err)

	leads, err := ex.Extract(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, leads, 4)

	for i, l := range leads {
		n := i + 1
		assert.Equal(t, fmt.Sprintf("Job %d", n), l.Title)
		if n == 3 {
			assert.Equal(t, domain.DescriptionPlaceholder, l.Description)
			continue
		}
		assert.Equal(t, fmt.Sprintf("Description for job %d", n), l.Description)
	}
}

func TestExtract_BoundedDetailConcurrency(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var cards []string
	for i := 1; i <= 6; i++ {
		cards = append(cards, programathorCard(fmt.Sprintf("/jobs/%d", i), fmt.Sprintf("Job %d", i), "Acme", ""))
	}
	mux.HandleFunc("/jobs-go", htmlHandler(listingPage(cards...)))

	var inFlight, peak atomic.Int32
	var mu sync.Mutex
	mux.HandleFunc("/jobs/", func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		mu.Lock()
		if n > peak.Load() {
			peak.Store(n)
		}
		mu.Unlock()
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
		htmlHandler(`<div class="line-height-2-4">desc</div>`)(w, r)
	})

	ex, err := New(localSpec(ts.URL, mustSpec(t, Programathor)), testClient(), Options{MaxResults: 6, DetailConcurrency: 2})
	require.NoError(t, err)

	leads, err := ex.Extract(context.Background(), "go")
	require.NoError(t, err)
	assert.Len(t, leads, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestExtract_DescriptionIsCapped(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/jobs-go", htmlHandler(listingPage(programathorCard("/jobs/1", "Job 1", "Acme", ""))))
	mux.HandleFunc("/jobs/1", htmlHandler(`<div class="line-height-2-4">`+strings.Repeat("x", 6000)+`</div>`))

	ex, err := New(localSpec(ts.URL, mustSpec(t, Programathor)), testClient(), Options{})
	require.NoError(t, err)

	leads, err := ex.Extract(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Len(t, leads[0].Description, domain.MaxDescriptionLen)
}

func TestExtract_ListingWithoutDataIsEmpty(t *testing.T) {
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	defer ts.Close()

	mux.HandleFunc("/jobs-broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/jobs-json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	ex, err := New(localSpec(ts.URL, mustSpec(t, Programathor)), testClient(), Options{})
	require.NoError(t, err)

	for _, q := range []string{"broken", "json", "   "} {
		leads, err := ex.Extract(context.Background(), q)
		require.NoError(t, err, q)
		assert.Empty(t, leads, q)
	}
}

func TestExtract_UnreachableIsEmptyEveryTime(t *testing.T) {
	spec := localSpec("http://127.0.0.1:1", mustSpec(t, Programathor))
	ex, err := New(spec, testClient(), Options{ListingTimeout: 200 * time.Millisecond})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		leads, err := ex.Extract(context.Background(), "python")
		require.NoError(t, err)
		assert.Empty(t, leads)
	}
}

func TestNew_RejectsBadSpec(t *testing.T) {
	_, err := New(Spec{Name: "x", ListingURL: "https://x.com/jobs", CardSelector: "li", TitleSelector: "h2"}, stubGetter{}, Options{})
	assert.Error(t, err)

	_, err = New(mustSpec(t, RemoteOK), nil, Options{})
	assert.Error(t, err)
}
