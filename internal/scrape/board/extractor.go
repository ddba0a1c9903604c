package board

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"vagahunter-engine/internal/domain"
	"vagahunter-engine/internal/scrape/fetch"
	"vagahunter-engine/internal/scrape/types"
	"vagahunter-engine/internal/scrape/util"
)

var (
	ErrNoData           = errors.New("page returned no usable data")
	ErrEmptyDescription = errors.New("page has no description text")
)

// Options holds the run-time knobs shared by every board.
type Options struct {
	MaxResults        int
	ListingTimeout    time.Duration
	DetailTimeout     time.Duration
	Sleep             time.Duration
	DetailConcurrency int
}

func DefaultOptions() Options {
	return Options{
		MaxResults:        5,
		ListingTimeout:    10 * time.Second,
		DetailTimeout:     5 * time.Second,
		Sleep:             500 * time.Millisecond,
		DetailConcurrency: 4,
	}
}

// Entry is one listing card before its detail page has been fetched.
type Entry struct {
	Title    string
	Company  string
	URL      string
	IsRemote bool
}

// Extractor runs the listing + detail algorithm for one Spec.
type Extractor struct {
	spec   Spec
	client fetch.Getter
	opts   Options
}

var _ types.Extractor = (*Extractor)(nil)

func New(spec Spec, client fetch.Getter, opts Options) (*Extractor, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		return nil, eris.Errorf("board %s: nil fetch client", spec.Name)
	}
	def := DefaultOptions()
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.ListingTimeout <= 0 {
		opts.ListingTimeout = def.ListingTimeout
	}
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = def.DetailTimeout
	}
	if opts.Sleep < 0 {
		opts.Sleep = 0
	}
	if opts.DetailConcurrency <= 0 {
		opts.DetailConcurrency = def.DetailConcurrency
	}
	return &Extractor{spec: spec, client: client, opts: opts}, nil
}

func (e *Extractor) Name() string { return e.spec.Name }

// Extract returns up to MaxResults leads for query. Listing failures degrade
// to an empty result; detail failures degrade to the placeholder description.
func (e *Extractor) Extract(ctx context.Context, query string) ([]domain.Lead, error) {
	log := zap.L().With(zap.String("source", e.spec.Name), zap.String("query", query))

	slug := util.Slug(query, e.spec.QuerySeparator)
	if slug == "" {
		return nil, nil
	}
	listURL := e.spec.ListingFor(slug)

	resp, err := e.client.Get(ctx, listURL, e.opts.ListingTimeout)
	if err != nil {
		if ctx.Err() != nil {
			return nil, eris.Wrapf(ctx.Err(), "%s listing", e.spec.Name)
		}
		log.Warn("listing fetch failed", zap.String("url", listURL), zap.Error(err))
		return nil, nil
	}
	if !resp.OK() {
		log.Warn("listing returned no data",
			zap.String("url", listURL),
			zap.Int("status", resp.StatusCode),
			zap.String("content_type", resp.ContentType),
		)
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		log.Warn("listing parse failed", zap.Error(err))
		return nil, nil
	}

	entries := e.ParseListing(doc)
	descs := e.fetchDescriptions(ctx, entries)

	leads := make([]domain.Lead, 0, len(entries))
	for i, en := range entries {
		if !descs[i].OK() {
			log.Debug("description unavailable", zap.String("url", en.URL), zap.Error(descs[i].Err))
		}
		lead := domain.Sanitize(domain.Lead{
			Title:       en.Title,
			Company:     en.Company,
			URL:         en.URL,
			Source:      e.spec.Name,
			IsRemote:    en.IsRemote,
			Description: descs[i].Or(domain.DescriptionPlaceholder),
		})
		if err := domain.Validate(lead); err != nil {
			log.Info("invalid lead discarded", zap.Error(err))
			continue
		}
		leads = append(leads, lead)
	}

	log.Info("source extracted", zap.Int("cards", len(entries)), zap.Int("leads", len(leads)))
	return leads, nil
}

// ParseListing reads at most MaxResults cards from a listing page. Cards
// without a title element or a resolvable link are skipped.
func (e *Extractor) ParseListing(doc *goquery.Document) []Entry {
	var out []Entry
	doc.Find(e.spec.CardSelector).EachWithBreak(func(i int, card *goquery.Selection) bool {
		if i >= e.opts.MaxResults {
			return false
		}
		if en, ok := e.parseCard(card); ok {
			out = append(out, en)
		} else {
			zap.L().Debug("listing card skipped", zap.String("source", e.spec.Name), zap.Int("index", i))
		}
		return true
	})
	return out
}

func (e *Extractor) parseCard(card *goquery.Selection) (Entry, bool) {
	titleSel := card.Find(e.spec.TitleSelector).First()
	if titleSel.Length() == 0 {
		return Entry{}, false
	}

	link := util.NormalizeURL(e.cardLink(card), e.spec.BaseURL)
	if link == "" {
		return Entry{}, false
	}

	company := util.FirstText(card, e.spec.CompanySelectors)
	if company == "" {
		company = e.spec.DefaultCompany
	}

	title := util.CleanText(titleSel.Text())
	if title == "" {
		title = company + " opening"
	}

	remote := e.spec.RemoteOnly || util.ContainsAny(util.CleanText(card.Text()), e.spec.RemoteKeywords)
	if e.spec.RemoteOnly && !util.ContainsAny(title, remoteWords) {
		title = RemoteMarker + " " + title
	}

	return Entry{Title: title, Company: company, URL: link, IsRemote: remote}, true
}

func (e *Extractor) cardLink(card *goquery.Selection) string {
	if e.spec.LinkSelector != "" {
		if v := util.FirstAttr(card, e.spec.LinkSelector, e.spec.LinkAttr); v != "" {
			return v
		}
	}
	if v := util.FirstAttr(card, "", e.spec.LinkAttr); v != "" {
		return v
	}
	return util.FirstAttr(card, "a[href]", "href")
}

// fetchDescriptions fetches detail pages with bounded concurrency. Result i
// always belongs to entries[i].
func (e *Extractor) fetchDescriptions(ctx context.Context, entries []Entry) []types.Result[string] {
	out := make([]types.Result[string], len(entries))
	sem := semaphore.NewWeighted(int64(e.opts.DetailConcurrency))

	var wg sync.WaitGroup
	for i, en := range entries {
		wg.Add(1)
		go func(i int, u string) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				out[i] = types.Fail[string](err)
				return
			}
			defer sem.Release(1)
			out[i] = e.description(ctx, u)
		}(i, en.URL)
	}
	wg.Wait()
	return out
}

func (e *Extractor) description(ctx context.Context, u string) types.Result[string] {
	if e.opts.Sleep > 0 {
		t := time.NewTimer(e.opts.Sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return types.Fail[string](ctx.Err())
		case <-t.C:
		}
	}

	resp, err := e.client.Get(ctx, u, e.opts.DetailTimeout)
	if err != nil {
		return types.Fail[string](err)
	}
	if !resp.OK() {
		return types.Fail[string](eris.Wrapf(ErrNoData, "detail %s status %d", u, resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return types.Fail[string](eris.Wrap(err, "parse detail"))
	}
	doc.Find("script, style, noscript").Remove()

	if t := util.FirstText(doc.Selection, e.spec.DetailSelectors); t != "" {
		return types.Ok(domain.Truncate(t, domain.MaxDescriptionLen))
	}
	if t := util.CleanText(doc.Find("body").Text()); t != "" {
		return types.Ok(domain.Truncate(t, domain.MaxDescriptionLen))
	}
	return types.Fail[string](ErrEmptyDescription)
}
