package orchestrator

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/carspecworker/config"
	"sjsage522/carspecworker/internal/crawler"
	"sjsage522/carspecworker/pkg/errors"
)

const fakeBase = "https://cars.test"

// fakeSite serves generated catalog pages from memory
type fakeSite struct {
	mu          sync.Mutex
	pages       map[string]string
	failures    map[string]error
	log         []string
	block       chan struct{}
	gate        chan struct{}
	gated       func(url string) bool
	brandDelay  time.Duration
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

// newFakeSite builds a catalog of brandCount brands, each with one model,
// one generation and carsPerGen cars plus one car row without a link.
func newFakeSite(brandCount, carsPerGen int) *fakeSite {
	s := &fakeSite{pages: map[string]string{}, failures: map[string]error{}}

	var index strings.Builder
	index.WriteString(`<div class="brands">`)
	for b := 0; b < brandCount; b++ {
		fmt.Fprintf(&index, `<a class="marki_blok" href="/brand-%d"><img src="/logo-%d.png"><strong>Brand %d</strong></a>`, b, b, b)

		s.pages[fmt.Sprintf("%s/brand-%d", fakeBase, b)] = fmt.Sprintf(
			`<ul class="modelite"><li class="letter"><ul><li><a href="/model-%d"><img src="/m.jpg"><strong>Model %d</strong></a></li></ul></li></ul>`, b, b)

		s.pages[fmt.Sprintf("%s/model-%d", fakeBase, b)] = fmt.Sprintf(
			`<table class="generr"><tbody><tr class="f"><th class="i"><a href="/gen-%d"><img src="/g.jpg"><strong>Gen %d</strong></a></th>`+
				`<td class="i"><a href="/gen-%d"><strong class="end">2001 - 2005</strong><strong class="chas">Sedan</strong><span>90 Hp</span><span>4000 mm</span></a></td></tr></tbody></table>`, b, b, b)

		var list strings.Builder
		list.WriteString(`<table class="carlist"><tbody>`)
		for c := 0; c < carsPerGen; c++ {
			fmt.Fprintf(&list, `<tr class="i"><th class="i"><a href="/car-%d-%d">Car</a></th></tr>`, b, c)
			s.pages[fmt.Sprintf("%s/car-%d-%d", fakeBase, b, c)] = fmt.Sprintf(
				`<h1>Car %d-%d</h1><table class="cardetailsout"><tbody>`+
					`<tr class="no"><th class="no"><strong class="car" id="general">General</strong></th></tr>`+
					`<tr><th>Fuel Type</th><td>Petrol</td></tr></tbody></table>`, b, c)
		}
		list.WriteString(`<tr class="i"><th class="i">no link</th></tr></tbody></table>`)
		s.pages[fmt.Sprintf("%s/gen-%d", fakeBase, b)] = list.String()
	}
	index.WriteString(`</div>`)
	s.pages[fakeBase+"/en/allbrands"] = index.String()
	return s
}

func (s *fakeSite) Fetch(ctx context.Context, url, locator string) (*goquery.Selection, error) {
	s.record(url)

	if url == fakeBase+"/en/allbrands" && s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if s.gate != nil && s.gated(url) {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if strings.Contains(url, "/brand-") {
		n := s.inflight.Add(1)
		defer s.inflight.Add(-1)
		for {
			m := s.maxInflight.Load()
			if n <= m || s.maxInflight.CompareAndSwap(m, n) {
				break
			}
		}
		if s.brandDelay > 0 {
			time.Sleep(s.brandDelay)
		}
	}

	s.mu.Lock()
	failure := s.failures[url]
	page, ok := s.pages[url]
	s.mu.Unlock()

	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, errors.NewStatus(url, 404)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + page + "</body></html>"))
	if err != nil {
		return nil, err
	}
	return doc.Find(locator), nil
}

func (s *fakeSite) record(entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, entry)
}

func (s *fakeSite) entries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

func (s *fakeSite) fail(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[url] = err
}

type fakeStore struct {
	mu       sync.Mutex
	calls    int
	brands   []crawler.Brand
	vehicles []crawler.Vehicle
	err      error
}

func (f *fakeStore) Save(_ context.Context, brands []crawler.Brand, vehicles []crawler.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.brands = brands
	f.vehicles = vehicles
	return f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages map[string][]byte
	trimmed  int
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, key string, message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.messages == nil {
		f.messages = map[string][]byte{}
	}
	f.messages[key] = message
	return nil
}

func (f *fakePublisher) Trim(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trimmed++
	return nil
}

func testSite() Site {
	return Site{
		BaseURL:   fakeBase,
		BrandsURL: fakeBase + "/en/allbrands",
		Locators:  config.DefaultLocators(),
	}
}

// noDelay paces without waiting
func noDelay() Pacing {
	return Pacing{ChunkSize: 10, Concurrency: 3}
}

var errBoom = stderrors.New("boom")
