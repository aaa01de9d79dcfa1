// Package discovery seeds the crawl frontier from sitemap files.
package discovery

import (
	"context"
	"encoding/xml"
	"net/url"
	"strings"

	"github.com/PentesterFlow/WebScout/internal/httpclient"
)

// maxIndexDepth caps recursion through nested sitemap index files.
const maxIndexDepth = 3

// Fetcher fetches one URL. *httpclient.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*httpclient.Response, error)
}

// Seeder discovers extra crawl seeds from the target's sitemap.xml.
// Discovered URLs are returned raw; the caller validates and enqueues
// them through its normal scheduling path.
type Seeder struct {
	fetcher Fetcher
}

// NewSeeder creates a sitemap seeder.
func NewSeeder(f Fetcher) *Seeder {
	return &Seeder{fetcher: f}
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

// Discover fetches {target}/sitemap.xml and returns the page URLs it
// lists, in document order and deduplicated. Index files are followed.
// A missing or unparseable sitemap yields no URLs and no error; only a
// failed fetch of the root sitemap is reported.
func (s *Seeder) Discover(ctx context.Context, target string) ([]string, error) {
	parsed, err := url.Parse(target)
	if err != nil {
		return nil, err
	}

	root := parsed.Scheme + "://" + parsed.Host + "/sitemap.xml"

	resp, err := s.fetcher.Get(ctx, root)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	urls := make([]string, 0, 16)
	collect := func(loc string) {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			return
		}
		if _, dup := seen[loc]; dup {
			return
		}
		seen[loc] = struct{}{}
		urls = append(urls, loc)
	}

	visited := map[string]struct{}{root: {}}
	s.parse(ctx, resp.Body, 0, visited, collect)
	return urls, nil
}

// parse handles one sitemap document: index files recurse into their
// children, url sets feed the collector.
func (s *Seeder) parse(ctx context.Context, body string, depth int, visited map[string]struct{}, collect func(string)) {
	var index sitemapIndex
	if err := xml.Unmarshal([]byte(body), &index); err == nil && len(index.Sitemaps) > 0 {
		if depth >= maxIndexDepth {
			return
		}
		for _, entry := range index.Sitemaps {
			child := strings.TrimSpace(entry.Loc)
			if child == "" {
				continue
			}
			if _, dup := visited[child]; dup {
				continue
			}
			visited[child] = struct{}{}

			resp, err := s.fetcher.Get(ctx, child)
			if err != nil || resp.StatusCode != 200 {
				continue
			}
			s.parse(ctx, resp.Body, depth+1, visited, collect)
		}
		return
	}

	var set urlSet
	if err := xml.Unmarshal([]byte(body), &set); err == nil {
		for _, entry := range set.URLs {
			collect(entry.Loc)
		}
	}
}
