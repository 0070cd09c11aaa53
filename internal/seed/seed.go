// Package seed turns HTML pages and plain URL lists into frontier additions.
package seed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/url-frontier/internal/frontier"
	"github.com/user/url-frontier/pkg/utils"
)

// Adder accepts new items for a priority tier.
type Adder interface {
	Add(ctx context.Context, rawURL, priority string, meta json.RawMessage) error
}

// Result summarizes a Load.
type Result struct {
	Added    int `json:"added"`
	Rejected int `json:"rejected"`
}

// ExtractLinks returns the absolute http(s) links found in the anchors of an
// HTML document, resolved against base. Fragments are stripped and duplicates
// dropped; document order is kept.
func ExtractLinks(base *url.URL, r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b, err := url.Parse(href); err == nil {
			base = base.ResolveReference(b)
		}
	}

	seen := make(map[string]struct{})
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		abs, err := utils.ToAbsoluteURL(base, href)
		if err != nil {
			return
		}
		u, err := url.Parse(abs)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return
		}
		u.Fragment = ""
		u.RawFragment = ""
		link := u.String()
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	})
	return links, nil
}

// ReadList reads one URL per line. Blank lines and lines starting with # are
// skipped.
func ReadList(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

// Load adds every URL at priority. URLs the frontier rejects are counted and
// skipped; an unknown priority or a store failure stops the load.
func Load(ctx context.Context, adder Adder, urls []string, priority string, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		err := adder.Add(ctx, u, priority, nil)
		switch {
		case err == nil:
			res.Added++
		case errors.Is(err, frontier.ErrInvalidURL):
			logger.Warn("skipping seed url", zap.String("url", u), zap.Error(err))
			res.Rejected++
		default:
			return res, err
		}
	}
	logger.Info("seed loaded", zap.Int("added", res.Added), zap.Int("rejected", res.Rejected))
	return res, nil
}
