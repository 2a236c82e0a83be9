package source

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/tonasket-wiki/directory-cli/internal/identity"
	"github.com/tonasket-wiki/directory-cli/internal/model"
	"github.com/tonasket-wiki/directory-cli/internal/normalize"
)

// WebDirAdapter scrapes a public HTML business directory (e.g. a
// chamber-of-commerce listing page). One adapter instance covers one
// site; the selectors describe that site's markup.
type WebDirAdapter struct {
	name       string
	listURL    string
	selectors  WebDirSelectors
	httpClient *http.Client
}

// WebDirSelectors locates listing fields within the page.
type WebDirSelectors struct {
	Item    string // one element per business
	Name    string
	Address string
	Phone   string
	Website string // anchor element; href is used
}

// DefaultWebDirSelectors matches the common listing markup the
// Tonasket chamber page uses.
func DefaultWebDirSelectors() WebDirSelectors {
	return WebDirSelectors{
		Item:    ".listing",
		Name:    ".listing-name",
		Address: ".listing-address",
		Phone:   ".listing-phone",
		Website: ".listing-website a",
	}
}

// NewWebDir creates an adapter for one directory page.
func NewWebDir(name, listURL string, sel WebDirSelectors, httpClient *http.Client) *WebDirAdapter {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	return &WebDirAdapter{name: name, listURL: listURL, selectors: sel, httpClient: httpClient}
}

func (a *WebDirAdapter) Name() string { return a.name }

// Lookup fetches the listing page and shapes each entry. When q.Name
// is set only entries with the same normalized name key are returned.
func (a *WebDirAdapter) Lookup(ctx context.Context, q Query) ([]model.EnrichmentResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.listURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: webdir build request")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "source: webdir request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("source: webdir status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "source: webdir parse html")
	}

	wantKey := normalize.NameKey(q.Name)

	var results []model.EnrichmentResult
	doc.Find(a.selectors.Item).Each(func(_ int, item *goquery.Selection) {
		rawName := strings.TrimSpace(item.Find(a.selectors.Name).Text())
		nameKey := normalize.NameKey(rawName)
		if nameKey == "" {
			return
		}
		if wantKey != "" && nameKey != wantKey {
			return
		}

		address := normalize.Address(strings.TrimSpace(item.Find(a.selectors.Address).Text()))

		result := model.EnrichmentResult{
			BusinessID: identity.GenerateID(nameKey, normalize.AddressKey(address)),
			Source:     a.name,
			Address:    address,
			Raw:        map[string]any{"name": rawName, "url": a.listURL},
		}

		if phone, err := normalize.Phone(item.Find(a.selectors.Phone).Text()); err == nil {
			result.Phone = phone
		}
		if href, ok := item.Find(a.selectors.Website).Attr("href"); ok {
			if site, err := normalize.Website(href); err == nil {
				result.Website = site
			}
		}

		results = append(results, result)

		if q.Limit > 0 && len(results) >= q.Limit {
			return
		}
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results, nil
}
