package normalize

import (
	"net/url"
	"strings"
)

// Website returns the canonical form of a website URL: scheme ensured
// (https by default), host lowercased, trailing slash stripped from
// the path. Path casing is preserved. Passing an already-normalized
// URL is a no-op.
func Website(raw string) (string, error) {
	site := strings.TrimSpace(raw)
	if site == "" {
		return "", nil
	}

	if !strings.Contains(site, "://") {
		site = "https://" + site
	}

	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return "", &ValidationError{Field: "website", Reason: "not a valid URL"}
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String(), nil
}
