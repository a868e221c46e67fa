package ajax

import (
	"net/url"
	"regexp"
	"strings"
)

const schemeSeparator = "://"

var repeatedSlashesRegexp = regexp.MustCompile(`/{2,}`)

// IsAbsoluteURL returns true if the URL contains the scheme separator "://".
func IsAbsoluteURL(u string) bool {
	return strings.Contains(u, schemeSeparator)
}

// AbsoluteURL joins the base URL and the URI with exactly one slash.
// An absolute URI, or any URI if the base URL is empty, is returned unchanged.
func AbsoluteURL(baseURL, uri string) string {
	if baseURL == "" || IsAbsoluteURL(uri) {
		return uri
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(uri, "/")
}

// ResolveURL replaces {key} placeholders in the URL and then merges the suffix into it.
//
// The suffix path is appended to the URL path, separated by one slash.
// Query strings are joined in the order URL, suffix, for example:
// "a/b?x=1" with suffix "c?y=2" is resolved to "a/b/c?x=1&y=2".
func ResolveURL(u, suffix string, placeholders map[string]string) string {
	for k, v := range placeholders {
		u = strings.ReplaceAll(u, "{"+k+"}", url.PathEscape(v))
	}

	if suffix == "" {
		return u
	}

	basePath, baseQuery, _ := strings.Cut(u, "?")
	suffixPath, suffixQuery, _ := strings.Cut(suffix, "?")

	path := basePath
	if suffixPath != "" {
		path = basePath + "/" + suffixPath
	}

	var queries []string
	for _, q := range []string{baseQuery, suffixQuery} {
		if q != "" {
			queries = append(queries, q)
		}
	}

	out := collapseSlashes(path)
	if len(queries) > 0 {
		out += "?" + strings.Join(queries, "&")
	}
	return out
}

// collapseSlashes replaces repeated slashes with one, the scheme separator is kept.
func collapseSlashes(path string) string {
	if scheme, rest, found := strings.Cut(path, schemeSeparator); found {
		return scheme + schemeSeparator + repeatedSlashesRegexp.ReplaceAllString(rest, "/")
	}
	return repeatedSlashesRegexp.ReplaceAllString(path, "/")
}
