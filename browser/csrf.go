package browser

import (
	"net/url"
	"strings"
)

// CsrfReader extracts a named token from the ambient cookie jar.
type CsrfReader struct {
	jar CookieJar
}

// NewCsrfReader creates a reader over the given jar.
func NewCsrfReader(jar CookieJar) *CsrfReader {
	return &CsrfReader{jar: jar}
}

// Read returns the URL-decoded value of the named cookie and whether it was
// present. On duplicate names the first match wins.
func (r *CsrfReader) Read(cookieName string) (string, bool) {
	header := r.jar.CookieHeader()
	if header == "" {
		return "", false
	}

	for _, entry := range strings.Split(header, ";") {
		entry = strings.TrimSpace(entry)
		name, value, found := strings.Cut(entry, "=")
		if !found || name != cookieName {
			continue
		}
		decoded, err := url.PathUnescape(value)
		if err != nil {
			// undecodable values are passed through as-is
			return value, true
		}
		return decoded, true
	}
	return "", false
}
