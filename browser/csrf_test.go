package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCsrfReaderRead(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		cookie    string
		want      string
		wantFound bool
	}{
		{"simple", "csrf_token=abc123", "csrf_token", "abc123", true},
		{"among others", "sid=1; csrf_token=abc123; theme=dark", "csrf_token", "abc123", true},
		{"whitespace trimmed", "  csrf_token=abc123 ;sid=1", "csrf_token", "abc123", true},
		{"url decoded", "csrf_token=a%2Fb%3Dc", "csrf_token", "a/b=c", true},
		{"value with equals", "csrf_token=a=b=c", "csrf_token", "a=b=c", true},
		{"first duplicate wins", "csrf_token=first; csrf_token=second", "csrf_token", "first", true},
		{"absent", "sid=1; theme=dark", "csrf_token", "", false},
		{"empty jar", "", "csrf_token", "", false},
		{"name without value", "csrf_token; sid=1", "csrf_token", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewCsrfReader(&HeaderJar{Header: tc.header})
			got, found := r.Read(tc.cookie)
			assert.Equal(t, tc.wantFound, found)
			if tc.wantFound {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
