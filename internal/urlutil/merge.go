package urlutil

import (
	"net/url"
	"strings"
)

// MergeQueryParams forwards caller-supplied query parameters (UTM tags and
// friends) onto a destination URL. Parameters already present on the
// destination are preserved; a parameter supplied by the caller overwrites
// a same-named one on the destination.
//
// A destination that does not parse as a URL still gets the parameters via
// literal concatenation: losing tracking tags is worse than an ugly URL.
func MergeQueryParams(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		sep := "?"
		if strings.Contains(rawURL, "?") {
			sep = "&"
		}
		return rawURL + sep + params.Encode()
	}

	q := u.Query()
	for key, values := range params {
		q.Del(key)
		for _, v := range values {
			q.Add(key, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String()
}
