package httpclient

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Request is the transport-level description of one call. URL is absolute and never carries
// the query; Query is encoded by the transport.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   any
	Binary bool
}

// Params is a query mapping. Values are coerced to strings; slices become repeated keys.
type Params map[string]any

// Values converts the mapping into url.Values.
func (p Params) Values() (url.Values, error) {
	if len(p) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(url.Values, len(p))
	for _, k := range keys {
		switch v := p[k].(type) {
		case nil:
			out.Set(k, "")
		case string:
			out.Set(k, v)
		case []string, []any, []int, []int64, []float64:
			items, err := cast.ToStringSliceE(v)
			if err != nil {
				return nil, fmt.Errorf("query param %q: %w", k, err)
			}
			out[k] = items
		default:
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, fmt.Errorf("query param %q: %w", k, err)
			}
			out.Set(k, s)
		}
	}
	return out, nil
}

// joinURL resolves endpoint against base. Absolute endpoints are returned unchanged.
func joinURL(base, endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Scheme != "" && u.Host != "" {
		return endpoint
	}
	if endpoint == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}
