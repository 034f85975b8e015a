package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-apiclient/pkg/httpclient"
)

// Method is the HTTP verb of an endpoint. Only GET and POST are supported.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// Endpoint describes one HTTP call. The client never mutates it.
type Endpoint struct {
	Method  Method
	BaseURL string
	Path    string
	Headers map[string]string
	Params  Params
}

// BuildRequest turns an endpoint into a transport request. It performs no I/O.
//
// GET parameters become one query item each; POST parameters are encoded as
// a JSON object body. Headers are copied as given and no Content-Type is
// added.
func BuildRequest(ep Endpoint) (*httpclient.Request, error) {
	u, err := resolveURL(ep.BaseURL, ep.Path)
	if err != nil {
		return nil, newError(KindBadURL, err)
	}

	req := &httpclient.Request{
		Method:  string(ep.Method),
		Headers: copyHeaders(ep.Headers),
	}

	switch ep.Method {
	case MethodGet:
		if ep.Params.Len() > 0 {
			items := make([]string, 0, ep.Params.Len())
			ep.Params.Each(func(key string, v Value) {
				items = append(items, url.QueryEscape(key)+"="+url.QueryEscape(v.Text()))
			})
			u.RawQuery = appendQuery(u.RawQuery, strings.Join(items, "&"))
		}
	case MethodPost:
		if ep.Params.Len() > 0 {
			body, err := json.Marshal(ep.Params)
			if err != nil {
				return nil, newError(KindEncode, fmt.Errorf("encode body: %w", err))
			}
			req.Body = body
		}
	default:
		return nil, newError(KindUnknown, fmt.Errorf("unsupported method %q", ep.Method))
	}

	req.URL = u.String()
	return req, nil
}

// resolveURL joins base and path with exactly one slash, keeping escapes in
// both. A query string on either side is kept verbatim; a path carrying a
// fragment is rejected.
func resolveURL(base, path string) (*url.URL, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return nil, fmt.Errorf("base url is empty")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", base)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return u, nil
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path: %w", err)
	}
	if ref.Scheme != "" || ref.Host != "" {
		return nil, fmt.Errorf("path %q must be relative", path)
	}
	if ref.Fragment != "" || strings.Contains(path, "#") {
		return nil, fmt.Errorf("path %q must not carry a fragment", path)
	}

	if ref.Path != "" {
		joined := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
		unescaped, err := url.PathUnescape(joined)
		if err != nil {
			return nil, fmt.Errorf("join path: %w", err)
		}
		u.Path = unescaped
		u.RawPath = joined
	}
	u.RawQuery = appendQuery(u.RawQuery, ref.RawQuery)
	return u, nil
}

func appendQuery(query, extra string) string {
	switch {
	case extra == "":
		return query
	case query == "":
		return extra
	default:
		return query + "&" + extra
	}
}

func copyHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
