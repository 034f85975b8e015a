package apiclient

import (
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"testing"
)

func mustParams(t *testing.T, kv ...any) Params {
	t.Helper()
	p, err := NewParams(kv...)
	if err != nil {
		t.Fatalf("NewParams: %v", err)
	}
	return p
}

func TestBuildRequestGETAddsOneQueryItemPerParam(t *testing.T) {
	params := mustParams(t,
		"q", String("go lang"),
		"page", Int(2),
		"ratio", Float(0.5),
		"verbose", Bool(true),
		"empty", Null(),
	)

	req, err := BuildRequest(Endpoint{
		Method:  MethodGet,
		BaseURL: "https://api.example.com/v1/",
		Path:    "/search",
		Params:  params,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.Body != nil {
		t.Fatalf("GET must not carry a body, got %q", req.Body)
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		t.Fatalf("parse built url: %v", err)
	}
	if u.Path != "/v1/search" {
		t.Fatalf("path = %q", u.Path)
	}

	q := u.Query()
	if len(q) != params.Len() {
		t.Fatalf("expected %d query keys, got %d (%s)", params.Len(), len(q), u.RawQuery)
	}
	want := map[string]string{
		"q":       "go lang",
		"page":    "2",
		"ratio":   "0.5",
		"verbose": "true",
		"empty":   "",
	}
	for key, val := range want {
		got, ok := q[key]
		if !ok || len(got) != 1 {
			t.Fatalf("expected exactly one %q item, got %v", key, got)
		}
		if got[0] != val {
			t.Errorf("%s = %q want %q", key, got[0], val)
		}
	}
}

func TestBuildRequestKeepsExistingQuery(t *testing.T) {
	req, err := BuildRequest(Endpoint{
		Method:  MethodGet,
		BaseURL: "https://api.example.com?key=abc",
		Path:    "items?sort=asc",
		Params:  mustParams(t, "limit", Int(10)),
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	u, _ := url.Parse(req.URL)
	q := u.Query()
	if q.Get("key") != "abc" || q.Get("sort") != "asc" || q.Get("limit") != "10" {
		t.Fatalf("unexpected query %q", u.RawQuery)
	}
	if u.Path != "/items" {
		t.Fatalf("path = %q", u.Path)
	}
}

func TestBuildRequestPOSTEncodesJSONBody(t *testing.T) {
	nested := mustParams(t, "city", String("Pune"), "zip", Int(411001))
	params := mustParams(t,
		"name", String("Asha"),
		"age", Int(31),
		"tags", Array(String("a"), String("b")),
		"address", Object(nested),
		"active", Bool(false),
		"note", Null(),
	)

	req, err := BuildRequest(Endpoint{
		Method:  MethodPost,
		BaseURL: "https://api.example.com",
		Path:    "users",
		Headers: map[string]string{"X-Trace": "t1"},
		Params:  params,
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL != "https://api.example.com/users" {
		t.Fatalf("url = %q", req.URL)
	}
	if !json.Valid(req.Body) {
		t.Fatalf("body is not valid JSON: %s", req.Body)
	}

	var decoded Params
	if err := json.Unmarshal(req.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !decoded.Equal(params) {
		t.Fatalf("round trip mismatch: %s", req.Body)
	}
	reencoded, err := json.Marshal(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(reencoded) != string(req.Body) {
		t.Fatalf("re-encoded %s != %s", reencoded, req.Body)
	}
}

func TestBuildRequestCopiesHeadersWithoutDefaults(t *testing.T) {
	headers := map[string]string{"X-Api-Key": "k", "Accept": "application/json"}
	req, err := BuildRequest(Endpoint{
		Method:  MethodPost,
		BaseURL: "https://api.example.com",
		Headers: headers,
		Params:  mustParams(t, "a", Int(1)),
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if len(req.Headers) != len(headers) {
		t.Fatalf("headers = %#v", req.Headers)
	}
	for k, v := range headers {
		if req.Headers[k] != v {
			t.Fatalf("header %s = %q want %q", k, req.Headers[k], v)
		}
	}
	if _, ok := req.Headers["Content-Type"]; ok {
		t.Fatalf("builder must not add Content-Type")
	}

	req.Headers["X-Api-Key"] = "changed"
	if headers["X-Api-Key"] != "k" {
		t.Fatalf("builder must not alias caller headers")
	}
}

func TestBuildRequestRejectsBadURLs(t *testing.T) {
	cases := []struct {
		name string
		base string
		path string
	}{
		{name: "empty", base: ""},
		{name: "blank", base: "   "},
		{name: "relative", base: "/just/a/path"},
		{name: "no host", base: "https://"},
		{name: "bad escape", base: "https://example.com/%zz"},
		{name: "absolute path", base: "https://example.com", path: "https://other.example.com/x"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildRequest(Endpoint{Method: MethodGet, BaseURL: tc.base, Path: tc.path})
			if !errors.Is(err, ErrBadURL) {
				t.Fatalf("expected bad url error, got %v", err)
			}
		})
	}
}

func TestBuildRequestEncodeFailure(t *testing.T) {
	_, err := BuildRequest(Endpoint{
		Method:  MethodPost,
		BaseURL: "https://api.example.com",
		Params:  mustParams(t, "x", Float(math.NaN())),
	})
	if KindOf(err) != KindEncode {
		t.Fatalf("expected encode failure, got %v", err)
	}
}

func TestBuildRequestRejectsUnsupportedMethod(t *testing.T) {
	_, err := BuildRequest(Endpoint{Method: "DELETE", BaseURL: "https://api.example.com"})
	if !errors.Is(err, ErrUnknown) {
		t.Fatalf("expected unknown error, got %v", err)
	}
}

func TestBuildRequestKeepsEscapedBasePath(t *testing.T) {
	req, err := BuildRequest(Endpoint{Method: MethodGet, BaseURL: "https://h.io/a%2Fb", Path: "/c%20d"})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL != "https://h.io/a%2Fb/c%20d" {
		t.Fatalf("url = %q", req.URL)
	}
}

func TestBuildRequestQueryOnlyPath(t *testing.T) {
	req, err := BuildRequest(Endpoint{
		Method:  MethodGet,
		BaseURL: "https://h.io/api",
		Path:    "?x=1",
		Params:  mustParams(t, "k", String("v")),
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL != "https://h.io/api?x=1&k=v" {
		t.Fatalf("url = %q", req.URL)
	}

	if _, err := BuildRequest(Endpoint{Method: MethodGet, BaseURL: "https://h.io", Path: "/p#frag"}); !errors.Is(err, ErrBadURL) {
		t.Fatalf("expected fragment to be rejected, got %v", err)
	}
}

func TestBuildRequestAppendsToExistingQueryVerbatim(t *testing.T) {
	req, err := BuildRequest(Endpoint{
		Method:  MethodGet,
		BaseURL: "https://h.io/search?z=1&a=2",
		Params:  mustParams(t, "k", String("v w"), "b", Int(3)),
	})
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if req.URL != "https://h.io/search?z=1&a=2&k=v+w&b=3" {
		t.Fatalf("url = %q", req.URL)
	}
}
