package apiclient

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestValueText(t *testing.T) {
	cases := []struct {
		name string
		val  Value
		want string
	}{
		{name: "string", val: String("a b&c"), want: "a b&c"},
		{name: "int", val: Int(-42), want: "-42"},
		{name: "float", val: Float(3.25), want: "3.25"},
		{name: "whole float", val: Float(10), want: "10"},
		{name: "large float", val: Float(1e21), want: "1e+21"},
		{name: "bool", val: Bool(false), want: "false"},
		{name: "null", val: Null(), want: ""},
		{name: "array", val: Array(Int(1), String("x")), want: `[1,"x"]`},
		{name: "object", val: Object(*new(Params).Set("k", Bool(true))), want: `{"k":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.val.Text(); got != tc.want {
				t.Fatalf("Text() = %q want %q", got, tc.want)
			}
		})
	}
}

func TestParamsKeepInsertionOrder(t *testing.T) {
	var p Params
	p.Set("z", Int(1)).Set("a", Int(2)).Set("z", Int(3))

	keys := p.Keys()
	if len(keys) != 2 || keys[0] != "z" || keys[1] != "a" {
		t.Fatalf("keys = %v", keys)
	}
	if v, _ := p.Get("z"); v.Text() != "3" {
		t.Fatalf("z = %s", v.Text())
	}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"z":3,"a":2}` {
		t.Fatalf("marshal = %s", raw)
	}
}

func TestParamsUnmarshalPreservesOrderAndTypes(t *testing.T) {
	var p Params
	if err := json.Unmarshal([]byte(`{"b":1.5,"a":[true,null],"c":{"d":"e"}}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if keys := p.Keys(); keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Fatalf("keys = %v", keys)
	}
	a, _ := p.Get("a")
	if a.Type() != ArrayValue || len(a.Items()) != 2 || a.Items()[1].Type() != NullValue {
		t.Fatalf("a = %#v", a)
	}
	c, _ := p.Get("c")
	if d, ok := c.Fields().Get("d"); !ok || d.Text() != "e" {
		t.Fatalf("c.d = %#v", d)
	}

	if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
		t.Fatalf("expected error for non-object params")
	}
}

func TestParamsFromStructAndMap(t *testing.T) {
	type query struct {
		Term  string   `json:"term"`
		Limit int      `json:"limit"`
		Tags  []string `json:"tags,omitempty"`
	}

	p, err := ParamsFrom(query{Term: "go", Limit: 5})
	if err != nil {
		t.Fatalf("ParamsFrom struct: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 entries, got %v", p.Keys())
	}
	if v, _ := p.Get("limit"); v.Text() != "5" {
		t.Fatalf("limit = %s", v.Text())
	}

	p, err = ParamsFrom(map[string]any{"flag": true, "n": 1})
	if err != nil {
		t.Fatalf("ParamsFrom map: %v", err)
	}
	if v, _ := p.Get("flag"); v.Text() != "true" {
		t.Fatalf("flag = %s", v.Text())
	}

	if p, err := ParamsFrom(nil); err != nil || p.Len() != 0 {
		t.Fatalf("ParamsFrom(nil) = %v, %v", p.Keys(), err)
	}
	if _, err := ParamsFrom([]int{1}); err == nil {
		t.Fatalf("expected error for non-object value")
	}
	if _, err := ParamsFrom(math.Inf(1)); err == nil {
		t.Fatalf("expected error for unencodable value")
	}
}

func TestNewParamsValidatesArguments(t *testing.T) {
	if _, err := NewParams("only-key"); err == nil {
		t.Fatalf("expected error for odd arguments")
	}
	if _, err := NewParams(1, String("x")); err == nil {
		t.Fatalf("expected error for non-string key")
	}
	if _, err := NewParams("k", "raw string"); err == nil {
		t.Fatalf("expected error for non-Value value")
	}
}

func TestValueEqual(t *testing.T) {
	a := Object(*new(Params).Set("x", Int(1)).Set("y", String("s")))
	b := Object(*new(Params).Set("y", String("s")).Set("x", Float(1)))
	if !a.Equal(b) {
		t.Fatalf("expected order-insensitive equality")
	}
	if Int(1).Equal(String("1")) {
		t.Fatalf("different variants must not be equal")
	}
}

func TestErrorSentinelsAndRetryable(t *testing.T) {
	err := error(&Error{Kind: KindBadStatus, StatusCode: http.StatusServiceUnavailable, Body: []byte("busy")})
	if !errors.Is(err, ErrBadStatus) || errors.Is(err, ErrDecode) {
		t.Fatalf("sentinel matching broken for %v", err)
	}
	var apiErr *Error
	errors.As(err, &apiErr)
	if !apiErr.Retryable() {
		t.Fatalf("503 should be retryable")
	}
	if (&Error{Kind: KindBadStatus, StatusCode: http.StatusNotFound}).Retryable() {
		t.Fatalf("404 should not be retryable")
	}
	if (&Error{Kind: KindDecode}).Retryable() {
		t.Fatalf("decode failures are not retryable")
	}
	if got := err.Error(); got != "apiclient: bad_status 503 body: busy" {
		t.Fatalf("Error() = %q", got)
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors map to KindUnknown")
	}
}

func TestErrorBodySnippetKeepsValidUTF8(t *testing.T) {
	body := strings.Repeat("a", 511) + "é" + strings.Repeat("b", 10)
	msg := (&Error{Kind: KindBadStatus, StatusCode: 500, Body: []byte(body)}).Error()
	if !utf8.ValidString(msg) {
		t.Fatalf("Error() is not valid UTF-8: %q", msg)
	}
	if !strings.HasSuffix(msg, strings.Repeat("a", 511)+"...") {
		t.Fatalf("unexpected truncation %q", msg[len(msg)-20:])
	}
}
