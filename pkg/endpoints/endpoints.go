// Package endpoints loads named endpoint definitions from YAML/JSON files and
// turns them into apiclient descriptors.
package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-apiclient/pkg/apiclient"
	"github.com/samvad-hq/samvad-apiclient/pkg/apiclient/htmlmeta"
	"gopkg.in/yaml.v3"
)

// Supported response decoders.
const (
	DecoderJSON       = "json"
	DecoderStrictJSON = "strict_json"
	DecoderRaw        = "raw"
	DecoderString     = "string"
	DecoderHTMLMeta   = "html_meta"
)

// Definition is a single endpoint entry declared in config files.
type Definition struct {
	ID      string            `json:"id" yaml:"id"`
	Method  string            `json:"method" yaml:"method"`
	BaseURL string            `json:"base_url" yaml:"base_url"`
	Path    string            `json:"path" yaml:"path"`
	Headers map[string]string `json:"headers" yaml:"headers"`
	Params  map[string]any    `json:"params" yaml:"params"`
	Decoder string            `json:"decoder" yaml:"decoder"`
}

type fileRegistry struct {
	Endpoints []Definition `json:"endpoints" yaml:"endpoints"`
}

// Registry holds the definitions loaded from one file.
type Registry struct {
	mu   sync.RWMutex
	defs []Definition
	idx  map[string]Definition
}

// Load reads the endpoint registry from a YAML/JSON file.
func Load(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	return newRegistry(fileReg.Endpoints)
}

// NewRegistry validates defs and indexes them by id.
func NewRegistry(defs []Definition) (*Registry, error) {
	return newRegistry(defs)
}

func newRegistry(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	reg := &Registry{
		defs: make([]Definition, len(defs)),
		idx:  make(map[string]Definition, len(defs)),
	}
	for i := range defs {
		d := sanitizeDefinition(defs[i])
		if err := validateDefinition(d); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := reg.idx[d.ID]; exists {
			return nil, fmt.Errorf("duplicate endpoint id %q", d.ID)
		}
		reg.defs[i] = d
		reg.idx[d.ID] = d
	}
	return reg, nil
}

func parseRegistry(data []byte, ext string) (fileRegistry, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg fileRegistry
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return fileRegistry{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func sanitizeDefinition(d Definition) Definition {
	d.ID = strings.TrimSpace(d.ID)
	d.Method = strings.ToUpper(strings.TrimSpace(d.Method))
	if d.Method == "" {
		d.Method = string(apiclient.MethodGet)
	}
	d.BaseURL = strings.TrimSpace(d.BaseURL)
	d.Path = strings.TrimSpace(d.Path)
	d.Decoder = strings.ToLower(strings.TrimSpace(d.Decoder))
	if d.Decoder == "" {
		d.Decoder = DecoderJSON
	}

	if len(d.Headers) > 0 {
		headers := make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			key := strings.TrimSpace(k)
			if key == "" {
				continue
			}
			headers[key] = strings.TrimSpace(v)
		}
		d.Headers = headers
	}
	return d
}

func validateDefinition(d Definition) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	switch apiclient.Method(d.Method) {
	case apiclient.MethodGet, apiclient.MethodPost:
	default:
		return fmt.Errorf("unsupported method %q for endpoint %q", d.Method, d.ID)
	}
	if d.BaseURL == "" {
		return fmt.Errorf("base_url is required for endpoint %q", d.ID)
	}
	if _, ok := decoderFor(d.Decoder); !ok {
		return fmt.Errorf("unknown decoder %q for endpoint %q", d.Decoder, d.ID)
	}
	return nil
}

// ByID returns the definition with the given id.
func (r *Registry) ByID(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.idx[id]
	return d, ok
}

// All returns every definition in file order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// IDs returns the sorted endpoint ids.
func (r *Registry) IDs() []string {
	all := r.All()
	ids := make([]string, 0, len(all))
	for _, d := range all {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}

// Endpoint converts the definition into a request descriptor. Params are
// ordered by key since config maps carry no order.
func (d Definition) Endpoint() (apiclient.Endpoint, error) {
	params, err := apiclient.ParamsFrom(d.Params)
	if err != nil {
		return apiclient.Endpoint{}, fmt.Errorf("endpoint %q params: %w", d.ID, err)
	}

	var headers map[string]string
	if len(d.Headers) > 0 {
		headers = make(map[string]string, len(d.Headers))
		for k, v := range d.Headers {
			headers[k] = v
		}
	}

	return apiclient.Endpoint{
		Method:  apiclient.Method(d.Method),
		BaseURL: d.BaseURL,
		Path:    d.Path,
		Headers: headers,
		Params:  params,
	}, nil
}

// Network pairs the endpoint with the configured decoder.
func (d Definition) Network() (apiclient.Network[any], error) {
	ep, err := d.Endpoint()
	if err != nil {
		return apiclient.Network[any]{}, err
	}
	dec, ok := decoderFor(d.Decoder)
	if !ok {
		return apiclient.Network[any]{}, fmt.Errorf("unknown decoder %q for endpoint %q", d.Decoder, d.ID)
	}
	return apiclient.Network[any]{Endpoint: ep, Decode: dec}, nil
}

func decoderFor(name string) (apiclient.Decoder[any], bool) {
	switch name {
	case DecoderJSON:
		return apiclient.JSONDecoder[any](), true
	case DecoderStrictJSON:
		return apiclient.StrictJSONDecoder[any](), true
	case DecoderRaw:
		return apiclient.Erase(apiclient.RawDecoder()), true
	case DecoderString:
		return apiclient.Erase(apiclient.StringDecoder()), true
	case DecoderHTMLMeta:
		return apiclient.Erase(htmlmeta.Decoder()), true
	default:
		return nil, false
	}
}
