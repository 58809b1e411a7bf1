package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid catalog")

type document struct {
	LiveModels       []LiveModel       `yaml:"liveModels"`
	StaticBenchmarks []StaticBenchmark `yaml:"staticBenchmarks"`
}

// Parse decodes a YAML catalog and validates it.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return build(doc)
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Open loads the catalog from path. An empty path selects the built-in
// catalog, an s3:// URI is fetched through s3, anything else is read from disk.
func Open(ctx context.Context, path string, s3 S3Config) (*Catalog, error) {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return Default()
	case strings.HasPrefix(path, "s3://"):
		data, err := fetchS3(ctx, path, s3)
		if err != nil {
			return nil, err
		}
		return Parse(data)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		return Parse(data)
	}
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{byID: map[string]Descriptor{}}
	add := func(d Descriptor) error {
		b := d.Common()
		id := strings.TrimSpace(b.ID)
		if id == "" {
			return fmt.Errorf("%w: %s entry without id", ErrInvalidCatalog, d.Kind())
		}
		if id != b.ID {
			return fmt.Errorf("%w: id %q has surrounding whitespace", ErrInvalidCatalog, b.ID)
		}
		if _, dup := c.byID[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, id)
		}
		c.byID[id] = d
		return nil
	}

	for _, m := range doc.LiveModels {
		if m.Backend == "" {
			m.Backend = BackendHuggingFace
		}
		if !m.Backend.valid() {
			return nil, fmt.Errorf("%w: model %q has unknown backend %q", ErrInvalidCatalog, m.ID, m.Backend)
		}
		if strings.TrimSpace(m.Upstream) == "" {
			return nil, fmt.Errorf("%w: live model %q has no upstream reference", ErrInvalidCatalog, m.ID)
		}
		if m.Tags == nil {
			m.Tags = []string{}
		}
		if err := add(m); err != nil {
			return nil, err
		}
		c.live = append(c.live, m)
	}
	for _, s := range doc.StaticBenchmarks {
		if s.Scores == nil {
			s.Scores = map[string]*float64{}
		}
		if s.Tags == nil {
			s.Tags = []string{}
		}
		if err := add(s); err != nil {
			return nil, err
		}
		c.static = append(c.static, s)
	}
	return c, nil
}
