package catalog

// Kind tags the variant of a Descriptor.
type Kind string

const (
	KindLive   Kind = "live"
	KindStatic Kind = "static"
)

// Kinds lists every variant in a stable order.
func Kinds() []Kind { return []Kind{KindLive, KindStatic} }

// ParseKind maps a query value onto a Kind. The empty string means "any".
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindLive, KindStatic:
		return Kind(s), true
	}
	return "", false
}

// Backend names the upstream API that serves a live model.
type Backend string

const (
	BackendHuggingFace Backend = "huggingface"
	BackendGroq        Backend = "groq"
	BackendGemini      Backend = "gemini"
)

// Backends lists every supported backend.
func Backends() []Backend {
	return []Backend{BackendHuggingFace, BackendGroq, BackendGemini}
}

func (b Backend) valid() bool {
	for _, k := range Backends() {
		if b == k {
			return true
		}
	}
	return false
}

// Base holds the fields shared by every descriptor.
type Base struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Provider      string   `json:"provider" yaml:"provider"`
	Description   string   `json:"description" yaml:"description"`
	ContextLength int      `json:"contextLength" yaml:"contextLength"`
	Tags          []string `json:"tags" yaml:"tags"`
}

// Descriptor is either a LiveModel or a StaticBenchmark. The interface is
// sealed; use Visit to branch on the variant.
type Descriptor interface {
	Common() Base
	Kind() Kind
	sealed()
}

// LiveModel can be queried through an upstream inference API.
type LiveModel struct {
	Base     `yaml:",inline"`
	// Upstream is the provider's own model reference, e.g. "bigcode/starcoder2-15b".
	Upstream string  `json:"upstreamModel" yaml:"upstream"`
	Backend  Backend `json:"backend" yaml:"backend"`
}

// StaticBenchmark only carries published scores and is never queried.
type StaticBenchmark struct {
	Base         `yaml:",inline"`
	BenchmarkURL string              `json:"benchmarkUrl,omitempty" yaml:"benchmarkUrl"`
	Scores       map[string]*float64 `json:"scores" yaml:"scores"`
}

func (m LiveModel) Common() Base { return m.Base }
func (m LiveModel) Kind() Kind   { return KindLive }
func (LiveModel) sealed()        {}

func (s StaticBenchmark) Common() Base { return s.Base }
func (s StaticBenchmark) Kind() Kind   { return KindStatic }
func (StaticBenchmark) sealed()        {}

// Visit calls exactly one of the callbacks depending on the variant of d.
// A new variant changes this signature, so every caller has to handle it.
func Visit[T any](d Descriptor, live func(LiveModel) T, static func(StaticBenchmark) T) T {
	switch v := d.(type) {
	case LiveModel:
		return live(v)
	case StaticBenchmark:
		return static(v)
	}
	panic("catalog: unknown descriptor variant")
}
