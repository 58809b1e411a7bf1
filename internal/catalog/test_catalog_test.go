package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `
liveModels:
  - id: valid1
    name: Valid One
    provider: Acme
    contextLength: 4096
    upstream: acme/valid-one
  - id: valid2
    name: Valid Two
    provider: Acme
    upstream: acme/valid-two
    backend: groq
  - id: valid3
    name: Valid Three
    provider: Acme
    upstream: valid-three
    backend: gemini
staticBenchmarks:
  - id: static1
    name: Static One
    provider: Closed
    benchmarkUrl: https://example.com/bench
    scores:
      humaneval: 81.5
      mbpp: null
`

func mustParse(t *testing.T, data string) *Catalog {
	t.Helper()
	c, err := Parse([]byte(data))
	require.NoError(t, err)
	return c
}

func TestPartition_PreservesOrderInBothGroups(t *testing.T) {
	c := mustParse(t, fixture)
	valid, invalid := c.Partition([]string{"valid1", "bogus", "valid2", "nope"})
	assert.Equal(t, []string{"valid1", "valid2"}, valid)
	assert.Equal(t, []string{"bogus", "nope"}, invalid)
}

func TestPartition_EmptyInput(t *testing.T) {
	c := mustParse(t, fixture)
	valid, invalid := c.Partition(nil)
	assert.Empty(t, valid)
	assert.Empty(t, invalid)
}

func TestResolve(t *testing.T) {
	c := mustParse(t, fixture)

	d, ok := c.Resolve("valid1")
	require.True(t, ok)
	live, isLive := d.(LiveModel)
	require.True(t, isLive)
	assert.Equal(t, "acme/valid-one", live.Upstream)
	assert.Equal(t, BackendHuggingFace, live.Backend, "backend defaults to huggingface")
	assert.Equal(t, []string{}, live.Tags)

	d, ok = c.Resolve("static1")
	require.True(t, ok)
	st, isStatic := d.(StaticBenchmark)
	require.True(t, isStatic)
	require.NotNil(t, st.Scores["humaneval"])
	assert.InDelta(t, 81.5, *st.Scores["humaneval"], 1e-9)
	assert.Nil(t, st.Scores["mbpp"])

	_, ok = c.Resolve("missing")
	assert.False(t, ok)
}

func TestFilter_OffsetThenLimit(t *testing.T) {
	c := mustParse(t, fixture)
	ids := func(ds []Descriptor) []string {
		out := []string{}
		for _, d := range ds {
			out = append(out, d.Common().ID)
		}
		return out
	}

	assert.Equal(t, []string{"valid1", "valid2", "valid3"}, ids(c.Filter(KindLive, 0, 0)))
	assert.Equal(t, []string{"valid2"}, ids(c.Filter(KindLive, 1, 1)))
	assert.Equal(t, []string{"valid2", "valid3"}, ids(c.Filter(KindLive, 20, 1)))
	assert.Equal(t, []string{}, ids(c.Filter(KindLive, 20, 3)))
	assert.Equal(t, []string{"static1"}, ids(c.Filter(KindStatic, 500, -4)))
}

func TestFilter_CapsLimit(t *testing.T) {
	doc := "liveModels:\n"
	for i := 0; i < 150; i++ {
		doc += "  - {id: m" + strconv.Itoa(i) + ", upstream: x/m" + strconv.Itoa(i) + "}\n"
	}
	c := mustParse(t, doc)
	assert.Len(t, c.Filter(KindLive, 1000, 0), MaxLimit)
	assert.Len(t, c.Filter(KindLive, 0, 0), DefaultLimit)
	assert.Len(t, c.Filter(KindLive, 100, 120), 30)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"duplicate across kinds": "liveModels:\n  - {id: a, upstream: x/a}\nstaticBenchmarks:\n  - {id: a}\n",
		"duplicate live":         "liveModels:\n  - {id: a, upstream: x/a}\n  - {id: a, upstream: x/b}\n",
		"missing id":             "staticBenchmarks:\n  - {name: nameless}\n",
		"missing upstream":       "liveModels:\n  - {id: a}\n",
		"unknown backend":        "liveModels:\n  - {id: a, upstream: x/a, backend: carrier-pigeon}\n",
		"malformed yaml":         "liveModels: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog), "got %v", err)
		})
	}
}

func TestVisit_HandlesEveryKind(t *testing.T) {
	c := mustParse(t, fixture)
	seen := map[Kind]bool{}
	for _, k := range Kinds() {
		for _, d := range c.Filter(k, MaxLimit, 0) {
			got := Visit(d,
				func(LiveModel) Kind { return KindLive },
				func(StaticBenchmark) Kind { return KindStatic },
			)
			assert.Equal(t, d.Kind(), got)
			seen[got] = true
		}
	}
	for _, k := range Kinds() {
		assert.True(t, seen[k], "fixture should cover kind %s", k)
	}
}

func TestDefault_LoadsEmbeddedCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Greater(t, c.Len(KindLive), 0)
	assert.Greater(t, c.Len(KindStatic), 0)

	backends := map[Backend]bool{}
	for _, d := range c.Filter(KindLive, MaxLimit, 0) {
		backends[d.(LiveModel).Backend] = true
	}
	for _, b := range Backends() {
		assert.True(t, backends[b], "default catalog should exercise backend %s", b)
	}
}

func TestOpen_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	fromFile, err := Open(context.Background(), path, S3Config{})
	require.NoError(t, err)
	parsed := mustParse(t, fixture)

	if diff := cmp.Diff(parsed.Filter(KindLive, MaxLimit, 0), fromFile.Filter(KindLive, MaxLimit, 0)); diff != "" {
		t.Fatalf("live models differ (-parsed +file):\n%s", diff)
	}

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"), S3Config{})
	assert.Error(t, err)
}

func TestOpen_EmptyPathUsesDefault(t *testing.T) {
	c, err := Open(context.Background(), "  ", S3Config{})
	require.NoError(t, err)
	_, ok := c.Resolve("starcoder2-15b")
	assert.True(t, ok)
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://models/catalogs/prod.yaml")
	require.NoError(t, err)
	assert.Equal(t, "models", bucket)
	assert.Equal(t, "catalogs/prod.yaml", key)

	for _, bad := range []string{"s3://bucket-only", "s3:///key", "http://host/key"} {
		_, _, err := splitS3URI(bad)
		assert.Error(t, err, bad)
	}
}
