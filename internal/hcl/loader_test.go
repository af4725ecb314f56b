package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/rules"
)

const validDocument = `
version = "1"
name    = "protocol-defaults"

layer "tcp" { fields = ["host", "port"] }
layer "tls" { fields = ["host", "port"] }
layer "h1"  { fields = ["url"] }

defaults {
  tcp {
    port = 80
  }
}

defaults {
  selector = ["tls", "h1"]
  tls {
    host = parse_url(current.h1.plan.url).host
  }
  tcp {
    port = 443
  }
}
`

func TestParseDocument(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(validDocument), "test.hcl")
	require.NoError(t, err)

	assert.Equal(t, "1", doc.Version)
	assert.Equal(t, "protocol-defaults", doc.Name)
	assert.Equal(t, []string{"h1", "tcp", "tls"}, doc.Registry.Layers())
	assert.Equal(t, []string{"host", "port"}, doc.Registry.Fields("tcp"))
	assert.Equal(t, 2, doc.Rules.Len())
}

func TestParsePreservesRuleOrder(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(validDocument), "test.hcl")
	require.NoError(t, err)

	// Both rules default tcp.port; the later one wins when both match.
	port := model.Path{Layer: "tcp", Field: "port"}

	matchingBoth := doc.Rules.Merge(model.Plan{ActiveLayers: model.NewLayerSet("tcp", "tls", "h1")})
	require.Contains(t, matchingBoth, port)
	require.False(t, matchingBoth[port].IsExpr())
	assert.Equal(t, "443", matchingBoth[port].Literal().AsBigFloat().String())

	matchingFirst := doc.Rules.Merge(model.Plan{ActiveLayers: model.NewLayerSet("tcp")})
	assert.Equal(t, "80", matchingFirst[port].Literal().AsBigFloat().String())
}

func TestParseClassifiesLiteralsAndExpressions(t *testing.T) {
	doc, err := Parse(context.Background(), []byte(validDocument), "test.hcl")
	require.NoError(t, err)

	candidates := doc.Rules.Merge(model.Plan{ActiveLayers: model.NewLayerSet("tcp", "tls", "h1")})

	assert.False(t, candidates[model.Path{Layer: "tcp", Field: "port"}].IsExpr())
	assert.True(t, candidates[model.Path{Layer: "tls", Field: "host"}].IsExpr())
}

func TestParseRejectsUnknownLayer(t *testing.T) {
	src := `
version = "1"
name    = "bad"

layer "tcp" { fields = ["host"] }

defaults {
  udp {
    host = "x"
  }
}
`
	_, err := Parse(context.Background(), []byte(src), "bad.hcl")
	var unknownLayer *rules.UnknownLayerError
	require.ErrorAs(t, err, &unknownLayer)
	assert.Equal(t, "udp", unknownLayer.Layer)
}

func TestParseRejectsUnknownField(t *testing.T) {
	src := `
version = "1"
name    = "bad"

layer "tcp" { fields = ["host"] }

defaults {
  tcp {
    ttl = 64
  }
}
`
	_, err := Parse(context.Background(), []byte(src), "bad.hcl")
	var unknownField *rules.UnknownFieldError
	require.ErrorAs(t, err, &unknownField)
	assert.Equal(t, model.Path{Layer: "tcp", Field: "ttl"}, unknownField.Path)
}

func TestParseRejectsUnknownSelectorLayer(t *testing.T) {
	src := `
version = "1"
name    = "bad"

layer "tcp" { fields = ["host"] }

defaults {
  selector = ["quic"]
  tcp {
    host = "x"
  }
}
`
	_, err := Parse(context.Background(), []byte(src), "bad.hcl")
	var unknownLayer *rules.UnknownLayerError
	require.ErrorAs(t, err, &unknownLayer)
	assert.Equal(t, "quic", unknownLayer.Layer)
}

func TestParseRejectsNestedOverlayBlocks(t *testing.T) {
	src := `
version = "1"
name    = "bad"

layer "http" { fields = ["headers.Host"] }

defaults {
  http {
    headers {
      Host = "example.com"
    }
  }
}
`
	_, err := Parse(context.Background(), []byte(src), "bad.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `nested "headers" block`)
	assert.Contains(t, err.Error(), "dotted attribute names")
}

func TestParseRejectsMalformedSource(t *testing.T) {
	_, err := Parse(context.Background(), []byte("version = "), "broken.hcl")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.hcl")
	require.NoError(t, os.WriteFile(path, []byte(validDocument), 0o644))

	doc, err := LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "protocol-defaults", doc.Name)

	_, err = LoadFile(context.Background(), filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}
