package graph

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/registry"
)

func parseExpr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	e, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), diags.Error())
	return e
}

func testRegistry() *registry.Registry {
	reg := registry.New()
	reg.AddLayer("tcp", "host", "port")
	reg.AddLayer("tls", "host", "port")
	reg.AddLayer("h1", "url")
	return reg
}

func path(s string) model.Path {
	p, err := model.ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func TestBuildOrdersDependenciesFirst(t *testing.T) {
	reg := testRegistry()
	candidates := map[model.Path]model.Value{
		path("h1.url"):   model.LiteralValue(cty.StringVal("https://example.com:8443/")),
		path("tls.host"): model.ExprValue(parseExpr(t, "parse_url(current.h1.plan.url).host")),
		path("tls.port"): model.ExprValue(parseExpr(t, "parse_url(current.h1.plan.url).port_or_default")),
		path("tcp.host"): model.ExprValue(parseExpr(t, "current.tls.plan.host")),
		path("tcp.port"): model.ExprValue(parseExpr(t, "current.tls.plan.port")),
	}

	g, err := Build(context.Background(), reg, candidates, []model.Path{path("tcp.host"), path("tcp.port")})
	require.NoError(t, err)

	order := g.Order()
	assert.Len(t, order, 5)

	pos := make(map[model.Path]int, len(order))
	for i, p := range order {
		pos[p] = i
	}
	assert.Less(t, pos[path("h1.url")], pos[path("tls.host")])
	assert.Less(t, pos[path("h1.url")], pos[path("tls.port")])
	assert.Less(t, pos[path("tls.host")], pos[path("tcp.host")])
	assert.Less(t, pos[path("tls.port")], pos[path("tcp.port")])

	assert.Equal(t, []model.Path{path("h1.url")}, g.Dependencies(path("tls.host")))
	assert.Equal(t, []model.Path{path("tls.host")}, g.Dependencies(path("tcp.host")))
	assert.Empty(t, g.Dependencies(path("h1.url")))
}

func TestBuildIsLazy(t *testing.T) {
	reg := testRegistry()
	candidates := map[model.Path]model.Value{
		path("tcp.host"): model.LiteralValue(cty.StringVal("example.com")),
		// This candidate references a missing field, but it is never needed.
		path("tls.host"): model.ExprValue(parseExpr(t, "current.h1.plan.url")),
	}

	g, err := Build(context.Background(), reg, candidates, []model.Path{path("tcp.host")})
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, []model.Path{path("tcp.host")}, g.Order())
}

func TestBuildDeterministicOrder(t *testing.T) {
	reg := testRegistry()
	candidates := map[model.Path]model.Value{
		path("h1.url"):   model.LiteralValue(cty.StringVal("x")),
		path("tls.host"): model.ExprValue(parseExpr(t, "current.h1.plan.url")),
		path("tls.port"): model.ExprValue(parseExpr(t, "current.h1.plan.url")),
		path("tcp.host"): model.ExprValue(parseExpr(t, `"${current.tls.plan.host}:${current.tls.plan.port}"`)),
	}

	first, err := Build(context.Background(), reg, candidates, []model.Path{path("tcp.host")})
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		g, err := Build(context.Background(), reg, candidates, []model.Path{path("tcp.host")})
		require.NoError(t, err)
		assert.Equal(t, first.Order(), g.Order())
	}
}

func TestBuildDanglingReference(t *testing.T) {
	reg := testRegistry()

	t.Run("referenced field has no candidate", func(t *testing.T) {
		candidates := map[model.Path]model.Value{
			path("tls.host"): model.ExprValue(parseExpr(t, "current.h1.plan.url")),
		}
		_, err := Build(context.Background(), reg, candidates, []model.Path{path("tls.host")})
		var dangling *DanglingReferenceError
		require.ErrorAs(t, err, &dangling)
		assert.Equal(t, path("h1.url"), dangling.Path)
		require.NotNil(t, dangling.ReferencedBy)
		assert.Equal(t, path("tls.host"), *dangling.ReferencedBy)
	})

	t.Run("requested field has no candidate", func(t *testing.T) {
		_, err := Build(context.Background(), reg, nil, []model.Path{path("tcp.host")})
		var dangling *DanglingReferenceError
		require.ErrorAs(t, err, &dangling)
		assert.Equal(t, path("tcp.host"), dangling.Path)
		assert.Nil(t, dangling.ReferencedBy)
	})
}

func TestBuildCycleDetection(t *testing.T) {
	reg := testRegistry()

	t.Run("two-node cycle", func(t *testing.T) {
		candidates := map[model.Path]model.Value{
			path("tls.host"): model.ExprValue(parseExpr(t, "current.tcp.plan.host")),
			path("tcp.host"): model.ExprValue(parseExpr(t, "current.tls.plan.host")),
		}
		_, err := Build(context.Background(), reg, candidates, []model.Path{path("tcp.host")})
		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Contains(t, cyclic.Cycle, path("tcp.host"))
		assert.Contains(t, cyclic.Cycle, path("tls.host"))
		// The cycle closes on its first member.
		assert.Equal(t, cyclic.Cycle[0], cyclic.Cycle[len(cyclic.Cycle)-1])
	})

	t.Run("self reference", func(t *testing.T) {
		candidates := map[model.Path]model.Value{
			path("tls.port"): model.ExprValue(parseExpr(t, "current.tls.plan.port")),
		}
		_, err := Build(context.Background(), reg, candidates, []model.Path{path("tls.port")})
		var cyclic *CyclicDependencyError
		require.ErrorAs(t, err, &cyclic)
		assert.Equal(t, []model.Path{path("tls.port"), path("tls.port")}, cyclic.Cycle)
	})

	t.Run("cycle not reachable from request is ignored", func(t *testing.T) {
		candidates := map[model.Path]model.Value{
			path("tls.host"): model.ExprValue(parseExpr(t, "current.tcp.plan.host")),
			path("tcp.host"): model.ExprValue(parseExpr(t, "current.tls.plan.host")),
			path("tls.port"): model.LiteralValue(cty.NumberIntVal(443)),
		}
		g, err := Build(context.Background(), reg, candidates, []model.Path{path("tls.port")})
		require.NoError(t, err)
		assert.Equal(t, 1, g.Len())
	})
}
