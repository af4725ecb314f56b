package expr

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// urlObjectType is the return type of parse_url.
var urlObjectType = cty.Object(map[string]cty.Type{
	"scheme":          cty.String,
	"host":            cty.String,
	"port":            cty.Number,
	"port_or_default": cty.Number,
	"path":            cty.String,
})

// schemeDefaultPorts backs port_or_default when the URL carries no explicit
// port.
var schemeDefaultPorts = map[string]int64{
	"http":  80,
	"https": 443,
	"ws":    80,
	"wss":   443,
}

// parseURLFunc parses a URL string into its components. "port" is null when
// the URL has no explicit port; "port_or_default" falls back to the scheme's
// well-known port.
var parseURLFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "url", Type: cty.String},
	},
	Type: function.StaticReturnType(urlObjectType),
	Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
		raw := args[0].AsString()
		u, err := url.Parse(raw)
		if err != nil {
			return cty.NilVal, fmt.Errorf("invalid URL %q: %w", raw, err)
		}

		port := cty.NullVal(cty.Number)
		portOrDefault := cty.NullVal(cty.Number)
		if p := u.Port(); p != "" {
			n, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return cty.NilVal, fmt.Errorf("invalid port in URL %q: %w", raw, err)
			}
			port = cty.NumberIntVal(n)
			portOrDefault = port
		} else if d, ok := schemeDefaultPorts[u.Scheme]; ok {
			portOrDefault = cty.NumberIntVal(d)
		} else {
			return cty.NilVal, fmt.Errorf("URL %q has no port and scheme %q has no default", raw, u.Scheme)
		}

		return cty.ObjectVal(map[string]cty.Value{
			"scheme":          cty.StringVal(u.Scheme),
			"host":            cty.StringVal(u.Hostname()),
			"port":            port,
			"port_or_default": portOrDefault,
			"path":            cty.StringVal(u.Path),
		}), nil
	},
})

// Functions returns the derivation function table exposed to expressions.
// All functions are read-only transforms over values already in the
// evaluation context; none of them introduce dependencies of their own.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"parse_url": parseURLFunc,
		"to_json":   stdlib.JSONEncodeFunc,
		"from_json": stdlib.JSONDecodeFunc,
		"length":    stdlib.LengthFunc,
		"strlen":    stdlib.StrlenFunc,
		"upper":     stdlib.UpperFunc,
		"lower":     stdlib.LowerFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"coalesce":  stdlib.CoalesceFunc,
	}
}
