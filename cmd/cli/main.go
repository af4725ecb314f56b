package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/planlayer/internal/cli"
	"github.com/vk/planlayer/internal/ctxlog"
	"github.com/vk/planlayer/internal/hcl"
	"github.com/vk/planlayer/internal/model"
	"github.com/vk/planlayer/internal/resolver"
)

// main is the entrypoint for the planlayer binary.
func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(outW io.Writer, args []string) error {
	config, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := newLogger(config)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	doc, err := hcl.LoadFile(ctx, config.RulesPath)
	if err != nil {
		return err
	}

	plan, requested, err := buildRequest(config)
	if err != nil {
		return err
	}

	r := resolver.New(doc.Registry, nil)
	resolved, err := r.Resolve(ctx, doc.Rules, plan, requested)
	if err != nil {
		return err
	}

	return printResolved(outW, resolved)
}

// newLogger configures slog from the CLI's log flags.
func newLogger(config *cli.Config) *slog.Logger {
	var level slog.Level
	switch config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if config.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// buildRequest converts CLI input into a plan and requested field set.
func buildRequest(config *cli.Config) (model.Plan, []model.Path, error) {
	explicit := make(map[model.Path]cty.Value, len(config.Explicit))
	for key, raw := range config.Explicit {
		path, err := model.ParsePath(key)
		if err != nil {
			return model.Plan{}, nil, err
		}
		explicit[path] = parseExplicitValue(raw)
	}

	requested := make([]model.Path, 0, len(config.Fields))
	for _, f := range config.Fields {
		path, err := model.ParsePath(f)
		if err != nil {
			return model.Plan{}, nil, err
		}
		requested = append(requested, path)
	}

	plan := model.Plan{
		ActiveLayers: model.NewLayerSet(config.Layers...),
		Explicit:     explicit,
	}
	return plan, requested, nil
}

// parseExplicitValue interprets a --set value: JSON when it parses as JSON
// (numbers, bools, objects, lists), a plain string otherwise.
func parseExplicitValue(raw string) cty.Value {
	t, err := ctyjson.ImpliedType([]byte(raw))
	if err != nil {
		return cty.StringVal(raw)
	}
	v, err := ctyjson.Unmarshal([]byte(raw), t)
	if err != nil {
		return cty.StringVal(raw)
	}
	return v
}

// printResolved writes the resolved field map as a JSON object keyed by
// "layer.field".
func printResolved(outW io.Writer, resolved *model.ResolvedPlan) error {
	out := make(map[string]json.RawMessage, resolved.Len())
	for _, path := range resolved.Paths() {
		v, _ := resolved.Value(path)
		raw, err := ctyjson.Marshal(v, v.Type())
		if err != nil {
			return fmt.Errorf("encoding %q: %w", path, err)
		}
		out[path.String()] = raw
	}

	enc := json.NewEncoder(outW)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
