// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config holds the validated command-line input.
type Config struct {
	RulesPath string
	Layers    []string
	Explicit  map[string]string
	Fields    []string
	LogFormat string
	LogLevel  string
}

// repeatable collects a flag given multiple times.
type repeatable []string

func (r *repeatable) String() string { return strings.Join(*r, ",") }

func (r *repeatable) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("planlayer", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
planlayer - resolves a layered protocol plan's defaults.

Usage:
  planlayer [options] RULES_PATH

Arguments:
  RULES_PATH
    Path to a .hcl rule document.

Options:
`)
		flagSet.PrintDefaults()
	}

	rulesFlag := flagSet.String("rules", "", "Path to the rule document.")
	layersFlag := flagSet.String("layers", "", "Comma-separated active layer names.")
	var setFlags repeatable
	flagSet.Var(&setFlags, "set", "Explicit field value as layer.field=value. Repeatable.")
	var fieldFlags repeatable
	flagSet.Var(&fieldFlags, "field", "Field to resolve as layer.field. Repeatable.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	path := *rulesFlag
	if path == "" && flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	if path == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	var layers []string
	for _, name := range strings.Split(*layersFlag, ",") {
		if name = strings.TrimSpace(name); name != "" {
			layers = append(layers, name)
		}
	}
	if len(layers) == 0 {
		return nil, false, &ExitError{Code: 2, Message: "at least one active layer is required (--layers)"}
	}

	if len(fieldFlags) == 0 {
		return nil, false, &ExitError{Code: 2, Message: "at least one field to resolve is required (--field)"}
	}

	explicit := make(map[string]string, len(setFlags))
	for _, kv := range setFlags {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid --set %q: expected layer.field=value", kv)}
		}
		explicit[key] = value
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	return &Config{
		RulesPath: path,
		Layers:    layers,
		Explicit:  explicit,
		Fields:    fieldFlags,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	}, false, nil
}
