package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fedichess/fedichess-go/internal/config"
)

// EnvTrackers holds the comma-separated WebSocket tracker URLs the bridge
// uses for peer discovery.
const EnvTrackers = "P2P_TRACKERS"

// DefaultInterpreters maps script extensions to the interpreter that runs them.
var DefaultInterpreters = map[string]string{
	".js":  "node",
	".mjs": "node",
	".cjs": "node",
	".py":  "python3",
	".sh":  "sh",
}

// Command represents the bridge process to execute.
type Command struct {
	// Name is the program to run: the interpreter for scripts, the bridge
	// path itself for native executables.
	Name string

	// Args are the command line arguments.
	Args []string

	// Env are the environment variables.
	Env []string

	// Dir is the working directory, empty to inherit.
	Dir string
}

// BuildCommand constructs the command that launches the bridge.
func BuildCommand(options *config.Options) (*Command, error) {
	if options.BridgePath == "" {
		return nil, fmt.Errorf("bridge path is empty")
	}

	cmd := &Command{
		Name: options.BridgePath,
		Env:  BuildEnvironment(options),
		Dir:  options.Cwd,
	}

	if interpreter, ok := Interpreter(options.BridgePath, options.Interpreters); ok {
		cmd.Name = interpreter
		cmd.Args = []string{options.BridgePath}
	}

	return cmd, nil
}

// Interpreter returns the interpreter for path based on its extension.
// Overrides take precedence over DefaultInterpreters; an empty override
// value disables the default for that extension.
func Interpreter(path string, overrides map[string]string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}

	if interpreter, ok := overrides[ext]; ok {
		return interpreter, interpreter != ""
	}

	interpreter, ok := DefaultInterpreters[ext]

	return interpreter, ok
}

// IsScript reports whether path is run through an interpreter.
func IsScript(path string, overrides map[string]string) bool {
	_, ok := Interpreter(path, overrides)

	return ok
}

// BuildEnvironment returns the parent environment with options.Env appended
// in key order.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()

	keys := make([]string, 0, len(options.Env))
	for k := range options.Env {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	for _, k := range keys {
		env = append(env, k+"="+options.Env[k])
	}

	return env
}
