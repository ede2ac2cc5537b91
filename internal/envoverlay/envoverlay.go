// Package envoverlay assembles the environment the schema is evaluated in.
package envoverlay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"kconfgen/internal/config"
)

const malformedPair = "--env arguments must each contain =. To unset an environment variable, use 'ENV='"

// Inputs lists the layers from lowest to highest precedence.
type Inputs struct {
	// Inherited is the starting environment, usually os.Environ().
	Inherited []string
	Project   map[string]string
	EnvFile   string
	Pairs     []string
}

// Build merges the layers into one map. Later layers win.
func Build(in Inputs) (map[string]string, error) {
	pairs, err := ParsePairs(in.Pairs)
	if err != nil {
		return nil, err
	}
	env := make(map[string]string, len(in.Inherited))
	for _, kv := range in.Inherited {
		if name, value, ok := strings.Cut(kv, "="); ok && name != "" {
			env[name] = value
		}
	}
	for name, value := range in.Project {
		env[name] = value
	}
	if in.EnvFile != "" {
		fromFile, err := LoadFile(in.EnvFile)
		if err != nil {
			return nil, err
		}
		for name, value := range fromFile {
			env[name] = value
		}
	}
	for _, p := range pairs {
		env[p[0]] = p[1]
	}
	return env, nil
}

// ParsePairs splits NAME=VALUE arguments. `NAME=` sets an empty value.
func ParsePairs(raw []string) ([][2]string, error) {
	out := make([][2]string, 0, len(raw))
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok || name == "" {
			return nil, &config.Error{Kind: config.KindMalformedEnv, Msg: fmt.Sprintf("%s (got %q)", malformedPair, r)}
		}
		out = append(out, [2]string{name, value})
	}
	return out, nil
}

// LoadFile reads a JSON object of variables. Strings, numbers and booleans
// are accepted; nested values are rejected.
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &config.Error{Kind: config.KindMalformedEnv, Path: path, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &config.Error{Kind: config.KindMalformedEnv, Path: path, Msg: "env file must contain a JSON object", Err: err}
	}
	out := make(map[string]string, len(raw))
	for name, v := range raw {
		switch val := v.(type) {
		case string:
			out[name] = val
		case json.Number:
			out[name] = val.String()
		case bool:
			out[name] = strconv.FormatBool(val)
		case nil:
			out[name] = ""
		default:
			return nil, &config.Error{Kind: config.KindMalformedEnv, Path: path, Msg: fmt.Sprintf("variable %q must be a string, number or boolean", name)}
		}
	}
	return out, nil
}
