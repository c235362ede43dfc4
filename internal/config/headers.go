package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// headersFile is the on-disk shape of a header table:
//
//	headers:
//	  Authorization: "token ..."
//	  Accept: text/plain
type headersFile struct {
	Headers map[string]any `json:"headers" yaml:"headers"`
}

// LoadHeaders reads the header table from a YAML (.yaml, .yml) or JSONC
// (.json, .jsonc) file. An empty path yields an empty table.
func LoadHeaders(path string, log *slog.Logger) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var f headersFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported headers file extension: %s", ext)
	}

	return StringTable(f.Headers, log), nil
}

// StringTable keeps the string-valued entries of raw. Other values are
// skipped with a warning.
func StringTable(raw map[string]any, log *slog.Logger) map[string]string {
	out := make(map[string]string, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		s, ok := raw[k].(string)
		if !ok {
			log.Warn("ignoring non-string header value", "header", k, "type", fmt.Sprintf("%T", raw[k]))
			continue
		}
		out[k] = s
	}
	return out
}
