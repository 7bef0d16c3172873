package config

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// Variants returns the ids of the built-in variants, sorted.
func Variants() []string {
	entries, err := defaultsFS.ReadDir("defaults")
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if name := e.Name(); strings.HasSuffix(name, ".yaml") {
			ids = append(ids, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(ids)
	return ids
}

// GetDefaultYAML returns the embedded default YAML for a variant.
func GetDefaultYAML(id string) []byte {
	data, err := defaultsFS.ReadFile(path.Join("defaults", id+".yaml"))
	if err != nil {
		return nil
	}
	return data
}
