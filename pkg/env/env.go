// Package env reads process settings that must be available before the
// typed config loads, such as the bootstrap log format.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Prefix namespaces every KrishiKarobar variable.
const Prefix = "KRISHI_"

// Get returns KRISHI_<key>, then the bare key, then fallback. Blank values
// count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}

// Bool is Get parsed with strconv.ParseBool. Unparseable values yield fallback.
func Bool(key string, fallback bool) bool {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return val
}
