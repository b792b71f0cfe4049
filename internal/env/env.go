package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	valInt, err := strconv.Atoi(val)

	if err != nil {
		return fallback
	}
	return valInt
}

func GetDuration(key string, fallback time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

// GetList reads a comma separated value. Empty entries are dropped.
func GetList(key string, fallback []string) []string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
