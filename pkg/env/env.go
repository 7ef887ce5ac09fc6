// Package env reads raw environment variables for the handful of knobs that
// must work before config.Load runs, such as LOG_FORMAT and PORT.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
// An empty value counts as unset so `LOG_FORMAT=` does not disable the
// default format.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
