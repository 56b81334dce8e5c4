package config

// DefaultBackendURL is used when no setting names a backend.
const DefaultBackendURL = "http://localhost:8000"

// backendURLKeys are the environment settings consulted, in order, for the backend base URL.
var backendURLKeys = []string{"BACKEND_URL", "NEXT_PUBLIC_BACKEND_URL"}

// Lookup returns the value of a named setting, or "" when it is unset.
type Lookup func(key string) string

// EnvLookup reads a setting from getenv first and falls back to the parsed .env values.
func EnvLookup(getenv func(string) string, dotenv map[string]string) Lookup {
	return func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// ResolveBackendURL picks the backend base URL. The first non-empty value wins:
// the CLI flag, BACKEND_URL, NEXT_PUBLIC_BACKEND_URL, the config file value,
// then DefaultBackendURL.
func ResolveBackendURL(flag string, lookup Lookup, fileValue string) string {
	if flag != "" {
		return flag
	}
	for _, key := range backendURLKeys {
		if v := lookup(key); v != "" {
			return v
		}
	}
	if fileValue != "" {
		return fileValue
	}
	return DefaultBackendURL
}
