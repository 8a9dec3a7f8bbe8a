package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the admin client.
type Config struct {
	APIBaseURL       string
	HTTPTimeout      time.Duration
	UploadsBaseURL   string
	ListenPort       int
	SessionDSN       string
	SessionSecret    string
	LogLevel         string
	LogFormat        string
	StatsConcurrency int
}

// DefaultEnvFile is the optional dotenv file read by Load.
const DefaultEnvFile = ".env"

// Load parses configuration values from the process environment, falling
// back to DefaultEnvFile for keys the environment does not set.
func Load() (Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile behaves like Load but reads the dotenv file at path. A missing
// file is not an error. Values already present in the environment win over
// the file.
func LoadFile(path string) (Config, error) {
	fileValues := map[string]string{}
	if path != "" {
		values, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileValues = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("lecture du fichier %s impossible: %w", path, err)
		}
	}

	lookup := func(key string) string {
		if value, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(value)
		}
		return strings.TrimSpace(fileValues[key])
	}
	return parse(lookup)
}

func parse(lookup func(string) string) (Config, error) {
	cfg := Config{
		APIBaseURL:       "http://localhost:8080/api",
		HTTPTimeout:      10 * time.Second,
		UploadsBaseURL:   "http://localhost:8080/uploads/presentations",
		ListenPort:       3000,
		SessionDSN:       "file:plateforme-session.db",
		LogLevel:         "info",
		LogFormat:        "json",
		StatsConcurrency: 4,
	}

	invalid := make([]string, 0, 2)

	if value := lookup("PLATEFORME_API_BASE_URL"); value != "" {
		if !isHTTPURL(value) {
			invalid = append(invalid, "PLATEFORME_API_BASE_URL")
		} else {
			cfg.APIBaseURL = strings.TrimRight(value, "/")
		}
	}

	if value := lookup("PLATEFORME_HTTP_TIMEOUT"); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "PLATEFORME_HTTP_TIMEOUT")
		} else {
			cfg.HTTPTimeout = timeout
		}
	}

	if value := lookup("PLATEFORME_UPLOADS_BASE_URL"); value != "" {
		if !isHTTPURL(value) {
			invalid = append(invalid, "PLATEFORME_UPLOADS_BASE_URL")
		} else {
			cfg.UploadsBaseURL = strings.TrimRight(value, "/")
		}
	}

	if value := lookup("PLATEFORME_LISTEN_PORT"); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PLATEFORME_LISTEN_PORT")
		} else {
			cfg.ListenPort = port
		}
	}

	if value := lookup("PLATEFORME_SESSION_DSN"); value != "" {
		cfg.SessionDSN = value
	}

	cfg.SessionSecret = lookup("PLATEFORME_SESSION_SECRET")

	if value := lookup("PLATEFORME_LOG_LEVEL"); value != "" {
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "warning", "error":
			cfg.LogLevel = strings.ToLower(value)
		default:
			invalid = append(invalid, "PLATEFORME_LOG_LEVEL")
		}
	}

	if value := lookup("PLATEFORME_LOG_FORMAT"); value != "" {
		switch strings.ToLower(value) {
		case "json", "text":
			cfg.LogFormat = strings.ToLower(value)
		default:
			invalid = append(invalid, "PLATEFORME_LOG_FORMAT")
		}
	}

	if value := lookup("PLATEFORME_STATS_CONCURRENCY"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "PLATEFORME_STATS_CONCURRENCY")
		} else {
			cfg.StatsConcurrency = limit
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("valeurs de variables d'environnement invalides: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func isHTTPURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
