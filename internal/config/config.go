package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendFlowise = "flowise"
	BackendGemini  = "gemini"
	BackendOllama  = "ollama"

	DriverBun     = "bun"
	DriverSQLite3 = "sqlite3"

	DefaultImageAPIURL = "https://api.openai.com/v1/images/generations"
)

// Config holds all environmentally dependent settings. It is built once at startup
// and handed to constructors; nothing reads the environment after that.
type Config struct {
	HTTPAddr        string
	DatabasePath    string
	ArchiveDriver   string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Text generation
	TextBackend        string
	FlowiseAPIURL      string
	FlowiseBearerToken string
	TextTimeout        time.Duration
	GeminiAPIKey       string
	GeminiTextModel    string
	OllamaHost         string
	OllamaModel        string

	// Image generation
	ImageAPIURL       string
	ImageAPIKey       string
	ImageModel        string
	ImageSize         string
	ImagePromptSuffix string
	ImageTimeout      time.Duration
	ImageConcurrency  int
}

// bindings maps config keys to the environment variables that feed them, in priority order.
var bindings = map[string][]string{
	"http_addr":            {"HTTP_ADDR"},
	"database_path":        {"DATABASE_PATH"},
	"archive_driver":       {"ARCHIVE_DRIVER"},
	"log_level":            {"LOG_LEVEL"},
	"shutdown_timeout_sec": {"SHUTDOWN_TIMEOUT_SEC"},
	"text_backend":         {"TEXT_BACKEND"},
	"flowise_api_url":      {"FLOWISE_API_URL"},
	"flowise_bearer_token": {"FLOWISE_BEARER_TOKEN"},
	"text_timeout_sec":     {"TEXT_TIMEOUT_SEC"},
	"gemini_api_key":       {"GEMINI_API_KEY"},
	"gemini_text_model":    {"GEMINI_TEXT_MODEL"},
	"ollama_host":          {"OLLAMA_HOST"},
	"ollama_model":         {"OLLAMA_MODEL"},
	"image_api_url":        {"IMAGE_API_URL", "GEMINI_API_ENDPOINT"},
	"image_api_key":        {"IMAGE_API_KEY"},
	"image_model":          {"IMAGE_MODEL"},
	"image_size":           {"IMAGE_SIZE"},
	"image_prompt_suffix":  {"IMAGE_PROMPT_SUFFIX"},
	"image_timeout_sec":    {"IMAGE_TIMEOUT_SEC"},
	"image_concurrency":    {"IMAGE_CONCURRENCY"},
}

var defaults = map[string]any{
	"http_addr":            ":5001",
	"database_path":        "concepts.db",
	"archive_driver":       DriverBun,
	"log_level":            "info",
	"shutdown_timeout_sec": 10,
	"text_backend":         BackendFlowise,
	"text_timeout_sec":     90,
	"gemini_text_model":    "gemini-1.5-pro",
	"ollama_host":          "http://localhost:11434",
	"ollama_model":         "llama3",
	"image_size":           "1024x1024",
	"image_timeout_sec":    60,
	"image_concurrency":    2,
}

// NewViper returns a viper instance with defaults set and every key bound to its
// environment variables. Callers may bind CLI flags on top of it.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, envs := range bindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
	return v
}

// LoadDotEnv reads a .env file from the working directory when present.
func LoadDotEnv() {
	if err := godotenv.Load(); err == nil {
		log.Println("[Config] Loaded settings from .env")
	}
}

// Load builds a Config from v. Malformed numeric values fall back to their defaults.
func Load(v *viper.Viper) *Config {
	imageURL, imageKey := imageEndpoint(v)

	return &Config{
		HTTPAddr:        v.GetString("http_addr"),
		DatabasePath:    v.GetString("database_path"),
		ArchiveDriver:   strings.ToLower(v.GetString("archive_driver")),
		LogLevel:        strings.ToLower(v.GetString("log_level")),
		ShutdownTimeout: getSeconds(v, "shutdown_timeout_sec"),

		TextBackend:        strings.ToLower(v.GetString("text_backend")),
		FlowiseAPIURL:      v.GetString("flowise_api_url"),
		FlowiseBearerToken: v.GetString("flowise_bearer_token"),
		TextTimeout:        getSeconds(v, "text_timeout_sec"),
		GeminiAPIKey:       v.GetString("gemini_api_key"),
		GeminiTextModel:    v.GetString("gemini_text_model"),
		OllamaHost:         v.GetString("ollama_host"),
		OllamaModel:        v.GetString("ollama_model"),

		ImageAPIURL:       imageURL,
		ImageAPIKey:       imageKey,
		ImageModel:        v.GetString("image_model"),
		ImageSize:         v.GetString("image_size"),
		ImagePromptSuffix: v.GetString("image_prompt_suffix"),
		ImageTimeout:      getSeconds(v, "image_timeout_sec"),
		ImageConcurrency:  getInt(v, "image_concurrency"),
	}
}

// imageEndpoint resolves the image service URL and key. GEMINI_API_KEY only
// stands in for IMAGE_API_KEY when the endpoint was configured explicitly, so
// the Google key is never sent to the default endpoint.
func imageEndpoint(v *viper.Viper) (string, string) {
	url := strings.TrimSpace(v.GetString("image_api_url"))
	key := v.GetString("image_api_key")
	if url == "" {
		return DefaultImageAPIURL, key
	}
	if key == "" {
		key = v.GetString("gemini_api_key")
	}
	return url, key
}

// ValidateArchive checks the settings needed to open the archive.
func (c *Config) ValidateArchive() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	switch c.ArchiveDriver {
	case DriverBun, DriverSQLite3:
	default:
		return fmt.Errorf("ARCHIVE_DRIVER must be %q or %q, got %q", DriverBun, DriverSQLite3, c.ArchiveDriver)
	}
	return nil
}

// Validate ensures that everything required to serve generation requests is present.
func (c *Config) Validate() error {
	if err := c.ValidateArchive(); err != nil {
		return err
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}

	switch c.TextBackend {
	case BackendFlowise:
		if c.FlowiseAPIURL == "" {
			return fmt.Errorf("FLOWISE_API_URL is required when TEXT_BACKEND is %s", BackendFlowise)
		}
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when TEXT_BACKEND is %s", BackendGemini)
		}
	case BackendOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("OLLAMA_HOST is required when TEXT_BACKEND is %s", BackendOllama)
		}
	default:
		return fmt.Errorf("TEXT_BACKEND must be one of flowise, gemini, ollama, got %q", c.TextBackend)
	}

	if c.ImageAPIURL == "" {
		return fmt.Errorf("IMAGE_API_URL is required")
	}
	if c.TextTimeout <= 0 || c.ImageTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.ImageConcurrency < 1 {
		return fmt.Errorf("IMAGE_CONCURRENCY must be at least 1")
	}
	return nil
}

// Warnings lists settings that are missing but do not prevent startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.ImageAPIKey == "" {
		warnings = append(warnings, "IMAGE_API_KEY is not set; image requests will be sent unauthenticated")
	}
	if c.TextBackend == BackendFlowise && c.FlowiseBearerToken == "" {
		warnings = append(warnings, "FLOWISE_BEARER_TOKEN is not set; text requests will be sent without authorization")
	}
	return warnings
}

func getSeconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(getInt(v, key)) * time.Second
}

func getInt(v *viper.Viper, key string) int {
	fallback, _ := defaults[key].(int)
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("[Config] Warning: Invalid int for %s: %v. Using fallback %d", key, err, fallback)
		return fallback
	}
	return value
}
