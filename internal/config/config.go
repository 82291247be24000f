package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/civic-digest/internal/core/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	LogLevel  string
	LogFormat string

	Profile   string
	InputDir  string
	OutputDir string

	LLMProvider    string
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration
	CallDelay      time.Duration

	RetryMaxAttempts    int
	BreakerEnabled      bool
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
	SimilarityThreshold float64
	ContactOCREnabled   bool
	ContactOCRLanguages []string
	ContactOCRScale     float64
	StripSymbols        bool
	CrawlerCommand      string
	CrawlerArgs         []string
	CrawlerDir          string
	CrawlMaxPages       int
	CrawlManifest       string
	MetricsTextfile     string
	InventoryXLSX       string
	SettingsPath        string
	Settings            Settings
}

// Settings is the optional YAML overlay named by DIGEST_SETTINGS. It
// replaces the built-in tables of a profile.
type Settings struct {
	Profiles map[string]ProfileSettings `yaml:"profiles"`
}

type ProfileSettings struct {
	Taxonomy         *domain.Taxonomy         `yaml:"taxonomy"`
	Departments      []domain.DepartmentGroup `yaml:"departments"`
	Defaults         *domain.Defaults         `yaml:"defaults"`
	DefaultSourceURL string                   `yaml:"default_source_url"`
	Prompts          PromptPaths              `yaml:"prompts"`
}

type PromptPaths struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:  mustEnv("LOG_LEVEL", "info"),
		LogFormat: mustEnv("LOG_FORMAT", "json"),

		Profile:   mustEnv("DIGEST_PROFILE", domain.ProfilePress),
		InputDir:  mustEnv("INPUT_DIR", "./data/pdfs"),
		OutputDir: mustEnv("OUTPUT_DIR", "./data/markdown"),

		LLMProvider:    strings.ToLower(mustEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMBaseURL:     mustEnv("LLM_BASE_URL", ""),
		LLMAPIKey:      mustEnv("LLM_API_KEY", os.Getenv("OPENAI_API_KEY")),
		LLMModel:       mustEnv("LLM_MODEL", ""),
		LLMMaxTokens:   mustEnvInt("LLM_MAX_TOKENS", 1500),
		LLMTemperature: mustEnvFloat("LLM_TEMPERATURE", 0.3),
		LLMTimeout:     mustEnvDuration("LLM_TIMEOUT", 120*time.Second),
		CallDelay:      mustEnvDuration("LLM_CALL_DELAY", time.Second),

		RetryMaxAttempts:    mustEnvInt("LLM_RETRY_MAX_ATTEMPTS", 1),
		BreakerEnabled:      mustEnvBool("LLM_BREAKER_ENABLED", true),
		BreakerFailureRatio: mustEnvFloat("LLM_BREAKER_FAILURE_RATIO", 0.6),
		BreakerOpenTimeout:  mustEnvDuration("LLM_BREAKER_OPEN_TIMEOUT", 60*time.Second),
		SimilarityThreshold: mustEnvFloat("DEDUP_SIMILARITY_THRESHOLD", 0.82),

		ContactOCREnabled:   mustEnvBool("CONTACT_OCR_ENABLED", true),
		ContactOCRLanguages: mustEnvList("CONTACT_OCR_LANGUAGES", []string{"kor", "eng"}),
		ContactOCRScale:     mustEnvFloat("CONTACT_OCR_SCALE", 3.0),
		StripSymbols:        mustEnvBool("EXTRACT_STRIP_SYMBOLS", false),

		CrawlerCommand:  mustEnv("CRAWLER_COMMAND", ""),
		CrawlerArgs:     strings.Fields(mustEnv("CRAWLER_ARGS", "")),
		CrawlerDir:      mustEnv("CRAWLER_DIR", ""),
		CrawlMaxPages:   mustEnvInt("CRAWL_MAX_PAGES", 5),
		CrawlManifest:   mustEnv("CRAWL_MANIFEST", "./data/pdfs/manifest.yaml"),
		MetricsTextfile: mustEnv("METRICS_TEXTFILE", ""),
		InventoryXLSX:   mustEnv("INVENTORY_XLSX", ""),
		SettingsPath:    mustEnv("DIGEST_SETTINGS", ""),
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModel(cfg.LLMProvider)
	}
	if cfg.SettingsPath != "" {
		settings, err := LoadSettings(cfg.SettingsPath)
		if err != nil {
			return cfg, err
		}
		cfg.Settings = settings
	}
	return cfg, nil
}

func defaultModel(provider string) string {
	if provider == ProviderOllama {
		return "llama3.1:8b"
	}
	return "gpt-4o-mini"
}

func LoadSettings(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, domain.WrapError(domain.ErrConfig, "read settings", err)
	}
	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, domain.WrapError(domain.ErrConfig, "decode settings", err)
	}
	return settings, nil
}

// Validate rejects configurations that would fail every document.
func (c Config) Validate() error {
	var problems []error
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.LLMAPIKey == "" {
			problems = append(problems, errors.New("LLM_API_KEY is required for the openai provider"))
		}
	case ProviderOllama:
	default:
		problems = append(problems, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	if _, err := c.DocumentProfile(); err != nil {
		problems = append(problems, err)
	}
	if info, err := os.Stat(c.InputDir); err != nil || !info.IsDir() {
		problems = append(problems, fmt.Errorf("input directory %q does not exist", c.InputDir))
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		problems = append(problems, fmt.Errorf("DEDUP_SIMILARITY_THRESHOLD must be in (0,1], got %v", c.SimilarityThreshold))
	}
	if len(problems) > 0 {
		return domain.WrapError(domain.ErrConfig, "validate config", errors.Join(problems...))
	}
	return nil
}

// DocumentProfile returns the selected profile with the settings overlay
// applied.
func (c Config) DocumentProfile() (domain.Profile, error) {
	var profile domain.Profile
	switch c.Profile {
	case domain.ProfilePress:
		profile = domain.PressProfile()
	case domain.ProfilePlans:
		profile = domain.PlansProfile()
	default:
		return domain.Profile{}, domain.WrapError(domain.ErrConfig, "select profile", fmt.Errorf("unknown profile %q", c.Profile))
	}

	overlay, ok := c.Settings.Profiles[c.Profile]
	if !ok {
		return profile, nil
	}
	if overlay.Taxonomy != nil {
		if len(overlay.Taxonomy.Tags) == 0 {
			return domain.Profile{}, domain.WrapError(domain.ErrConfig, "apply settings", errors.New("taxonomy needs at least one tag"))
		}
		profile.Taxonomy = *overlay.Taxonomy
	}
	if len(overlay.Departments) > 0 {
		profile.Departments = overlay.Departments
	}
	if overlay.Defaults != nil {
		profile.Defaults = *overlay.Defaults
	}
	if overlay.DefaultSourceURL != "" {
		profile.DefaultSourceURL = overlay.DefaultSourceURL
	}
	return profile, nil
}

func (c Config) PromptPaths() PromptPaths {
	return c.Settings.Profiles[c.Profile].Prompts
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
