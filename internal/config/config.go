package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultGeminiBaseURL is the Gemini REST endpoint used when none is configured
const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
		EnableGRPC   bool          `yaml:"enable_grpc" default:"true"`
		AllowOrigins []string      `yaml:"allow_origins"`
	} `yaml:"server"`

	LLM struct {
		Provider    string        `yaml:"provider" default:"gemini"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gemini-2.5-flash"`
		BaseURL     string        `yaml:"base_url" default:"https://generativelanguage.googleapis.com/v1beta"`
		MaxTokens   int           `yaml:"max_tokens" default:"4096"`
		Temperature float32       `yaml:"temperature" default:"0.4"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
		MaxAttempts int           `yaml:"max_attempts" default:"3"`
		RetryDelay  time.Duration `yaml:"retry_delay" default:"1s"`
	} `yaml:"llm"`

	Scraper struct {
		Engine         string        `yaml:"engine" default:"static"`
		UserAgent      string        `yaml:"user_agent"`
		RequestTimeout time.Duration `yaml:"request_timeout" default:"30s"`
		HeadlessMode   bool          `yaml:"headless_mode" default:"true"`
		StealthMode    bool          `yaml:"stealth_mode" default:"true"`
		RateLimit      int           `yaml:"rate_limit" default:"30"` // requests per minute per domain
		// CaptchaDomainsFile persists hosts that challenged the headed engine
		CaptchaDomainsFile string `yaml:"captcha_domains_file"`
		Captcha            struct {
			APIKey          string        `yaml:"api_key"`
			Timeout         time.Duration `yaml:"timeout" default:"120s"`
			EnableAutoSolve bool          `yaml:"enable_auto_solve" default:"true"`
		} `yaml:"captcha"`
	} `yaml:"scraper"`

	Navigation struct {
		Debounce time.Duration `yaml:"debounce" default:"700ms"`
		PanelID  string        `yaml:"panel_id" default:"codementor-sidebar"`
		PanelURL string        `yaml:"panel_url"`
	} `yaml:"navigation"`

	Mentor struct {
		MaxHints           int           `yaml:"max_hints" default:"4"`
		HistoryTurns       int           `yaml:"history_turns" default:"10"`
		MaxExplainLines    int           `yaml:"max_explain_lines" default:"30"`
		StuckThreshold     time.Duration `yaml:"stuck_threshold" default:"30m"`
		StuckCheckSchedule string        `yaml:"stuck_check_schedule" default:"@every 1m"`
	} `yaml:"mentor"`

	Jobs struct {
		Workers   int           `yaml:"workers" default:"4"`
		QueueSize int           `yaml:"queue_size" default:"100"`
		Retention time.Duration `yaml:"retention" default:"24h"`
	} `yaml:"jobs"`

	Firecrawl struct {
		APIKey  string        `yaml:"api_key"`
		APIURL  string        `yaml:"api_url" default:"https://api.firecrawl.dev"`
		Timeout time.Duration `yaml:"timeout" default:"60s"`
		WaitFor int           `yaml:"wait_for" default:"1500"` // milliseconds
	} `yaml:"firecrawl"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	Storage struct {
		Backend string `yaml:"backend" default:"memory"` // memory or redis
	} `yaml:"storage"`

	Redis struct {
		URL       string        `yaml:"url" default:"redis://localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db" default:"0"`
		Timeout   time.Duration `yaml:"timeout" default:"5s"`
		KeyPrefix string        `yaml:"key_prefix" default:"codementor"`
	} `yaml:"redis"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	// Expand ${VAR} syntax
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	// Expand $VAR syntax (but avoid replacing ${VAR} that was already processed)
	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.EnableGRPC = true

	config.LLM.Provider = "gemini"
	config.LLM.Model = "gemini-2.5-flash"
	config.LLM.BaseURL = DefaultGeminiBaseURL
	config.LLM.MaxTokens = 4096
	config.LLM.Temperature = 0.4
	config.LLM.Timeout = 60 * time.Second
	config.LLM.MaxAttempts = 3
	config.LLM.RetryDelay = time.Second

	config.Scraper.Engine = "static"
	config.Scraper.RequestTimeout = 30 * time.Second
	config.Scraper.HeadlessMode = true
	config.Scraper.StealthMode = true
	config.Scraper.RateLimit = 30
	config.Scraper.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	config.Scraper.Captcha.Timeout = 120 * time.Second
	config.Scraper.Captcha.EnableAutoSolve = true

	config.Navigation.Debounce = 700 * time.Millisecond
	config.Navigation.PanelID = "codementor-sidebar"

	config.Mentor.MaxHints = 4
	config.Mentor.HistoryTurns = 10
	config.Mentor.MaxExplainLines = 30
	config.Mentor.StuckThreshold = 30 * time.Minute
	config.Mentor.StuckCheckSchedule = "@every 1m"

	config.Jobs.Workers = 4
	config.Jobs.QueueSize = 100
	config.Jobs.Retention = 24 * time.Hour

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Timeout = 60 * time.Second
	config.Firecrawl.WaitFor = 1500

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Storage.Backend = "memory"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second
	config.Redis.KeyPrefix = "codementor"

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if enableGRPC := os.Getenv("ENABLE_GRPC"); enableGRPC != "" {
		c.Server.EnableGRPC = enableGRPC == "true" || enableGRPC == "1"
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.Server.AllowOrigins = strings.Split(origins, ",")
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	// Provider-specific key names take effect only for their provider
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" && c.LLM.Provider == "gemini" {
		c.LLM.APIKey = apiKey
	}

	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" && c.LLM.Provider == "claude" {
		c.LLM.APIKey = apiKey
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		c.LLM.BaseURL = baseURL
	}

	if timeout := os.Getenv("LLM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.LLM.Timeout = d
		}
	}

	if attempts := os.Getenv("LLM_MAX_ATTEMPTS"); attempts != "" {
		if n, err := strconv.Atoi(attempts); err == nil {
			c.LLM.MaxAttempts = n
		}
	}

	if engine := os.Getenv("SCRAPER_ENGINE"); engine != "" {
		c.Scraper.Engine = engine
	}

	if headless := os.Getenv("SCRAPER_HEADLESS"); headless != "" {
		c.Scraper.HeadlessMode = headless == "true" || headless == "1"
	}

	if captchaAPIKey := os.Getenv("CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	// Also support 2CAPTCHA_API_KEY for compatibility
	if captchaAPIKey := os.Getenv("2CAPTCHA_API_KEY"); captchaAPIKey != "" {
		c.Scraper.Captcha.APIKey = captchaAPIKey
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" && c.Scraper.CaptchaDomainsFile == "" {
		c.Scraper.CaptchaDomainsFile = dataDir + "/captcha-domains.txt"
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
	}

	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}

	if debounce := os.Getenv("NAVIGATION_DEBOUNCE"); debounce != "" {
		if d, err := time.ParseDuration(debounce); err == nil {
			c.Navigation.Debounce = d
		}
	}

	if threshold := os.Getenv("STUCK_THRESHOLD"); threshold != "" {
		if d, err := time.ParseDuration(threshold); err == nil {
			c.Mentor.StuckThreshold = d
		}
	}

	if workers := os.Getenv("JOB_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Jobs.Workers = n
		}
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if backend := os.Getenv("STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if redisTimeout := os.Getenv("REDIS_TIMEOUT"); redisTimeout != "" {
		if timeout, err := time.ParseDuration(redisTimeout); err == nil {
			c.Redis.Timeout = timeout
		}
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]

		switch adapter.Type {
		case "file":
			if path := os.Getenv("LOG_FILE_PATH"); path != "" {
				if adapter.Options == nil {
					adapter.Options = make(map[string]interface{})
				}
				adapter.Options["file_path"] = path
			}
		case "zap":
			if dev := os.Getenv("LOG_ZAP_DEVELOPMENT"); dev != "" {
				if adapter.Options == nil {
					adapter.Options = make(map[string]interface{})
				}
				adapter.Options["development"] = dev == "true" || dev == "1"
			}
		}
	}
}
