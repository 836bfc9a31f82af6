package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Referral  ReferralConfig  `yaml:"referral"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	SendGrid  SendGridConfig  `yaml:"sendgrid"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// ReferralConfig carries the hall's referral-procedure knobs. Defaults match
// the governing document; every value can be overridden per deployment.
type ReferralConfig struct {
	CutoffHour            int `yaml:"cutoff_hour"`             // requests after this hour roll to the next business day
	BlackoutDays          int `yaml:"blackout_days"`           // post QUIT/FIRED employer blackout
	SuspensionMonths      int `yaml:"suspension_months"`       // bidding suspension length
	RejectionWindowMonths int `yaml:"rejection_window_months"` // trailing window for counting bid rejections
	RejectionLimit        int `yaml:"rejection_limit"`         // rejections inside the window that trigger suspension
	ByNameLimit           int `yaml:"by_name_limit"`           // by-name dispatches before anti-collusion verification is required
	ByNameWindowDays      int `yaml:"by_name_window_days"`     // trailing window for the by-name count
	BidOpenHour           int `yaml:"bid_open_hour"`           // bidding opens the evening before start date
	BidOpenMinute         int `yaml:"bid_open_minute"`
	BidCloseHour          int `yaml:"bid_close_hour"` // bidding closes the morning of start date
	BidCloseMinute        int `yaml:"bid_close_minute"`
}

// SchedulerConfig contains cron schedule settings for the enforcement pass
type SchedulerConfig struct {
	ExpireReSigns     string `yaml:"expire_re_signs"`
	ExpireTimeLimits  string `yaml:"expire_time_limits"`
	ExpireExemptions  string `yaml:"expire_exemptions"`
	ExpireBlackouts   string `yaml:"expire_blackouts"`
	ExpireSuspensions string `yaml:"expire_suspensions"`
	ExpireRequests    string `yaml:"expire_requests"`
	BatchSize         int    `yaml:"batch_size"`
}

// SendGridConfig contains admin notification settings
type SendGridConfig struct {
	APIKey     string `yaml:"api_key"`
	FromEmail  string `yaml:"from_email"`
	FromName   string `yaml:"from_name"`
	AdminEmail string `yaml:"admin_email"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// SendGrid
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.SendGrid.APIKey = val
	}
	if val := os.Getenv("ADMIN_EMAIL"); val != "" {
		c.SendGrid.AdminEmail = val
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Referral procedure defaults
	if c.Referral.CutoffHour == 0 {
		c.Referral.CutoffHour = 15 // 3 PM
	}
	if c.Referral.BlackoutDays == 0 {
		c.Referral.BlackoutDays = 14
	}
	if c.Referral.SuspensionMonths == 0 {
		c.Referral.SuspensionMonths = 12
	}
	if c.Referral.RejectionWindowMonths == 0 {
		c.Referral.RejectionWindowMonths = 12
	}
	if c.Referral.RejectionLimit == 0 {
		c.Referral.RejectionLimit = 2
	}
	if c.Referral.ByNameLimit == 0 {
		c.Referral.ByNameLimit = 3
	}
	if c.Referral.ByNameWindowDays == 0 {
		c.Referral.ByNameWindowDays = 180
	}
	if c.Referral.BidOpenHour == 0 {
		c.Referral.BidOpenHour = 17
		c.Referral.BidOpenMinute = 30
	}
	if c.Referral.BidCloseHour == 0 {
		c.Referral.BidCloseHour = 7
	}

	// Enforcement schedule defaults: one early-morning pass, restrictions
	// cleared just before the morning referral so it sees fresh state.
	if c.Scheduler.ExpireReSigns == "" {
		c.Scheduler.ExpireReSigns = "0 0 5 * * *"
	}
	if c.Scheduler.ExpireTimeLimits == "" {
		c.Scheduler.ExpireTimeLimits = "0 5 5 * * *"
	}
	if c.Scheduler.ExpireExemptions == "" {
		c.Scheduler.ExpireExemptions = "0 10 5 * * *"
	}
	if c.Scheduler.ExpireBlackouts == "" {
		c.Scheduler.ExpireBlackouts = "0 15 5 * * *"
	}
	if c.Scheduler.ExpireSuspensions == "" {
		c.Scheduler.ExpireSuspensions = "0 20 5 * * *"
	}
	if c.Scheduler.ExpireRequests == "" {
		c.Scheduler.ExpireRequests = "0 25 5 * * *"
	}
	if c.Scheduler.BatchSize == 0 {
		c.Scheduler.BatchSize = 200
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
