package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/staff-ops/pkg/core/model"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	defaultHTTPAddr = ":8080"
)

// Blackout is a recurring day on which no shifts run, e.g. a public holiday
type Blackout struct {
	RRule  string `yaml:"rrule" validate:"required"`
	Reason string `yaml:"reason,omitempty"`
}

// Notifications configures the optional Gmail notifier
type Notifications struct {
	Enabled     bool   `yaml:"enabled"`
	GmailSender string `yaml:"gmailSender,omitempty" validate:"omitempty,email"`
}

// SeedUser is a user created at startup if no user has its subject yet
type SeedUser struct {
	Subject string             `yaml:"subject" validate:"required"`
	Name    string             `yaml:"name" validate:"required"`
	Email   string             `yaml:"email,omitempty" validate:"omitempty,email"`
	Role    model.Role         `yaml:"role" validate:"required,oneof=guest customer worker manager tester dev"`
	Tags    model.Capabilities `yaml:"tags,omitempty"`
}

// Config represents the application configuration
type Config struct {
	Storage       string        `yaml:"storage" validate:"required,oneof=memory postgres"`
	DatabaseURL   string        `yaml:"databaseURL,omitempty" validate:"required_if=Storage postgres"`
	HTTPAddr      string        `yaml:"httpAddr,omitempty"`
	Blackouts     []Blackout    `yaml:"blackouts,omitempty" validate:"dive"`
	Notifications Notifications `yaml:"notifications"`
	SeedUsers     []SeedUser    `yaml:"seedUsers,omitempty" validate:"dive"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// LoadWithEnv loads and validates staff_ops_config.<env>.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks blackout rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	for i, blackout := range cfg.Blackouts {
		if _, err := rrule.StrToROption(blackout.RRule); err != nil {
			return fmt.Errorf("invalid rrule in blackouts[%d]: %w", i, err)
		}
	}

	return nil
}

// BlackoutRules returns the raw recurrence rules of every blackout
func (c *Config) BlackoutRules() []string {
	rules := make([]string, len(c.Blackouts))
	for i, b := range c.Blackouts {
		rules[i] = b.RRule
	}
	return rules
}

// Seeds converts the configured seed users to user records
func (c *Config) Seeds() []model.User {
	users := make([]model.User, len(c.SeedUsers))
	for i, s := range c.SeedUsers {
		users[i] = model.User{Subject: s.Subject, Name: s.Name, Email: s.Email, Role: s.Role, Tags: s.Tags}
	}
	return users
}

// findConfigFile searches for the env's config file in the current directory and home directory
func findConfigFile(env string) (string, error) {
	configFileName := "staff_ops_config." + env + ".yaml"

	if _, err := os.Stat(configFileName); err == nil {
		return configFileName, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, configFileName)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", configFileName)
}
