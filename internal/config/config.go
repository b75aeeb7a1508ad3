package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cashflow/internal/model"
)

// FileName is the config file created by `cashflow init`.
const FileName = "cashflow.yaml"

var validate = validator.New()

// Config represents the top-level cashflow.yaml configuration.
type Config struct {
	Business BusinessConfig          `yaml:"business"`
	Forecast ForecastConfig          `yaml:"forecast"`
	Store    StoreConfig             `yaml:"store"`
	Logging  LoggingConfig           `yaml:"logging"`
	Metrics  MetricsConfig           `yaml:"metrics"`
	Schedule ScheduleConfig          `yaml:"schedule"`
	Entities map[string]EntityConfig `yaml:"entities,omitempty" validate:"dive"`
}

// BusinessConfig identifies the business.
type BusinessConfig struct {
	Name       string `yaml:"name" validate:"required"`
	EntityType string `yaml:"entity_type" default:"llc_single_member"`
}

// ForecastConfig holds engine defaults.
type ForecastConfig struct {
	HorizonDays    int    `yaml:"horizon_days" default:"90" validate:"min=1,max=730"`
	LookbackDays   int    `yaml:"lookback_days" default:"365" validate:"min=0"` // 0 means all history
	SignConvention string `yaml:"sign_convention" default:"income_positive" validate:"oneof=income_positive expense_positive"`
}

// StoreConfig selects the transaction store.
type StoreConfig struct {
	Driver string `yaml:"driver" default:"sqlite" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn" default:".cashflow/transactions.db" validate:"required"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level" default:"info"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// MetricsConfig controls metric export. An empty textfile disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// ScheduleConfig drives `cashflow watch`.
type ScheduleConfig struct {
	Cron      string   `yaml:"cron" default:"0 6 * * *" validate:"required"`
	OutputDir string   `yaml:"output_dir" default:"forecasts" validate:"required"`
	Entities  []string `yaml:"entities,omitempty"`
	// Commit versions each refresh in the project's git repository.
	Commit bool `yaml:"commit,omitempty"`
}

// EntityConfig holds per-entity forecast settings.
type EntityConfig struct {
	// Format is the importer format of this entity's statements.
	Format string `yaml:"format,omitempty"`
	// Balance is the current balance watch forecasts from.
	Balance string `yaml:"balance,omitempty" validate:"omitempty,numeric"`
	// Weekend multipliers default to 1.0 when absent; 0 means no weekend activity.
	WeekendIncome  *float64 `yaml:"weekend_income,omitempty" validate:"omitempty,gte=0"`
	WeekendExpense *float64 `yaml:"weekend_expense,omitempty" validate:"omitempty,gte=0"`
}

// Load reads a cashflow.yaml file from disk, fills defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("applying config defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, entityType string) *Config {
	cfg := &Config{}
	// Struct tags are static; defaults.Set cannot fail on them.
	_ = defaults.Set(cfg)
	cfg.Business.Name = businessName
	if entityType != "" {
		cfg.Business.EntityType = entityType
	}
	return cfg
}

// Validate checks field constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// SignConvention returns the configured input sign convention.
func (c *Config) SignConvention() (model.SignConvention, error) {
	return model.ParseSignConvention(c.Forecast.SignConvention)
}

// Multipliers returns the weekend multipliers for entity. Unset multipliers
// and unknown entities get 1.0.
func (c *Config) Multipliers(entity string) model.Multipliers {
	m := model.DefaultMultipliers()
	e := c.Entities[entity]
	if e.WeekendIncome != nil {
		m.WeekendIncome = *e.WeekendIncome
	}
	if e.WeekendExpense != nil {
		m.WeekendExpense = *e.WeekendExpense
	}
	return m
}

// Balance returns the configured current balance for entity, zero when unset.
func (c *Config) Balance(entity string) (decimal.Decimal, error) {
	e := c.Entities[entity]
	if e.Balance == "" {
		return decimal.Zero, nil
	}
	b, err := decimal.NewFromString(e.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("entity %s balance: %w", entity, err)
	}
	return b, nil
}

// Format returns the importer format for entity, "chase" when unset.
func (c *Config) Format(entity string) string {
	if f := c.Entities[entity].Format; f != "" {
		return f
	}
	return "chase"
}

// WatchEntities returns the entities `cashflow watch` refreshes: the schedule's
// explicit list, or every configured entity.
func (c *Config) WatchEntities() []string {
	if len(c.Schedule.Entities) > 0 {
		return c.Schedule.Entities
	}
	names := make([]string, 0, len(c.Entities))
	for name := range c.Entities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
