package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/rhyrak/go-timetable/internal/scheduler"
)

const EnvPrefix = "TIMETABLE"

type Config struct {
	Data      DataConfig
	Scheduler SchedulerConfig
	Log       LogConfig
	Server    ServerConfig
}

// DataConfig points at the reference data and the export target.
type DataConfig struct {
	RoomsFile       string `validate:"required"`
	CoursesFile     string `validate:"required"`
	InstructorsFile string `validate:"required"`
	ExportFile      string `validate:"required"`
	ConflictsFile   string
	ReservedFile    string
	Delimiter       rune `validate:"required"`
}

type SchedulerConfig struct {
	Seed           int64
	MaxAttempts    int           `validate:"gt=0"`
	Strategy       int           `validate:"variant"`
	Workers        int           `validate:"gt=0"`
	LabBlockLength int           `validate:"gt=0"`
	TimeBudget     time.Duration `validate:"gte=0"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=console json"`
}

type ServerConfig struct {
	Port       int `validate:"gte=0,lte=65535"`
	StorageDir string
}

var validate = NewValidator()

// NewValidator returns a validator that knows the "variant" tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("variant", ValidVariant)
	return v
}

// ValidVariant accepts strategy variant indexes in [0, scheduler.NumVariants).
func ValidVariant(fl validator.FieldLevel) bool {
	n := fl.Field().Int()
	return n >= 0 && n < scheduler.NumVariants
}

// Generation returns the scheduler configuration for one Generate call.
func (c *Config) Generation() scheduler.Config {
	cfg := scheduler.NewDefaultConfig()
	cfg.RandomSeed = c.Scheduler.Seed
	cfg.MaxAttempts = c.Scheduler.MaxAttempts
	cfg.StrategyVariant = c.Scheduler.Strategy
	cfg.Workers = c.Scheduler.Workers
	cfg.LabBlockLength = c.Scheduler.LabBlockLength
	cfg.TimeBudget = c.Scheduler.TimeBudget
	return cfg
}

// Load reads an optional .env file, then TIMETABLE_* environment variables.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	delim := v.GetString("DATA_DELIMITER")
	if len([]rune(delim)) != 1 {
		return nil, fmt.Errorf("DATA_DELIMITER must be a single character, got %q", delim)
	}

	budget, err := parseDuration(v.GetString("TIME_BUDGET"))
	if err != nil {
		return nil, fmt.Errorf("TIME_BUDGET: %w", err)
	}

	cfg := &Config{
		Data: DataConfig{
			RoomsFile:       v.GetString("ROOMS_FILE"),
			CoursesFile:     v.GetString("COURSES_FILE"),
			InstructorsFile: v.GetString("INSTRUCTORS_FILE"),
			ExportFile:      v.GetString("EXPORT_FILE"),
			ConflictsFile:   v.GetString("CONFLICTS_FILE"),
			ReservedFile:    v.GetString("RESERVED_FILE"),
			Delimiter:       []rune(delim)[0],
		},
		Scheduler: SchedulerConfig{
			Seed:           v.GetInt64("SEED"),
			MaxAttempts:    v.GetInt("MAX_ATTEMPTS"),
			Strategy:       v.GetInt("STRATEGY"),
			Workers:        v.GetInt("WORKERS"),
			LabBlockLength: v.GetInt("LAB_BLOCK_LENGTH"),
			TimeBudget:     budget,
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Server: ServerConfig{
			Port:       v.GetInt("PORT"),
			StorageDir: v.GetString("STORAGE_DIR"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ROOMS_FILE", "./resources/classrooms.csv")
	v.SetDefault("COURSES_FILE", "./resources/courses.csv")
	v.SetDefault("INSTRUCTORS_FILE", "./resources/instructors.csv")
	v.SetDefault("EXPORT_FILE", "./resources/timetable.csv")
	v.SetDefault("CONFLICTS_FILE", "")
	v.SetDefault("RESERVED_FILE", "")
	v.SetDefault("DATA_DELIMITER", ",")

	v.SetDefault("SEED", time.Now().UnixNano())
	v.SetDefault("MAX_ATTEMPTS", scheduler.DefaultMaxAttempts)
	v.SetDefault("STRATEGY", 0)
	v.SetDefault("WORKERS", 1)
	v.SetDefault("LAB_BLOCK_LENGTH", scheduler.DefaultLabBlockLength)
	v.SetDefault("TIME_BUDGET", "0s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("PORT", 3001)
	v.SetDefault("STORAGE_DIR", "./db/generated")
}

func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
