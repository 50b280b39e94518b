package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/blureserve/seat-reservation/internal/utils"
)

// Store drivers.
const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // "mysql" or "memory"
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing
	SeatCapacity   int    // number of bookable seats
	SlotRate       int64  // charge per seat per slot
	DemoSeed       bool   // seed demo employees into the memory store
}

// Load reads an optional .env file and then the environment.  Required
// variables missing or malformed are reported together in one error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	var r reader
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		StoreDriver:    strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     envInt("BCRYPT_COST", utils.DefaultBcryptCost),
		SeatCapacity:   envInt("SEAT_CAPACITY", 100),
		SlotRate:       int64(envInt("SLOT_RATE", 100)),
		DemoSeed:       envBool("DEMO_SEED", false),
	}

	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = r.must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
		cfg.DBHost = r.must("DB_HOST")
		cfg.DBPort = r.must("DB_PORT")
		cfg.DBName = r.must("DB_NAME")
	case DriverMemory:
	default:
		r.errs = append(r.errs, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}
	if cfg.SeatCapacity < 1 {
		r.errs = append(r.errs, fmt.Errorf("SEAT_CAPACITY must be positive, got %d", cfg.SeatCapacity))
	}
	if err := utils.CheckBcryptCost(cfg.BcryptCost); err != nil {
		r.errs = append(r.errs, fmt.Errorf("BCRYPT_COST: %w", err))
	}
	if cfg.SlotRate < 0 {
		r.errs = append(r.errs, fmt.Errorf("SLOT_RATE must not be negative, got %d", cfg.SlotRate))
	}
	return cfg, errors.Join(r.errs...)
}

// reader collects errors for required variables.
type reader struct {
	errs []error
}

// must retrieves the value of a required environment variable.
func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, fmt.Errorf("missing required env var: %s", key))
	}
	return v
}

// mustInt is like must() but converts the value into an integer.
func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid int for %s: %q", key, s))
	}
	return n
}
