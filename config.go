package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the configuration struct for the service.
type Config struct {
	// DBEndpoint represents the database connection endpoint.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string
	// GammaURL overrides the market metadata api endpoint.
	GammaURL string
	// FeedURL overrides the continuous asset feed endpoint.
	FeedURL string
	// StrategyFilepath is the filepath to the strategy definition.
	StrategyFilepath string
	// InitialBalance is the starting balance for the backtest.
	InitialBalance float64
	// MarketID runs the backtest against one explicit market.
	MarketID string
	// MarketCount bounds the market set in multi market mode.
	MarketCount int
	// ExitPrice overrides the strategy's exit price in cents, zero for
	// no override.
	ExitPrice int
	// CatalogRefreshMinutes is the completed market catalog refresh
	// interval.
	CatalogRefreshMinutes int

	registeredFlags map[string]bool
}

// Validate asserts the config has sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.DBEndpoint == "" {
		errs = errors.Join(errs, fmt.Errorf("database endpoint cannot be an empty string"))
	}
	if cfg.StrategyFilepath == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy filepath cannot be an empty string"))
	}
	if cfg.InitialBalance <= 0 {
		errs = errors.Join(errs, fmt.Errorf("initial balance must be positive"))
	}
	if cfg.MarketID == "" && cfg.MarketCount <= 0 {
		errs = errors.Join(errs, fmt.Errorf("either a market id or a market count is required"))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	err = cfg.registerFlag("dbendpoint", &cfg.DBEndpoint, "the database connection endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbuser", &cfg.DBUser, "the database user")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("dbpass", &cfg.DBPass, "the database user pass")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("gammaurl", &cfg.GammaURL, "the market metadata api endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("feedurl", &cfg.FeedURL, "the continuous asset feed endpoint")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("strategy", &cfg.StrategyFilepath, "the strategy definition filepath")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("balance", &cfg.InitialBalance, "the initial balance for the backtest")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("market", &cfg.MarketID, "the explicit market to backtest")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("marketcount", &cfg.MarketCount, "the market count for multi market backtests")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("exitprice", &cfg.ExitPrice, "the exit price override in cents")
	if err != nil {
		return err
	}
	err = cfg.registerFlag("catalogrefresh", &cfg.CatalogRefreshMinutes, "the market catalog refresh interval in minutes")
	if err != nil {
		return err
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
