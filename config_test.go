package main

import (
	"flag"
	"os"
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config, explicit market",
			cfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   100,
				MarketID:         "btc-updown-15m-1700000000",
			},
			wantErr: nil,
		},
		{
			name: "valid config, multi market",
			cfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   100,
				MarketCount:      5,
			},
			wantErr: nil,
		},
		{
			name: "missing database endpoint",
			cfg: Config{
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   100,
				MarketCount:      5,
			},
			wantErr: []string{"database endpoint cannot be an empty string"},
		},
		{
			name: "missing strategy filepath",
			cfg: Config{
				DBEndpoint:     "http://localhost:4001",
				InitialBalance: 100,
				MarketCount:    5,
			},
			wantErr: []string{"strategy filepath cannot be an empty string"},
		},
		{
			name: "non positive balance",
			cfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				MarketCount:      5,
			},
			wantErr: []string{"initial balance must be positive"},
		},
		{
			name: "neither market id nor market count",
			cfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   100,
			},
			wantErr: []string{"either a market id or a market count is required"},
		},
		{
			name: "everything missing",
			cfg:  Config{},
			wantErr: []string{
				"database endpoint cannot be an empty string",
				"strategy filepath cannot be an empty string",
				"initial balance must be positive",
				"either a market id or a market count is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestRegisterFlagUnsupportedType(t *testing.T) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	var cfg Config
	var markets []string
	err := cfg.registerFlag("markets", &markets, "unsupported slice flag")
	if err == nil {
		t.Fatal("expected an error for a slice flag, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported type") {
		t.Errorf("expected an unsupported type error, got %v", err)
	}

	// Ensure a nil pointer is rejected.
	err = cfg.registerFlag("nilflag", (*string)(nil), "nil pointer flag")
	if err == nil {
		t.Fatal("expected an error for a nil pointer, got nil")
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env",
			env: map[string]string{
				"dbendpoint": "http://localhost:4001",
				"strategy":   "/tmp/strategy.json",
				"balance":    "250.5",
				"market":     "btc-updown-15m-1700000000",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   250.5,
				MarketID:         "btc-updown-15m-1700000000",
			},
		},
		{
			name: "all from flags",
			env:  map[string]string{},
			args: []string{"cmd", "-dbendpoint=http://localhost:4001", "-strategy=/tmp/strategy.json",
				"-balance=100", "-marketcount=5", "-exitprice=55"},
			expectErr: false,
			expectCfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   100,
				MarketCount:      5,
				ExitPrice:        55,
			},
		},
		{
			name:      "missing everything",
			env:       map[string]string{},
			args:      []string{"cmd"},
			expectErr: true,
			expectInErr: []string{
				"database endpoint cannot be an empty string",
				"strategy filepath cannot be an empty string",
			},
		},
		{
			name: "flag overrides env",
			env: map[string]string{
				"dbendpoint": "http://localhost:4001",
				"strategy":   "/tmp/strategy.json",
				"balance":    "100",
				"market":     "btc-updown-15m-1700000000",
			},
			args:      []string{"cmd", "-balance=500"},
			expectErr: false,
			expectCfg: Config{
				DBEndpoint:       "http://localhost:4001",
				StrategyFilepath: "/tmp/strategy.json",
				InitialBalance:   500,
				MarketID:         "btc-updown-15m-1700000000",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "")

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if cfg.DBEndpoint != tt.expectCfg.DBEndpoint {
					t.Errorf("DBEndpoint: got %v, want %v", cfg.DBEndpoint, tt.expectCfg.DBEndpoint)
				}
				if cfg.StrategyFilepath != tt.expectCfg.StrategyFilepath {
					t.Errorf("StrategyFilepath: got %v, want %v", cfg.StrategyFilepath, tt.expectCfg.StrategyFilepath)
				}
				if cfg.InitialBalance != tt.expectCfg.InitialBalance {
					t.Errorf("InitialBalance: got %v, want %v", cfg.InitialBalance, tt.expectCfg.InitialBalance)
				}
				if cfg.MarketID != tt.expectCfg.MarketID {
					t.Errorf("MarketID: got %v, want %v", cfg.MarketID, tt.expectCfg.MarketID)
				}
				if cfg.MarketCount != tt.expectCfg.MarketCount {
					t.Errorf("MarketCount: got %v, want %v", cfg.MarketCount, tt.expectCfg.MarketCount)
				}
				if cfg.ExitPrice != tt.expectCfg.ExitPrice {
					t.Errorf("ExitPrice: got %v, want %v", cfg.ExitPrice, tt.expectCfg.ExitPrice)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
