package config

import (
	"strings"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	keibaStatsName               = "keiba-stats"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	testAppName                  = "test-app"
	testDataDirVar               = "TEST_KEIBA_DATA_DIR"
	ticketsValidationError       = "Tickets"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != keibaStatsName {
		t.Errorf("expected app name '%s', got '%s'", keibaStatsName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Parser.FloorYear != 1954 {
		t.Errorf("expected floor year 1954, got %d", cfg.Parser.FloorYear)
	}

	if len(cfg.Stats.Tickets) != 7 {
		t.Errorf("expected 7 default tickets, got %d", len(cfg.Stats.Tickets))
	}

	if cfg.Calculator.WarnThreshold != 100 {
		t.Errorf("expected warn threshold 100, got %d", cfg.Calculator.WarnThreshold)
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("KEIBA_APP_NAME", testAppName)
	t.Setenv("KEIBA_STATS_RECENT_RACES", "50")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}

	if cfg.Stats.RecentRaces != 50 {
		t.Errorf("expected recent races 50 from environment, got %d", cfg.Stats.RecentRaces)
	}
}

// TestLoadConfigExpansion tests ${VAR} expansion inside the YAML file
func TestLoadConfigExpansion(t *testing.T) {
	t.Setenv(testDataDirVar, "/var/lib/keiba")

	cfg, err := LoadWithDefaults(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.Storage.Path != "/var/lib/keiba/races.json" {
		t.Errorf("expected expanded storage path, got '%s'", cfg.Storage.Path)
	}

	// values absent from the file fall back to defaults
	if cfg.Stats.RollingMinRaces != 5 {
		t.Errorf("expected default rolling min races 5, got %d", cfg.Stats.RollingMinRaces)
	}
}

// TestLoadWithDefaultsMissingFile tests that defaults alone form a valid configuration
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}

	if cfg.Stats.MaxRank != 16 {
		t.Errorf("expected default max rank 16, got %d", cfg.Stats.MaxRank)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = invalidEnv
	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
}

// TestValidateTickets tests validation of configured ticket types
func TestValidateTickets(t *testing.T) {
	tests := []struct {
		name      string
		tickets   []string
		shouldErr bool
	}{
		{name: "internal names", tickets: []string{"win", "trifecta"}},
		{name: "japanese labels", tickets: []string{"単勝", "3連複"}},
		{name: "unknown ticket", tickets: []string{"win", "pick6"}, shouldErr: true},
		{name: "bracket quinella is not modeled", tickets: []string{"bracket_quinella"}, shouldErr: true},
		{name: "empty list", tickets: []string{}, shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(validConfigPath)
			if err != nil {
				t.Fatalf(expectedNoErrorLoadingConfig, err)
			}

			cfg.Stats.Tickets = tt.tickets
			err = Validate(cfg)
			if tt.shouldErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.shouldErr && err != nil {
				t.Fatalf("expected no validation error, got %v", err)
			}
			if tt.shouldErr && len(tt.tickets) > 0 && !strings.Contains(err.Error(), ticketsValidationError) {
				t.Errorf("expected tickets validation error, got: %v", err)
			}
		})
	}
}

// TestValidateCrossField tests constraints spanning several sections
func TestValidateCrossField(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Stats.RollingStepDays = cfg.Stats.RollingWindowDays + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error when step exceeds window")
	}

	cfg.Stats.RollingStepDays = 7
	cfg.Metrics.Path = "metrics"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for relative metrics path")
	}
}

// TestValidateEnvironmentProduction tests production-only requirements
func TestValidateEnvironmentProduction(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = "production"
	if err := ValidateEnvironment(cfg); err == nil {
		t.Fatal("expected error for relative storage path in production")
	}

	cfg.Storage.Path = "/srv/keiba/races.json"
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if !cfg.IsProduction() || cfg.IsDevelopment() {
		t.Error("expected production environment helpers to agree")
	}
}

// TestReloadFromEnv tests reloading from the path named in the environment
func TestReloadFromEnv(t *testing.T) {
	cfg := &Config{}
	t.Setenv("KEIBA_CONFIG_PATH", validConfigPath)

	if err := ReloadFromEnv(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.App.Name != keibaStatsName {
		t.Errorf("expected reloaded app name '%s', got '%s'", keibaStatsName, cfg.App.Name)
	}
}
