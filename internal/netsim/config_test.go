package netsim

import "testing"

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig should validate cleanly, got: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"k zero", func(c *Config) { c.K = 0 }, true},
		{"classes zero", func(c *Config) { c.Classes = 0 }, true},
		{"vcs per class zero", func(c *Config) { c.VCsPerClass = 0 }, true},
		{"vc buf size zero", func(c *Config) { c.VCBufSize = 0 }, true},
		{"unknown routing function", func(c *Config) { c.RoutingFunction = "bogus" }, true},
		{"unknown vc allocator", func(c *Config) { c.VCAllocator = "bogus" }, true},
		{"unknown sw allocator", func(c *Config) { c.SWAllocator = "bogus" }, true},
		{"unknown powergate type", func(c *Config) { c.PowergateType = "bogus" }, true},
		{"percentile negative", func(c *Config) { c.PowergatePercentile = -1 }, true},
		{"percentile at 100", func(c *Config) { c.PowergatePercentile = 100 }, true},
		{"percentile high but valid", func(c *Config) { c.PowergatePercentile = 75 }, false},
		{"unknown sim type", func(c *Config) { c.SimType = "bogus" }, true},
		{"unknown pattern", func(c *Config) { c.Pattern = "bogus" }, true},
		{"crossbar delay zero", func(c *Config) { c.CrossbarDelay = 0 }, true},
		{"credit delay zero", func(c *Config) { c.CreditDelay = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got: %v", err)
			}
		})
	}
}

func TestIsValidHelpers(t *testing.T) {
	if !IsValidRoutingFunction("dim_order") {
		t.Error("dim_order should be a valid routing function")
	}
	if IsValidRoutingFunction("nope") {
		t.Error("nope should not be a valid routing function")
	}
	if !IsValidPowergateType(string(PGNoRD)) {
		t.Error("nord should be a valid powergate type")
	}
	if !IsValidPattern("tornado") {
		t.Error("tornado should be a valid pattern")
	}
}
