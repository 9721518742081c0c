package config

import "testing"

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "")
		t.Setenv("RULES_REAPPLY_CATEGORIZED", "")
		t.Setenv("DEFAULT_CURRENCY", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DBDriver != "postgres" {
			t.Errorf("expected postgres driver, got %s", cfg.DBDriver)
		}
		if cfg.ReapplyCategorized {
			t.Error("expected reapply policy to default to false")
		}
		if cfg.DefaultCurrency != "EUR" {
			t.Errorf("expected EUR, got %s", cfg.DefaultCurrency)
		}
	})

	t.Run("reapply_policy_from_env", func(t *testing.T) {
		t.Setenv("RULES_REAPPLY_CATEGORIZED", "true")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cfg.ReapplyCategorized {
			t.Error("expected reapply policy to be enabled")
		}
	})

	t.Run("invalid_reapply_falls_back", func(t *testing.T) {
		t.Setenv("RULES_REAPPLY_CATEGORIZED", "sometimes")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.ReapplyCategorized {
			t.Error("expected invalid value to fall back to false")
		}
	})
}
