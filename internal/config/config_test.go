package config

import (
	"testing"
	"time"
)

func TestLoadSearchDefaults(t *testing.T) {
	for _, key := range []string{
		"LLM_PROVIDER", "ORACLE_TIMEOUT", "MIN_PARTIAL_MATCH_LEN", "SYNONYMS_BIDIRECTIONAL",
		"EXPANSION_CACHE_SIZE", "EXPANSION_CACHE_TTL", "NATS_SUBJECT", "ENRICH_RPS", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.LLMProvider != ProviderOllama {
		t.Fatalf("expected default provider ollama, got %q", cfg.LLMProvider)
	}
	if cfg.OracleTimeout != 4*time.Second {
		t.Fatalf("expected default oracle timeout 4s, got %s", cfg.OracleTimeout)
	}
	if cfg.MinPartialMatchLen != 0 || cfg.SynonymsBidirectional {
		t.Fatalf("expected partial-match guard and bidirectional synonyms off by default")
	}
	if cfg.ExpansionCacheSize != 1024 || cfg.ExpansionCacheTTL != 10*time.Minute {
		t.Fatalf("unexpected cache defaults %d/%s", cfg.ExpansionCacheSize, cfg.ExpansionCacheTTL)
	}
	if cfg.NATSSubject != "listings.enrich" {
		t.Fatalf("expected default subject listings.enrich, got %q", cfg.NATSSubject)
	}
	if cfg.EnrichRPS != 1 {
		t.Fatalf("expected default enrich rate 1/s, got %v", cfg.EnrichRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("unexpected cors default %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("ORACLE_TIMEOUT", "1500ms")
	t.Setenv("MIN_PARTIAL_MATCH_LEN", "4")
	t.Setenv("SYNONYMS_BIDIRECTIONAL", "true")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://bazar.example, ,https://admin.bazar.example")

	cfg := Load()
	if cfg.LLMProvider != ProviderOpenAI {
		t.Fatalf("expected provider override, got %q", cfg.LLMProvider)
	}
	if cfg.OracleTimeout != 1500*time.Millisecond {
		t.Fatalf("expected oracle timeout override, got %s", cfg.OracleTimeout)
	}
	if cfg.MinPartialMatchLen != 4 || !cfg.SynonymsBidirectional {
		t.Fatalf("expected scoring overrides to apply")
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.APIRateLimitRPS)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.bazar.example" {
		t.Fatalf("unexpected cors origins %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("ORACLE_TIMEOUT", "soon")
	t.Setenv("EXPANSION_CACHE_SIZE", "many")
	t.Setenv("ORACLE_BREAKER_ENABLED", "maybe")

	cfg := Load()
	if cfg.OracleTimeout != 4*time.Second || cfg.ExpansionCacheSize != 1024 || !cfg.OracleBreakerEnabled {
		t.Fatalf("expected fallbacks for invalid values, got %+v", cfg)
	}
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	if cfg := Load(); cfg.OpenAIAPIKey != "gem-key" {
		t.Fatalf("expected GEMINI_API_KEY fallback, got %q", cfg.OpenAIAPIKey)
	}
}
