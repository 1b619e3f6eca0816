package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()
	t.Setenv("MONGODB_URL", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "test-jwt-secret-32bytes-long!!!!")
	t.Setenv("ADMIN_PASSWORD", "test-admin-password")
	t.Setenv("BASE_URL", "http://localhost:8080")
}

func TestLoad_AllRequiredVarsSet_ReturnsConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoURL != "mongodb://localhost:27017" {
		t.Errorf("MongoURL = %q, want %q", cfg.MongoURL, "mongodb://localhost:27017")
	}
	if cfg.JWTSecret != "test-jwt-secret-32bytes-long!!!!" {
		t.Errorf("JWTSecret = %q", cfg.JWTSecret)
	}
	if cfg.AdminPassword != "test-admin-password" {
		t.Errorf("AdminPassword = %q", cfg.AdminPassword)
	}
	if cfg.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "http://localhost:8080")
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoDatabase != "blogsmith" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "blogsmith")
	}
	if cfg.TokenExpiry != 24*time.Hour {
		t.Errorf("TokenExpiry = %v, want %v", cfg.TokenExpiry, 24*time.Hour)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-2.0-flash")
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.RateLimitGenerate != 10 {
		t.Errorf("RateLimitGenerate = %d, want %d", cfg.RateLimitGenerate, 10)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequiredEnvVars(t)

	t.Setenv("MONGODB_DATABASE", "blogsmith_test")
	t.Setenv("TOKEN_EXPIRY", "12h")
	t.Setenv("GEMINI_API_KEY", "test-api-key")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	t.Setenv("RATE_LIMIT_GENERAL", "60")
	t.Setenv("RATE_LIMIT_GENERATE", "5")
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("CORS_ALLOWED_ORIGIN", "https://blog.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.MongoDatabase != "blogsmith_test" {
		t.Errorf("MongoDatabase = %q, want %q", cfg.MongoDatabase, "blogsmith_test")
	}
	if cfg.TokenExpiry != 12*time.Hour {
		t.Errorf("TokenExpiry = %v, want %v", cfg.TokenExpiry, 12*time.Hour)
	}
	if cfg.GeminiAPIKey != "test-api-key" {
		t.Errorf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}
	if cfg.GeminiModel != "gemini-2.5-pro" {
		t.Errorf("GeminiModel = %q, want %q", cfg.GeminiModel, "gemini-2.5-pro")
	}
	if cfg.RateLimitGeneral != 60 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 60)
	}
	if cfg.RateLimitGenerate != 5 {
		t.Errorf("RateLimitGenerate = %d, want %d", cfg.RateLimitGenerate, 5)
	}
	if cfg.ServerPort != "3000" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "3000")
	}
	if cfg.CORSAllowedOrigin != "https://blog.example.com" {
		t.Errorf("CORSAllowedOrigin = %q", cfg.CORSAllowedOrigin)
	}
}

func TestLoad_MissingMongoURL_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("MONGODB_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing MONGODB_URL, got nil")
	}
	if !strings.Contains(err.Error(), "MONGODB_URL") {
		t.Errorf("error should name the missing variable, got %v", err)
	}
}

func TestLoad_MissingJWTSecret_ReturnsError(t *testing.T) {
	// 署名シークレットにフォールバック値は存在しない
	setRequiredEnvVars(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing JWT_SECRET, got nil")
	}
}

func TestLoad_MissingAdminPassword_ReturnsError(t *testing.T) {
	// ブートストラップ管理者パスワードに固定のデフォルト値は存在しない
	setRequiredEnvVars(t)
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing ADMIN_PASSWORD, got nil")
	}
}

func TestLoad_MissingBaseURL_ReturnsError(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("BASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing BASE_URL, got nil")
	}
}

func TestLoad_MultipleMissingVarsAreAllReported(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	for _, name := range []string{"JWT_SECRET", "ADMIN_PASSWORD"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should name %s, got %v", name, err)
		}
	}
}

func TestGoogleRedirectURL_BuiltFromBaseURL(t *testing.T) {
	cfg := &Config{BaseURL: "https://blog.example.com"}
	want := "https://blog.example.com/auth/google/callback"
	if got := cfg.GoogleRedirectURL(); got != want {
		t.Errorf("GoogleRedirectURL() = %q, want %q", got, want)
	}

	// 末尾スラッシュは正規化される
	cfg.BaseURL = "https://blog.example.com/"
	if got := cfg.GoogleRedirectURL(); got != want {
		t.Errorf("GoogleRedirectURL() = %q, want %q", got, want)
	}
}

func TestGoogleOAuthEnabled(t *testing.T) {
	tests := []struct {
		name         string
		clientID     string
		clientSecret string
		want         bool
	}{
		{"両方設定済み", "id", "secret", true},
		{"IDのみ", "id", "", false},
		{"Secretのみ", "", "secret", false},
		{"両方未設定", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{GoogleClientID: tt.clientID, GoogleClientSecret: tt.clientSecret}
			if got := cfg.GoogleOAuthEnabled(); got != tt.want {
				t.Errorf("GoogleOAuthEnabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
