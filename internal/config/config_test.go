package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		setup   func()
		cleanup func()
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "load with defaults (no config file)",
			setup: func() {
				viper.Reset()
			},
			cleanup: func() {},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 8080 {
					t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
				}
				if cfg.Database.Host != "localhost" {
					t.Errorf("Database.Host = %s, want localhost", cfg.Database.Host)
				}
				if cfg.Database.Name != "talent_verification" {
					t.Errorf("Database.Name = %s, want talent_verification", cfg.Database.Name)
				}
				if cfg.RabbitMQ.Exchange != "talent.videos" {
					t.Errorf("RabbitMQ.Exchange = %s, want talent.videos", cfg.RabbitMQ.Exchange)
				}
				if cfg.Redis.Addr != "localhost:6379" {
					t.Errorf("Redis.Addr = %s, want localhost:6379", cfg.Redis.Addr)
				}
				if cfg.Verification.DefaultGoal != 1 {
					t.Errorf("Verification.DefaultGoal = %d, want 1", cfg.Verification.DefaultGoal)
				}
				if cfg.Verification.MaxMessageSize != 2000 {
					t.Errorf("Verification.MaxMessageSize = %d, want 2000", cfg.Verification.MaxMessageSize)
				}
				if cfg.Verification.MaxRetries != 3 {
					t.Errorf("Verification.MaxRetries = %d, want 3", cfg.Verification.MaxRetries)
				}
				if cfg.Verification.RetryBackoff != 50*time.Millisecond {
					t.Errorf("Verification.RetryBackoff = %s, want 50ms", cfg.Verification.RetryBackoff)
				}
				if cfg.Profile.Timeout != 10*time.Second {
					t.Errorf("Profile.Timeout = %s, want 10s", cfg.Profile.Timeout)
				}
			},
		},
		{
			name: "load with environment variables",
			setup: func() {
				viper.Reset()
				viper.SetEnvPrefix("APP")
				viper.AutomaticEnv()
				os.Setenv("APP_SERVER_PORT", "9090")
				os.Setenv("APP_DATABASE_HOST", "testdb")
				os.Setenv("APP_VERIFICATION_DEFAULTGOAL", "3")
				os.Setenv("APP_REDIS_ADDR", "redis:6380")
				// Manually bind env vars since AutomaticEnv doesn't work with nested keys
				viper.BindEnv("server.port", "APP_SERVER_PORT")
				viper.BindEnv("database.host", "APP_DATABASE_HOST")
				viper.BindEnv("verification.defaultgoal", "APP_VERIFICATION_DEFAULTGOAL")
				viper.BindEnv("redis.addr", "APP_REDIS_ADDR")
			},
			cleanup: func() {
				os.Unsetenv("APP_SERVER_PORT")
				os.Unsetenv("APP_DATABASE_HOST")
				os.Unsetenv("APP_VERIFICATION_DEFAULTGOAL")
				os.Unsetenv("APP_REDIS_ADDR")
			},
			wantErr: false,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != 9090 {
					t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
				}
				if cfg.Database.Host != "testdb" {
					t.Errorf("Database.Host = %s, want testdb", cfg.Database.Host)
				}
				if cfg.Verification.DefaultGoal != 3 {
					t.Errorf("Verification.DefaultGoal = %d, want 3", cfg.Verification.DefaultGoal)
				}
				if cfg.Redis.Addr != "redis:6380" {
					t.Errorf("Redis.Addr = %s, want redis:6380", cfg.Redis.Addr)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			defer func() {
				if tt.cleanup != nil {
					tt.cleanup()
				}
			}()

			cfg, err := Load()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}
