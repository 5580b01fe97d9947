package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Driver != DriverFile {
		t.Errorf("storage driver = %q, want %q", cfg.Storage.Driver, DriverFile)
	}
	if cfg.Storage.Key != "books" {
		t.Errorf("storage key = %q, want books", cfg.Storage.Key)
	}
	if cfg.Catalog.PageSize != 10 {
		t.Errorf("page size = %d, want 10", cfg.Catalog.PageSize)
	}
	if cfg.Catalog.ResetPageOnSearch {
		t.Error("reset_page_on_search should default to false")
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/catalog.db")
	t.Setenv("CATALOG_PAGE_SIZE", "25")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("CATALOG_RESET_PAGE_ON_SEARCH", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Storage.Driver != DriverSQLite {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.Storage.SQLitePath != "/tmp/catalog.db" {
		t.Errorf("sqlite path = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Catalog.PageSize != 25 {
		t.Errorf("page size = %d", cfg.Catalog.PageSize)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if !cfg.Catalog.ResetPageOnSearch {
		t.Error("reset_page_on_search should be true")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:  ServerConfig{Port: 8080},
			Storage: StorageConfig{Driver: DriverMemory, Key: "books"},
			Catalog: CatalogConfig{PageSize: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "floppy" }, true},
		{"empty key", func(c *Config) { c.Storage.Key = "" }, true},
		{"file without dir", func(c *Config) { c.Storage.Driver = DriverFile }, true},
		{"postgres without host", func(c *Config) { c.Storage.Driver = DriverPostgres }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"zero page size", func(c *Config) { c.Catalog.PageSize = 0 }, true},
		{"rate limit without window", func(c *Config) { c.Security.RateLimitRequests = 10 }, true},
		{"rate limit with window", func(c *Config) {
			c.Security.RateLimitRequests = 10
			c.Security.RateLimitWindow = time.Minute
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := cfg.GetDSN(); got != want {
		t.Errorf("GetDSN() = %q, want %q", got, want)
	}
}
