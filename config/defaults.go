package config

import "time"

// DefaultConfig returns the full default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Store:     DefaultStoreConfig(),
		Database:  DefaultDatabaseConfig(),
		Mongo:     DefaultMongoConfig(),
		Redis:     DefaultRedisConfig(),
		Sources:   DefaultSourcesConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns the default HTTP server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultStoreConfig selects the SQL backend.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{Backend: "sql"}
}

// DefaultDatabaseConfig returns a local sqlite setup that needs no server.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "paperpilot.db",
		SSLMode:         "disable",
		MaxOpenConns:    50,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// DefaultMongoConfig returns the default document-store configuration.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:        "mongodb://localhost:27017",
		Database:   "paperpilot",
		Collection: "projects",
		Timeout:    10 * time.Second,
	}
}

// DefaultRedisConfig returns the default cache configuration. Caching stays
// off until an address is set.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		CacheTTL:     time.Hour,
	}
}

// DefaultSourcesConfig enables the keyless sources.
func DefaultSourcesConfig() SourcesConfig {
	return SourcesConfig{
		ArXiv: ArXivConfig{
			Enabled:    true,
			BaseURL:    "https://export.arxiv.org/api/query",
			MaxResults: 20,
			RateRPS:    1,
		},
		PubMed: PubMedConfig{
			Enabled: true,
			BaseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			RateRPS: 3,
		},
		Scholar: ScholarConfig{
			Enabled: false,
			RateRPS: 1,
		},
	}
}

// DefaultLogConfig returns production logging defaults.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}

// DefaultTelemetryConfig returns telemetry defaults, disabled.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "paperpilot",
		SampleRate:   1.0,
	}
}
