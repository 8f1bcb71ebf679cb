package config

import "time"

// ArtifactsConfig represents where the fitted vectorizer and classifier live
type ArtifactsConfig struct {
	Source           string
	VectorizerPath   string
	ClassifierPath   string
	VectorizerSHA256 string
	ClassifierSHA256 string
	LoadTimeout      time.Duration
}

// S3Config represents the configuration for the S3 artifact source
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// ModelConfig represents how the classifier's native labels are interpreted
type ModelConfig struct {
	SpamLabel string
}

// ServerConfig represents the configuration for the presentation shell
type ServerConfig struct {
	Frontend         string
	ListenAddress    string
	Mode             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	ShutdownTimeout  time.Duration
	MaxMessageLength int
	RateLimit        string
	MetricsEnabled   bool
}

// CacheConfig represents the configuration for the prediction cache
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// GetArtifacts returns the artifacts configuration
func (c *Config) GetArtifacts() (ArtifactsConfig, error) {
	timeout, err := c.GetDuration("artifacts.load_timeout")
	if err != nil {
		return ArtifactsConfig{}, err
	}
	return ArtifactsConfig{
		Source:           c.GetString("artifacts.source"),
		VectorizerPath:   c.GetString("artifacts.vectorizer_path"),
		ClassifierPath:   c.GetString("artifacts.classifier_path"),
		VectorizerSHA256: c.GetString("artifacts.vectorizer_sha256"),
		ClassifierSHA256: c.GetString("artifacts.classifier_sha256"),
		LoadTimeout:      timeout,
	}, nil
}

// GetS3 returns the S3 artifact source configuration
func (c *Config) GetS3() S3Config {
	return S3Config{
		Bucket:          c.GetString("artifacts.s3.bucket"),
		Region:          c.GetString("artifacts.s3.region"),
		Endpoint:        c.GetString("artifacts.s3.endpoint"),
		AccessKeyID:     c.GetString("artifacts.s3.access_key_id"),
		SecretAccessKey: c.GetString("artifacts.s3.secret_access_key"),
	}
}

// GetModel returns the model configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		SpamLabel: c.GetString("model.spam_label"),
	}
}

// GetServer returns the server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	writeTimeout, err := c.GetDuration("server.write_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	shutdownTimeout, err := c.GetDuration("server.shutdown_timeout")
	if err != nil {
		return ServerConfig{}, err
	}
	return ServerConfig{
		Frontend:         c.GetString("server.frontend"),
		ListenAddress:    c.GetString("server.listen_address"),
		Mode:             c.GetString("server.mode"),
		ReadTimeout:      readTimeout,
		WriteTimeout:     writeTimeout,
		ShutdownTimeout:  shutdownTimeout,
		MaxMessageLength: c.GetInt("server.max_message_length"),
		RateLimit:        c.GetString("server.rate_limit"),
		MetricsEnabled:   c.GetBool("server.metrics_enabled"),
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, err
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}, nil
}
