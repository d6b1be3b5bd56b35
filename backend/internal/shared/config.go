// ============================================================================
// backend/internal/shared/config.go
// Configuration management: .env file, optional config file, environment
// ============================================================================

package shared

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ============================================================================
// Configuration Structs
// ============================================================================

// Config holds the configuration of the API process
type Config struct {
	ServiceName string
	HTTPPort    string
	GRPCPort    string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	LogFormat   string // json, console

	MongoDB  MongoConfig
	Security SecurityConfig
	Upload   UploadConfig
	OSS      OSSConfig
	Redis    RedisConfig
	CORS     CORSConfig
}

// SecurityConfig holds token and password settings
type SecurityConfig struct {
	JWTSecret     string
	TokenLifetime time.Duration
	BCryptCost    int
}

// UploadConfig holds local blob storage settings
type UploadConfig struct {
	Dir     string
	MaxSize int64 // bytes
}

// OSSConfig holds Aliyun OSS settings. Object storage is used only when
// every field except BaseURL is set.
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	BaseURL         string
}

// Enabled reports whether object storage is configured
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// RedisConfig holds the connection used for login rate limiting.
// An empty Addr disables rate limiting.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	LoginLimit  int
	LoginWindow time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
	MaxAge           int // in seconds
}

// ============================================================================
// Configuration Loading Functions
// ============================================================================

// LoadEnv loads environment variables from .env file
func LoadEnv(envFile string) error {
	if envFile == "" {
		envFile = ".env"
	}

	if err := godotenv.Load(envFile); err != nil {
		return err
	}

	log.Printf("Successfully loaded environment from %s", envFile)
	return nil
}

// newViper builds the lookup chain: defaults < config file < environment.
func newViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("service_name", "unipulse-api")
	v.SetDefault("http_port", "8080")
	v.SetDefault("grpc_port", "50051")
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_db_name", "unipulse")
	v.SetDefault("mongo_connect_timeout", 20*time.Second)
	v.SetDefault("mongo_max_pool_size", 50)
	v.SetDefault("mongo_min_pool_size", 5)
	v.SetDefault("mongo_max_idle_time", 30*time.Second)

	v.SetDefault("jwt_secret", "")
	v.SetDefault("access_token_expire_minutes", 60*24)
	v.SetDefault("bcrypt_cost", 10)

	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_size", 10*1024*1024)

	v.SetDefault("oss_endpoint", "")
	v.SetDefault("oss_access_key_id", "")
	v.SetDefault("oss_access_key_secret", "")
	v.SetDefault("oss_bucket", "")
	v.SetDefault("oss_base_url", "")

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("login_rate_limit", 10)
	v.SetDefault("login_rate_window", time.Minute)

	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("cors_allow_credentials", true)
	v.SetDefault("cors_max_age", 300)

	if path := os.Getenv("UNIPULSE_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	v.AutomaticEnv()
	return v, nil
}

// LoadConfig loads the API configuration
func LoadConfig() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}

	config := &Config{
		ServiceName: v.GetString("service_name"),
		HTTPPort:    v.GetString("http_port"),
		GRPCPort:    v.GetString("grpc_port"),
		Environment: v.GetString("environment"),
		LogLevel:    v.GetString("log_level"),
		LogFormat:   v.GetString("log_format"),
	}

	config.MongoDB = MongoConfig{
		URI:            v.GetString("mongo_uri"),
		Database:       v.GetString("mongo_db_name"),
		ConnectTimeout: v.GetDuration("mongo_connect_timeout"),
		MaxPoolSize:    uint64(v.GetInt("mongo_max_pool_size")),
		MinPoolSize:    uint64(v.GetInt("mongo_min_pool_size")),
		MaxIdleTime:    v.GetDuration("mongo_max_idle_time"),
	}

	config.Security = SecurityConfig{
		JWTSecret:     v.GetString("jwt_secret"),
		TokenLifetime: time.Duration(v.GetInt("access_token_expire_minutes")) * time.Minute,
		BCryptCost:    v.GetInt("bcrypt_cost"),
	}

	config.Upload = UploadConfig{
		Dir:     v.GetString("upload_dir"),
		MaxSize: v.GetInt64("max_upload_size"),
	}

	config.OSS = OSSConfig{
		Endpoint:        v.GetString("oss_endpoint"),
		AccessKeyID:     v.GetString("oss_access_key_id"),
		AccessKeySecret: v.GetString("oss_access_key_secret"),
		Bucket:          v.GetString("oss_bucket"),
		BaseURL:         strings.TrimRight(v.GetString("oss_base_url"), "/"),
	}

	config.Redis = RedisConfig{
		Addr:        v.GetString("redis_addr"),
		Password:    v.GetString("redis_password"),
		DB:          v.GetInt("redis_db"),
		LoginLimit:  v.GetInt("login_rate_limit"),
		LoginWindow: v.GetDuration("login_rate_window"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   SplitList(v.GetString("cors_allowed_origins")),
		AllowCredentials: v.GetBool("cors_allow_credentials"),
		MaxAge:           v.GetInt("cors_max_age"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports missing or out-of-range configuration
func (c *Config) Validate() error {
	var missing []string
	if c.MongoDB.URI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.MongoDB.Database == "" {
		missing = append(missing, "MONGO_DB_NAME")
	}
	if c.Security.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}

	if c.Security.TokenLifetime <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Upload.MaxSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	return nil
}

// SplitList splits a comma-separated list, dropping empty items
func SplitList(value string) []string {
	var result []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ============================================================================
// Environment-Specific Configuration
// ============================================================================

// IsProduction checks if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
