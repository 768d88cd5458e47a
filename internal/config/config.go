package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port    string
	Env     string
	LogMode string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimeZone string

	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	DBSlowQuery       time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Identity provider. JWTPublicKey (PEM, RS256) wins over JWTSecret (HS256) when both are set.
	JWTSecret    string
	JWTPublicKey string
	JWTIssuer    string
	JWTAudience  string

	// Identity provider management API. Disabled when IdPDomain is empty.
	IdPDomain             string
	IdPClientID           string
	IdPClientSecret       string
	IdPManagementAudience string

	// Object store. StorageBackend is "s3" or "local".
	StorageBackend    string
	LocalStoragePath  string
	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3UsePathStyle    bool
	S3Bucket          string
	S3PublicHost      string
	S3URLScheme       string

	// Uploads
	UploadMaxPictureSize int64
	UploadMaxFileSize    int64
	UploadDailyLimit     int

	// Pagination
	PageMaxTake int

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:    getEnv("PORT", "8080"),
		Env:     getEnv("ENV", "development"),
		LogMode: getEnv("LOG_MODE", getEnv("ENV", "development")),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "assetstore"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "assetstore_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),

		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "1h"),
		DBSlowQuery:       getEnvAsDuration("DB_SLOW_QUERY", "200ms"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Identity provider
		JWTSecret:    getEnv("JWT_SECRET", ""),
		JWTPublicKey: getEnv("JWT_PUBLIC_KEY", ""),
		JWTIssuer:    getEnv("JWT_ISSUER", ""),
		JWTAudience:  getEnv("JWT_AUDIENCE", ""),

		IdPDomain:             getEnv("IDP_DOMAIN", ""),
		IdPClientID:           getEnv("IDP_CLIENT_ID", ""),
		IdPClientSecret:       getEnv("IDP_CLIENT_SECRET", ""),
		IdPManagementAudience: getEnv("IDP_MANAGEMENT_AUDIENCE", ""),

		// Object store
		StorageBackend:    getEnv("STORAGE_BACKEND", "s3"),
		LocalStoragePath:  getEnv("LOCAL_STORAGE_PATH", "./storage"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3Region:          getEnv("S3_REGION", "eu-central-1"),
		S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3UsePathStyle:    getEnvAsBool("S3_USE_PATH_STYLE", false),
		S3Bucket:          getEnv("S3_BUCKET", "asset-store"),
		S3PublicHost:      getEnv("S3_PUBLIC_HOST", "s3.eu-central-1.amazonaws.com"),
		S3URLScheme:       getEnv("S3_URL_SCHEME", "https"),

		// Uploads
		UploadMaxPictureSize: int64(getEnvAsInt("UPLOAD_MAX_PICTURE_SIZE", 2*1000*1000)),
		UploadMaxFileSize:    int64(getEnvAsInt("UPLOAD_MAX_FILE_SIZE", 50*1000*1000)),
		UploadDailyLimit:     getEnvAsInt("UPLOAD_DAILY_LIMIT", 100),

		// Pagination
		PageMaxTake: getEnvAsInt("PAGE_MAX_TAKE", 50),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
	}
}

// ObjectURLs returns the public URL layout of the object store bucket.
func (c *Config) ObjectURLs() ObjectURLs {
	return ObjectURLs{Scheme: c.S3URLScheme, Bucket: c.S3Bucket, Host: c.S3PublicHost}
}

// ObjectURLs builds public object URLs as <scheme>://<bucket>.<host>/<key>.
type ObjectURLs struct {
	Scheme string
	Bucket string
	Host   string
}

func (u ObjectURLs) URL(key string) string {
	base := u.Bucket + "." + strings.TrimSuffix(u.Host, "/") + "/" + strings.TrimPrefix(key, "/")
	if u.Scheme == "" {
		return base
	}
	return u.Scheme + "://" + base
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Minute
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
