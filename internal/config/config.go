package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoUsersTable string
	S3BucketName     string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	OTPTTL           time.Duration
	OTPSweepInterval time.Duration
	BcryptCost       int

	PasswordPolicy string
	EmailPolicy    string

	DefaultAvatarPath string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	AllowedOrigins []string // CORS allowed origins
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoUsersTable: getEnv("DYNAMO_TABLE_USERS", "users"),
		S3BucketName:     getEnv("S3_BUCKET_NAME", "savoury-profiles"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_TTL_HOURS", 24)) * time.Hour,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_TTL_DAYS", 7)) * 24 * time.Hour,

		OTPTTL:           time.Duration(getEnvInt("OTP_TTL_MINUTES", 5)) * time.Minute,
		OTPSweepInterval: time.Duration(getEnvInt("OTP_SWEEP_INTERVAL_MINUTES", 5)) * time.Minute,
		BcryptCost:       getEnvInt("BCRYPT_COST", 12),

		PasswordPolicy: getEnv("PASSWORD_POLICY", "lowerUpperDigitSpecial"),
		EmailPolicy:    getEnv("EMAIL_POLICY", "rfcLike"),

		DefaultAvatarPath: getEnv("DEFAULT_AVATAR_PATH", "./assets/default_avatar.jpg"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@savoury.app"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
