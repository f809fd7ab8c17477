package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	DB           DBConfig           `mapstructure:"db"`
	MinIO        MinIOConfig        `mapstructure:"minio"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Drive        DriveConfig        `mapstructure:"drive"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	QR           QRConfig           `mapstructure:"qr"`
	Upload       UploadConfig       `mapstructure:"upload"`
	Links        LinksConfig        `mapstructure:"links"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Audit        AuditConfig        `mapstructure:"audit"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	Environment string   `mapstructure:"environment"`
	FrontendURL string   `mapstructure:"frontend_url"`
	PublicURL   string   `mapstructure:"public_url"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	BodyLimitMB int      `mapstructure:"body_limit_mb"`
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type StorageConfig struct {
	// Driver is "minio" or "memory".
	Driver string `mapstructure:"driver"`
}

type DriveConfig struct {
	RootFolder string `mapstructure:"root_folder"`
}

type JWTConfig struct {
	Secret          string `mapstructure:"secret"`
	ExpirationHours int    `mapstructure:"expiration_hours"`
}

type QRConfig struct {
	MaxPerOwner int    `mapstructure:"max_per_owner"`
	ImageSize   int    `mapstructure:"image_size"`
	Margin      int    `mapstructure:"margin"`
	DarkColor   string `mapstructure:"dark_color"`
	LightColor  string `mapstructure:"light_color"`
}

type UploadConfig struct {
	MaxFileSize int64  `mapstructure:"max_file_size"`
	MaxFiles    int    `mapstructure:"max_files"`
	TempDir     string `mapstructure:"temp_dir"`
}

type LinksConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type RateLimitConfig struct {
	Max        int           `mapstructure:"max"`
	Window     time.Duration `mapstructure:"window"`
	AuthMax    int           `mapstructure:"auth_max"`
	AuthWindow time.Duration `mapstructure:"auth_window"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RegistrationConfig struct {
	DefaultCapabilities bool `mapstructure:"default_capabilities"`
}

type AuditConfig struct {
	QueueSize int `mapstructure:"queue_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "production")
	v.SetDefault("server.frontend_url", "http://localhost:3000")
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("server.body_limit_mb", 520)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "qrwedding")
	v.SetDefault("db.password", "qrwedding_secret")
	v.SetDefault("db.name", "qrwedding")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.path", "qrwedding.db")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "qrwedding")
	v.SetDefault("minio.secret_key", "qrwedding_secret")
	v.SetDefault("minio.bucket", "event-uploads")
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("storage.driver", "minio")
	v.SetDefault("drive.root_folder", "Etkinlik Yüklemeleri")

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration_hours", 720)

	v.SetDefault("qr.max_per_owner", 10)
	v.SetDefault("qr.image_size", 300)
	v.SetDefault("qr.margin", 2)
	v.SetDefault("qr.dark_color", "#000000")
	v.SetDefault("qr.light_color", "#FFFFFF")

	v.SetDefault("upload.max_file_size", 50*1024*1024)
	v.SetDefault("upload.max_files", 10)
	v.SetDefault("upload.temp_dir", os.TempDir())

	v.SetDefault("links.secret", "")
	v.SetDefault("links.expiry", "24h")

	v.SetDefault("rate_limit.max", 100)
	v.SetDefault("rate_limit.window", "15m")
	v.SetDefault("rate_limit.auth_max", 20)
	v.SetDefault("rate_limit.auth_window", "15m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("registration.default_capabilities", true)
	v.SetDefault("audit.queue_size", 1000)
}

// Load reads defaults, then an optional config file, then the environment
// (DB_HOST, MINIO_ENDPOINT, JWT_SECRET, ...). A .env file in the working
// directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || path != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if cfg.Links.Secret == "" {
		cfg.Links.Secret = cfg.JWT.Secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Environment == "production" && (c.JWT.Secret == "" || c.JWT.Secret == "change-me-in-production") {
		return fmt.Errorf("config: jwt.secret must be set in production")
	}
	if c.JWT.ExpirationHours <= 0 {
		return fmt.Errorf("config: jwt.expiration_hours must be positive")
	}
	if c.QR.MaxPerOwner <= 0 {
		return fmt.Errorf("config: qr.max_per_owner must be positive")
	}
	if c.QR.ImageSize <= 0 || c.QR.Margin < 0 {
		return fmt.Errorf("config: qr.image_size must be positive and qr.margin non-negative")
	}
	if c.Upload.MaxFileSize <= 0 || c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("config: upload limits must be positive")
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("config: rate_limit.max and rate_limit.window must be positive")
	}
	switch c.DB.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.DB.Driver)
	}
	switch c.Storage.Driver {
	case "minio", "memory":
	default:
		return fmt.Errorf("config: unsupported storage.driver %q", c.Storage.Driver)
	}
	return nil
}
