package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full runtime configuration. Values come from defaults, then the optional TOML
// file named by CONFIG_FILE, then environment variables.
type Config struct {
	Port          string         `toml:"port"`
	PublicBaseURL string         `toml:"public_base_url"`
	PhotoTimezone string         `toml:"photo_timezone"` // IANA name; empty means the local zone
	Storage       StorageConfig  `toml:"storage"`
	Media         MediaConfig    `toml:"media"`
	Defaults      DefaultsConfig `toml:"defaults"`
	Log           LogConfig      `toml:"log"`
}

// StorageConfig selects the document store. Backend determines which other fields are relevant.
type StorageConfig struct {
	Backend     string        `toml:"backend"` // "filesystem", "memory" or "postgres"
	Root        string        `toml:"root,omitempty"`
	DatabaseURL string        `toml:"database_url,omitempty"`
	Timeout     time.Duration `toml:"timeout"`
}

// MediaConfig selects where uploaded assets go.
type MediaConfig struct {
	Backend string `toml:"backend"` // "filesystem", "memory" or "s3"
	Root    string `toml:"root,omitempty"`

	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	ProbeTimeout    time.Duration `toml:"probe_timeout"`
	ThumbnailMaxDim int           `toml:"thumbnail_max_dim"` // 0 disables thumbnails
	MaxUploadBytes  int64         `toml:"max_upload_bytes"`
}

// DefaultsConfig holds relative sources assigned to new users.
type DefaultsConfig struct {
	AvatarSrc     string `toml:"avatar_src"`
	ProfileBkgSrc string `toml:"profile_bkg_src"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

func Default() Config {
	return Config{
		Port: "8080",
		Storage: StorageConfig{
			Backend: "filesystem",
			Root:    "./data",
			Timeout: 5 * time.Second,
		},
		Media: MediaConfig{
			Backend:         "filesystem",
			Root:            "./media",
			ProbeTimeout:    10 * time.Second,
			ThumbnailMaxDim: 320,
			MaxUploadBytes:  32 << 20,
		},
		Defaults: DefaultsConfig{
			AvatarSrc:     "/assets/default_avatar.png",
			ProfileBkgSrc: "/assets/default_profile_bkg.png",
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads configuration from the process environment.
func Load() (Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom is Load with an injectable environment lookup.
func LoadFrom(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("PUBLIC_BASE_URL", &cfg.PublicBaseURL)
	str("PHOTO_TIMEZONE", &cfg.PhotoTimezone)
	str("STORAGE_BACKEND", &cfg.Storage.Backend)
	str("STORAGE_ROOT", &cfg.Storage.Root)
	str("DATABASE_URL", &cfg.Storage.DatabaseURL)
	str("MEDIA_BACKEND", &cfg.Media.Backend)
	str("MEDIA_ROOT", &cfg.Media.Root)
	str("S3_BUCKET", &cfg.Media.S3Bucket)
	str("S3_PREFIX", &cfg.Media.S3Prefix)
	str("S3_REGION", &cfg.Media.S3Region)
	str("S3_ENDPOINT", &cfg.Media.S3Endpoint)
	str("S3_ACCESS_KEY_ID", &cfg.Media.S3AccessKeyID)
	str("S3_SECRET_ACCESS_KEY", &cfg.Media.S3SecretAccessKey)
	str("DEFAULT_AVATAR_SRC", &cfg.Defaults.AvatarSrc)
	str("DEFAULT_PROFILE_BKG_SRC", &cfg.Defaults.ProfileBkgSrc)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("STORE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("STORE_TIMEOUT must be a duration (e.g. 5s): %w", err)
		}
		cfg.Storage.Timeout = d
	}
	if v, ok := lookup("PROBE_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("PROBE_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.Media.ProbeTimeout = d
	}
	if v, ok := lookup("THUMBNAIL_MAX_DIM"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("THUMBNAIL_MAX_DIM must be an integer: %w", err)
		}
		cfg.Media.ThumbnailMaxDim = n
	}
	if v, ok := lookup("MAX_UPLOAD_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES must be an integer: %w", err)
		}
		cfg.Media.MaxUploadBytes = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks backend selections and their required fields.
func (c Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.Storage.Backend) {
	case "memory":
	case "filesystem":
		if c.Storage.Root == "" {
			errs = append(errs, errors.New("STORAGE_ROOT is required for the filesystem backend"))
		}
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q (expected filesystem, memory or postgres)", c.Storage.Backend))
	}

	switch strings.ToLower(c.Media.Backend) {
	case "memory":
	case "filesystem":
		if c.Media.Root == "" {
			errs = append(errs, errors.New("MEDIA_ROOT is required for the filesystem media backend"))
		}
	case "s3":
		if c.Media.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 media backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_BACKEND %q (expected filesystem, memory or s3)", c.Media.Backend))
	}

	if _, err := c.PhotoLocation(); err != nil {
		errs = append(errs, err)
	}
	if c.Media.ThumbnailMaxDim < 0 {
		errs = append(errs, errors.New("THUMBNAIL_MAX_DIM must not be negative"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	return errors.Join(errs...)
}

// PhotoLocation resolves PhotoTimezone. Empty means time.Local.
func (c Config) PhotoLocation() (*time.Location, error) {
	if c.PhotoTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.PhotoTimezone)
	if err != nil {
		return nil, fmt.Errorf("PHOTO_TIMEZONE %q: %w", c.PhotoTimezone, err)
	}
	return loc, nil
}
