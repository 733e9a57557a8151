package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Remote backends.
const (
	BackendMemory    = "memory"
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Local  LocalConfig  `mapstructure:"local"`
	Remote RemoteConfig `mapstructure:"remote"`
	S3     S3Config     `mapstructure:"s3"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Backup BackupConfig `mapstructure:"backup"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// LocalConfig points at the SQLite file holding the local snapshot.
type LocalConfig struct {
	Path string `mapstructure:"path"`
}

// RemoteConfig selects and configures the cloud document store.
type RemoteConfig struct {
	Backend   string          `mapstructure:"backend"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Firestore FirestoreConfig `mapstructure:"firestore"`
}

type MongoConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type FirestoreConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Enabled reports whether export uploads are configured.
func (c S3Config) Enabled() bool {
	return c.BucketName != ""
}

// JWTConfig configures the ID tokens consumed by sign-in.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// BackupConfig configures uploaded exports.
type BackupConfig struct {
	Prefix    string        `mapstructure:"prefix"`
	URLExpiry time.Duration `mapstructure:"url_expiry"`
}

// LoadConfig reads configuration from path/config.yaml and the environment.
// Nested keys map to upper-case variables: remote.backend -> REMOTE_BACKEND.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("local.path", "fitness-tracker.db")
	v.SetDefault("remote.backend", BackendMemory)
	v.SetDefault("remote.mongo.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("remote.mongo.name", "fitness_tracker")
	v.SetDefault("remote.firestore.project_id", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("backup.prefix", "exports")
	v.SetDefault("backup.url_expiry", "15m")

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		// No file: defaults and environment only.
		err = nil
	} else if err != nil {
		return
	}

	if err = v.Unmarshal(&config); err != nil {
		return
	}

	switch config.Remote.Backend {
	case BackendMemory, BackendMongo, BackendFirestore:
	default:
		return config, fmt.Errorf("unknown remote backend %q", config.Remote.Backend)
	}
	return config, nil
}
