package config

import (
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
	"sigs.k8s.io/yaml"
)

type Config struct {
	// Port Settings
	Host        string `json:"host"`        // The domain name of the server.
	ServerAddr  string `json:"serverAddr"`  // The address the server endpoint binds to.
	MetricsAddr string `json:"metricsAddr"` // The address the metric endpoint binds to.

	// Frontend URL the OAuth callback redirects back to.
	FrontendURL string `json:"frontendURL"`

	// Timezone used for month-bucketed dashboard queries, e.g. "Asia/Bangkok".
	Timezone string `json:"timezone"`

	Auth struct {
		AccessTokenSecret  string `json:"accessTokenSecret"`
		RefreshTokenSecret string `json:"refreshTokenSecret"`
		AccessTokenTTLMin  int    `json:"accessTokenTTLMin"`  // access token lifetime in minutes
		RefreshTokenTTLDay int    `json:"refreshTokenTTLDay"` // refresh token lifetime in days
	} `json:"auth"`

	Google struct {
		ClientID     string `json:"clientID"`
		ClientSecret string `json:"clientSecret"`
		RedirectURL  string `json:"redirectURL"`
	} `json:"google"`

	Postgres struct {
		Host        string `json:"host"`
		Port        string `json:"port"`
		DBName      string `json:"dbname"`
		User        string `json:"user"`
		Password    string `json:"password"`
		SSLMode     string `json:"sslmode"`
		TimeZone    string `json:"TimeZone"`
		ReplicaHost string `json:"replicaHost"` // optional read replica for dashboard queries
		ReplicaPort string `json:"replicaPort"`
	} `json:"postgres"`

	Storage StorageConfig `json:"storage"`

	SMTP SMTPConfig `json:"smtp"`

	Reminder struct {
		Enable      bool   `json:"enable"`
		CronSpec    string `json:"cronSpec"`    // e.g. "0 9 * * MON"
		PendingDays int    `json:"pendingDays"` // projects pending longer than this are reported
	} `json:"reminder"`
}

type StorageConfig struct {
	Endpoint        string `json:"endpoint"` // S3-compatible endpoint (MinIO, R2, ...)
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyID"`
	SecretAccessKey string `json:"secretAccessKey"`
	UsePathStyle    bool   `json:"usePathStyle"`
	PresignTTLMin   int    `json:"presignTTLMin"`
}

type SMTPConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	From     string `json:"from"`
}

var (
	once   sync.Once
	config *Config
)

func GetConfig() *Config {
	once.Do(func() {
		config = initConfig()
	})
	return config
}

func IsDebugMode() bool {
	return gin.Mode() == gin.DebugMode
}

// initConfig reads the configuration file. In debug mode the path can be
// overridden with SDGHUB_DEBUG_CONFIG_PATH; in production the file comes
// from the ConfigMap mount.
func initConfig() *Config {
	config := &Config{}
	var configPath string
	if IsDebugMode() {
		if os.Getenv("SDGHUB_DEBUG_CONFIG_PATH") != "" {
			configPath = os.Getenv("SDGHUB_DEBUG_CONFIG_PATH")
		} else {
			configPath = "./etc/debug-config.yaml"
		}
	} else {
		configPath = "/etc/config/config.yaml"
	}
	klog.Info("config path: ", configPath)

	err := readConfig(configPath, config)
	if err != nil {
		klog.Error("init config", err)
		panic(err)
	}
	applyDefaults(config)
	return config
}

func readConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return err
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Auth.AccessTokenTTLMin == 0 {
		c.Auth.AccessTokenTTLMin = 15
	}
	if c.Auth.RefreshTokenTTLDay == 0 {
		c.Auth.RefreshTokenTTLDay = 7
	}
	if c.Storage.PresignTTLMin == 0 {
		c.Storage.PresignTTLMin = 60
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Bangkok"
	}
	if c.Reminder.PendingDays == 0 {
		c.Reminder.PendingDays = 7
	}
}
