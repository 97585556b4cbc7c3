package config

import (
	_ "embed"
	"errors"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"code-sourcery.de/time-elapsed/common"
	"code-sourcery.de/time-elapsed/elapsed"
	"code-sourcery.de/time-elapsed/logger"
	"code-sourcery.de/time-elapsed/ratelimit"
	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

//go:embed default-config.conf
var DEFAULT_CONFIG []byte

// environment variables taking precedence over the config file
const (
	ENV_REST_USER     = "ELAPSED_REST_USER"
	ENV_REST_PASSWORD = "ELAPSED_REST_PASSWORD"
	ENV_LOG_LEVEL     = "ELAPSED_LOG_LEVEL"
)

type TlsConfig struct {
	CertFilePath       string
	PrivateKeyFilePath string
}

type Config struct {
	// common
	logLevel logger.LogLevel
	// REST API
	restUser     string
	restPassword string
	restPort     int
	bindIp       string
	rateLimit    *ratelimit.Limit
	tlsConfig    *TlsConfig
	// elapsed
	defaultUnit string
	location    *time.Location
	thresholds  []*elapsed.Threshold
}

var log = logger.GetLogger("config")

func fail(msg string) (*Config, error) {
	log.Error(msg)
	return nil, errors.New(msg)
}

// LoadEnv reads KEY=VALUE pairs from a .env file into the process environment
// without overwriting variables that are already set. A missing file is only
// an error if the caller named it explicitly.
func LoadEnv(path string, required bool) error {
	if !required && !common.FileExist(path) {
		log.Debug("No environment file " + path + ", skipping")
		return nil
	}
	err := godotenv.Load(path)
	if err != nil {
		log.Error("Failed to load environment file " + path + ": " + err.Error())
		return err
	}
	log.Info("Loaded environment from " + path)
	return nil
}

func LoadConfig(path string, createIfMissing bool) (*Config, error) {

	if !common.FileExist(path) {
		if !createIfMissing {
			return nil, errors.New("Config file does not exist: " + path)
		}
		err := os.WriteFile(path, DEFAULT_CONFIG, 0600)
		if err != nil {
			return fail("Config file " + path + " does not exist and creating a default file failed with error " + err.Error())
		}
		return fail("Config file " + path + " does not exist, creating a default file you need to customize.")
	}
	cfg, err := ini.Load(path)
	if err != nil {
		return fail("Failed to load config file " + path + ": " + err.Error())
	}
	return parse(cfg)
}

// LoadConfigFromBytes parses configuration held in memory, e.g. DEFAULT_CONFIG.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return fail("Failed to parse configuration: " + err.Error())
	}
	return parse(cfg)
}

func parse(cfg *ini.File) (*Config, error) {

	var result Config
	var convError error

	// [common] logLevel
	logLvl := envOr(ENV_LOG_LEVEL, cfg.Section("common").Key("logLevel").MustString("INFO"))
	result.logLevel, convError = logger.StringToLevel(logLvl)
	if convError != nil {
		return fail("Invalid configuration value for key 'logLevel' in [common] section " + convError.Error())
	}

	// [restapi] bindIp
	result.bindIp = cfg.Section("restapi").Key("bindIp").String()
	if common.IsBlank(result.bindIp) {
		return fail("Invalid configuration value for key 'bindIp' in [restapi] section - value cannot be empty/missing/blank")
	}

	// [restapi] user
	result.restUser = envOr(ENV_REST_USER, cfg.Section("restapi").Key("user").String())
	if common.IsBlank(result.restUser) {
		return fail("Invalid configuration value for key 'user' in [restapi] section - value cannot be empty/missing/blank")
	}

	// [restapi] password
	result.restPassword = envOr(ENV_REST_PASSWORD, cfg.Section("restapi").Key("password").String())
	if common.IsBlank(result.restPassword) {
		return fail("Invalid configuration value for key 'password' in [restapi] section - value cannot be empty/missing/blank")
	}

	// [restapi] port
	result.restPort, convError = cfg.Section("restapi").Key("port").Int()
	if convError != nil {
		return fail("Invalid configuration value for key 'port' in [restapi] section " + convError.Error())
	}
	if result.restPort < 1 || result.restPort > 65535 {
		return fail("Invalid configuration value for key 'port' in [restapi] section - must be within 1..65535")
	}

	// [restapi] rateLimit
	result.rateLimit, convError = ratelimit.Parse(cfg.Section("restapi").Key("rateLimit").String())
	if convError != nil {
		return fail("Invalid configuration value for key 'rateLimit' in [restapi] section " + convError.Error())
	}
	if result.rateLimit != nil {
		log.Info("Rate limit: " + result.rateLimit.String())
	} else {
		log.Info("Rate limit not configured")
	}

	// [restapi] certFile / keyFile
	certFile := strings.TrimSpace(cfg.Section("restapi").Key("certFile").String())
	keyFile := strings.TrimSpace(cfg.Section("restapi").Key("keyFile").String())
	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			return fail("Either none or both of [restapi] certFile and keyFile need to be specified")
		}
		result.tlsConfig = &TlsConfig{CertFilePath: certFile, PrivateKeyFilePath: keyFile}
	}

	// [elapsed] defaultUnit
	result.defaultUnit = strings.ToLower(strings.TrimSpace(cfg.Section("elapsed").Key("defaultUnit").MustString(elapsed.DefaultUnit)))
	if !elapsed.IsValidTimeUnit(result.defaultUnit) {
		return fail("Invalid configuration value for key 'defaultUnit' in [elapsed] section - '" + result.defaultUnit +
			"' is not one of " + strings.Join(elapsed.ValidTimeUnits, ", "))
	}

	// [elapsed] timezone
	tz := strings.TrimSpace(cfg.Section("elapsed").Key("timezone").MustString("UTC"))
	result.location, convError = time.LoadLocation(tz)
	if convError != nil {
		return fail("Invalid configuration value for key 'timezone' in [elapsed] section " + convError.Error())
	}

	// [thresholds]
	if cfg.HasSection("thresholds") {
		for _, key := range cfg.Section("thresholds").Keys() {
			threshold, err := elapsed.ParseThreshold(key.Name(), key.String())
			if err != nil {
				return fail("Invalid configuration value for key '" + key.Name() + "' in [thresholds] section - " + err.Error())
			}
			log.Debug("Threshold '" + threshold.Name + "': " + threshold.String())
			result.thresholds = append(result.thresholds, threshold)
		}
	}
	return &result, nil
}

func envOr(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && !common.IsBlank(value) {
		return value
	}
	return fallback
}

func (c Config) GetBindIp() string {
	return c.bindIp
}

func (c Config) GetBindPort() int {
	return c.restPort
}

func (c Config) GetUserName() string {
	return c.restUser
}

func (c Config) GetPassword() string {
	return c.restPassword
}

func (c Config) GetTLSConfig() *TlsConfig {
	return c.tlsConfig
}

func (c Config) GetRateLimit() *ratelimit.Limit {
	return c.rateLimit
}

func (c Config) GetLogLevel() logger.LogLevel {
	return c.logLevel
}

func (c Config) GetDefaultUnit() string {
	return c.defaultUnit
}

func (c Config) GetLocation() *time.Location {
	return c.location
}

func (c Config) GetThresholds() []*elapsed.Threshold {
	result := make([]*elapsed.Threshold, len(c.thresholds))
	copy(result, c.thresholds)
	return result
}

func (c Config) GetThreshold(name string) *elapsed.Threshold {
	for _, threshold := range c.thresholds {
		if threshold.Name == name {
			clone := *threshold
			return &clone
		}
	}
	return nil
}
