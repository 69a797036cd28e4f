/*
Copyright 2024 LedgerLink Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT = "5401"
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"LEDGERLINK_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"LEDGERLINK_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"LEDGERLINK_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"LEDGERLINK_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"LEDGERLINK_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"LEDGERLINK_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"LEDGERLINK_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"LEDGERLINK_REDIS_DNS"`
}

type TracingConfig struct {
	Endpoint string `json:"endpoint" envconfig:"LEDGERLINK_OTLP_ENDPOINT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"LEDGERLINK_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"LEDGERLINK_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"LEDGERLINK_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

// OverviewCacheConfig controls the presentation-layer cache in front of the
// matching overview query. The engine itself never caches.
type OverviewCacheConfig struct {
	Enabled    bool `json:"enabled" envconfig:"LEDGERLINK_OVERVIEW_CACHE_ENABLED"`
	TTLSeconds int  `json:"ttl_seconds" envconfig:"LEDGERLINK_OVERVIEW_CACHE_TTL_SEC"`
}

type Configuration struct {
	ProjectName   string              `json:"project_name" envconfig:"LEDGERLINK_PROJECT_NAME"`
	Server        ServerConfig        `json:"server"`
	DataSource    DataSourceConfig    `json:"data_source"`
	Redis         RedisConfig         `json:"redis"`
	Tracing       TracingConfig       `json:"tracing"`
	RateLimit     RateLimitConfig     `json:"rate_limit"`
	OverviewCache OverviewCacheConfig `json:"overview_cache"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("ledgerlink", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called ledgerlink.json with your config")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "LedgerLink Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	// The overview cache needs Redis; without it the API serves uncached.
	if cnf.OverviewCache.Enabled && cnf.Redis.Dns == "" {
		log.Println("Warning: Overview cache enabled without a Redis DNS. Disabling cache.")
		cnf.OverviewCache.Enabled = false
	}
	if cnf.OverviewCache.TTLSeconds <= 0 {
		cnf.OverviewCache.TTLSeconds = 30
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
		log.Printf("Warning: Rate limit cleanup interval not specified. Setting default value: %d seconds", defaultCleanup)
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
