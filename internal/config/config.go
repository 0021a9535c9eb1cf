// Package config provides configuration types, defaults, and loading for
// minegate. Values come from a YAML config file plus MINEGATE_* environment
// variables; environment wins over file, flags win over both.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/minegate/minegate/internal/paths"
)

// DownstreamConfig describes the execution service that consumes the
// projects document.
type DownstreamConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ElasticsearchConfig carries the search-index base URL used when filling
// the single-repository entry template.
type ElasticsearchConfig struct {
	URL string `mapstructure:"url"`
}

// Config holds all configuration options for minegate.
type Config struct {
	ListenAddr    string              `mapstructure:"listen_addr"`
	ProjectsFile  string              `mapstructure:"projects_file"`
	AuditDB       string              `mapstructure:"audit_db"`
	GitCommit     bool                `mapstructure:"git_commit"`
	Downstream    DownstreamConfig    `mapstructure:"downstream"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:   ":10000",
		ProjectsFile: paths.DefaultProjectsPath(),
		AuditDB:      paths.DefaultAuditDBPath(),
		GitCommit:    false,
		Downstream: DownstreamConfig{
			URL:     "http://localhost:9000",
			Timeout: 300 * time.Second,
		},
		Elasticsearch: ElasticsearchConfig{
			URL: "http://localhost:9200",
		},
	}
}

// Load reads configuration from the given file (empty means the default
// search path) and the environment, layered over Defaults.
func Load(cfgFile string) (Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("projects_file", d.ProjectsFile)
	v.SetDefault("audit_db", d.AuditDB)
	v.SetDefault("git_commit", d.GitCommit)
	v.SetDefault("downstream.url", d.Downstream.URL)
	v.SetDefault("downstream.timeout", "300s")
	v.SetDefault("elasticsearch.url", d.Elasticsearch.URL)

	v.SetEnvPrefix("MINEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(paths.DefaultConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("minegate")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file on the default search path is fine; an explicit
		// --config that cannot be read, or a malformed file, is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
