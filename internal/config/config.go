package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port        string `yaml:"port"`
	DBURL       string `yaml:"dbUrl"` // empty = in-memory store
	AutoMigrate bool   `yaml:"autoMigrate"`
	Workers     int    `yaml:"workers"`
	QueueSize   int    `yaml:"queueSize"`
}

func def() Config {
	return Config{
		Port:        "8080",
		DBURL:       "",
		AutoMigrate: true,
		Workers:     4,
		QueueSize:   64,
	}
}

func loadYAML(path string) (Config, error) {
	c := def()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, nil
}

func getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

func getenvBool(k string, fallback bool) bool {
	if v, ok := os.LookupEnv(k); ok {
		v = strings.TrimSpace(strings.ToLower(v))
		if v == "1" || v == "true" || v == "yes" {
			return true
		}
		if v == "0" || v == "false" || v == "no" {
			return false
		}
	}
	return fallback
}

func getenvInt(k string, fallback int) int {
	if v, ok := os.LookupEnv(k); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return fallback
}

// Load reads the YAML file if it exists, then applies ENV and flags.
func Load(yamlPath string) Config {
	cfg := def()

	if st, err := os.Stat(yamlPath); err == nil && !st.IsDir() {
		if c2, err := loadYAML(yamlPath); err == nil {
			cfg = c2
		}
	}

	// ENV overrides
	cfg.Port = getenv("CANVASS_PORT", cfg.Port)
	cfg.DBURL = getenv("CANVASS_DB_URL", cfg.DBURL)
	cfg.AutoMigrate = getenvBool("CANVASS_AUTO_MIGRATE", cfg.AutoMigrate)
	cfg.Workers = getenvInt("CANVASS_WORKERS", cfg.Workers)
	cfg.QueueSize = getenvInt("CANVASS_QUEUE_SIZE", cfg.QueueSize)

	// Flag overrides
	port := flag.String("port", cfg.Port, "HTTP port")
	db := flag.String("db", cfg.DBURL, "Postgres URL (empty = in-memory)")
	auto := flag.Bool("auto-migrate", cfg.AutoMigrate, "Apply schema at startup")
	workers := flag.Int("workers", cfg.Workers, "Background worker count")
	queue := flag.Int("queue-size", cfg.QueueSize, "Background job queue size")
	flag.Parse()

	cfg.Port = strings.TrimSpace(*port)
	cfg.DBURL = strings.TrimSpace(*db)
	cfg.AutoMigrate = *auto
	cfg.Workers = *workers
	cfg.QueueSize = *queue

	return cfg
}
