package configs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Env struct {
		CurrentEnv string `yaml:"current_env"`
		BaseAPIUrl string `yaml:"base_api_url"`
	} `yaml:"env"`

	DB struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"dbname"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"redis_addr"`
		Password string `yaml:"redis_password"`
		DB       int    `yaml:"redis_db"`
	} `yaml:"redis"`

	JWT struct {
		AccessSecret  string `yaml:"access_secret"`
		RefreshSecret string `yaml:"refresh_secret"`
	} `yaml:"jwt"`

	Mail struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     string `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_username"`
		SMTPPassword string `yaml:"smtp_password"`
		SenderEmail  string `yaml:"sender_email"`
		EmailAPIKey  string `yaml:"email_api_key"`
	} `yaml:"mail"`

	Providers struct {
		GoogleClientID     string `yaml:"google_client_id"`
		GoogleClientSecret string `yaml:"google_client_secret"`
	} `yaml:"providers"`
}

func Load(env string) (*Config, error) {
	var cfg Config
	configFile := "dev.yml"

	if env == "production" {
		configFile = "prod.yml"
	}

	configPath := filepath.Join("internal", "configs", configFile)
	file, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	log.Printf("Loading config from: %s", configPath)

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	// Secrets come from the environment, the yml files only carry
	// ${VAR} placeholders for them.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	expandConfig(&cfg)

	if cfg.Env.CurrentEnv == "" {
		cfg.Env.CurrentEnv = env
	}

	return &cfg, nil
}

// MySQLDSN builds the driver DSN from the database section.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%d)/%s?parseTime=true",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
	)
}

func expandConfig(cfg *Config) {
	cfg.DB.Password = os.ExpandEnv(cfg.DB.Password)
	cfg.Redis.Password = os.ExpandEnv(cfg.Redis.Password)
	cfg.JWT.AccessSecret = os.ExpandEnv(cfg.JWT.AccessSecret)
	cfg.JWT.RefreshSecret = os.ExpandEnv(cfg.JWT.RefreshSecret)
	cfg.Mail.SMTPPassword = os.ExpandEnv(cfg.Mail.SMTPPassword)
	cfg.Mail.EmailAPIKey = os.ExpandEnv(cfg.Mail.EmailAPIKey)
	cfg.Providers.GoogleClientID = os.ExpandEnv(cfg.Providers.GoogleClientID)
	cfg.Providers.GoogleClientSecret = os.ExpandEnv(cfg.Providers.GoogleClientSecret)
}
