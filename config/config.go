package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// AppConfig holds the application-level configuration
type AppConfig struct {
	APIBase       string `mapstructure:"api_base"`
	UserAgent     string `mapstructure:"user_agent"`
	CredStorePath string `mapstructure:"cred_store_path"`
	Debug         bool   `mapstructure:"debug"`
}

var Config *AppConfig

func LoadConfig(path string) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AutomaticEnv()

	viper.SetDefault("api_base", "https://www.123pan.com")
	viper.SetDefault("user_agent", "123pan/v2.4.0(Android_7.1.2;Xiaomi)")
	viper.SetDefault("cred_store_path", "./data/credentials")
	viper.SetDefault("debug", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("could not read config file, using defaults: %v", err)
	}

	var appConfig AppConfig
	if err := viper.Unmarshal(&appConfig); err != nil {
		log.Fatalf("unable to decode config into struct: %v", err)
	}

	Config = &appConfig

	fmt.Println("configuration loaded")
}
