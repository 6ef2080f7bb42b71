// Package config loads application configuration from environment
// variables into tagged structs, wrapping github.com/caarlos0/env and
// github.com/joho/godotenv.
//
//	type ServerConfig struct {
//	    Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	config.MustLoad(&cfg)
//
// The default .env file in the working directory is loaded once per
// process when present; explicit files go through LoadEnv.
package config
