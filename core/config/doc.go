// Package config provides type-safe environment variable loading with
// per-type caching. Each configuration type is parsed once and cached, so
// configuration is stable for the process lifetime.
//
// A .env file, if present, is loaded into the environment once before the
// first parse. Parsing uses the caarlos0/env library, so struct fields carry
// the usual env tags.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/sessionkit/core/config"
//
//	type DatabaseConfig struct {
//		Host     string `env:"DB_HOST" envDefault:"localhost"`
//		Port     int    `env:"DB_PORT" envDefault:"5432"`
//		Username string `env:"DB_USER,required"`
//		Password string `env:"DB_PASS,required"`
//	}
//
//	func main() {
//		var db DatabaseConfig
//
//		// Load with error handling
//		if err := config.Load(&db); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure, for startup paths
//		config.MustLoad(&db)
//	}
//
// The session storage backends define their own Config structs in this style;
// see the integration/database packages.
package config
