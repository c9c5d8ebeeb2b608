// Package config provides configuration management for the service map.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file. Nested keys map to underscored variables, so
// feed.transport is read from FEED_TRANSPORT.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key, map provider)
//   - Database: Provider snapshot database (mysql, postgres, sqlite)
//   - Storage: S3/MinIO credentials, bucket and SDK script prefix
//   - Log: Logging level and format
//   - SDK: Script locator, credential endpoint and load timeout
//   - Geolocation: Position request options and the fixed-position locator
//   - Feed: Realtime transport (postgres, nats, amqp, websocket, memory)
//   - Map: Surface, viewport, region padding and zoom settings
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
