package config

import "flag"

// RegisterFlags binds configuration flags to fs. The caller parses fs
// after registering its own flags, so values here are overlaid only
// once parsing happens.
//
// Supported flags:
//
//	-a string    HTTP bind address
//	-d string    SQLite database file path
//	-s string    JWT HMAC secret
//	-l string    log level (debug, info, warn, error)
//	-t duration  access token validity (e.g. 15m)
//	-r duration  refresh token validity (e.g. 720h)
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Addr, "a", c.Addr, "address and port to run server")
	fs.StringVar(&c.DatabasePath, "d", c.DatabasePath, "SQLite database file path")
	fs.StringVar(&c.JWTSecret, "s", c.JWTSecret, "JWT secret key")
	fs.StringVar(&c.LogLevel, "l", c.LogLevel, "log level")
	fs.DurationVar(&c.AccessTokenTTL, "t", c.AccessTokenTTL, "access token validity")
	fs.DurationVar(&c.RefreshTokenTTL, "r", c.RefreshTokenTTL, "refresh token validity")
}
