package config

import (
	"flag"
	"os"
	"strings"

	"github.com/ordrebog/ordrebog/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line
// flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-s string   storage driver: file | sqlite | postgres
//	-d string   database DSN (sqlite path or postgres DSN)
//	-f string   data directory for the file driver
//	-t string   Telegram bot token
//	-i int      Telegram chat ID accepting order messages
//	-k string   bcrypt hash of the web admin key
//	-j string   JWT HMAC secret key
//	-p string   session name prefix
//	-x string   comma-separated items excluded from favorite-item stats
//
// The function first filters os.Args to only the flags it recognizes
// using flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-s", "-d", "-f", "-t", "-i", "-k", "-j", "-p", "-x"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port for the admin web view")
	fs.StringVar(&config.StorageDriver, "s", config.StorageDriver, "storage driver (file, sqlite, postgres)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory for the file driver")
	fs.StringVar(&config.TelegramToken, "t", config.TelegramToken, "telegram bot token")
	fs.Int64Var(&config.TelegramChatID, "i", config.TelegramChatID, "telegram chat id")
	fs.StringVar(&config.AdminKeyHash, "k", config.AdminKeyHash, "bcrypt hash of the admin key")
	fs.StringVar(&config.SecretKey, "j", config.SecretKey, "secret key for admin session tokens")
	fs.StringVar(&config.SessionPrefix, "p", config.SessionPrefix, "session name prefix")

	exclude := fs.String("x", strings.Join(config.StatsExcludeItems, ","), "items excluded from favorite-item stats")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *exclude == "" {
		config.StatsExcludeItems = nil
	} else {
		config.StatsExcludeItems = strings.Split(*exclude, ",")
	}
}
