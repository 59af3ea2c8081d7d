package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ordrebog/ordrebog/internal/flagx"
	"github.com/ordrebog/ordrebog/internal/timex"
)

// JsonConfig is the intermediate DTO used only for reading JSON config
// files. Interval fields use timex.Duration, which accepts both strings
// such as "1s" and integer nanoseconds. After unmarshalling, set fields
// are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP           *string         `json:"endpoint_addr_http"`
	StorageDriver              *string         `json:"storage_driver"`
	DatabaseDSN                *string         `json:"database_dsn"`
	DataDir                    *string         `json:"data_dir"`
	TelegramToken              *string         `json:"telegram_token"`
	TelegramChatID             *int64          `json:"telegram_chat_id"`
	AdminKeyHash               *string         `json:"admin_key_hash"`
	SecretKey                  *string         `json:"secret_key"`
	AdminTokenValidityDuration *timex.Duration `json:"admin_token_validity_duration"`
	SessionPrefix              *string         `json:"session_prefix"`
	StatsExcludeItems          []string        `json:"stats_exclude_items"`
	RetryAttempts              *uint64         `json:"retry_attempts"`
	RetryBaseDelay             *timex.Duration `json:"retry_base_delay"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. Absent fields keep their
// current values. If the file cannot be read or contains invalid JSON,
// the function panics: a broken config file should stop startup.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrHTTP != nil {
		config.EndpointAddrHTTP = *c.EndpointAddrHTTP
	}
	if c.StorageDriver != nil {
		config.StorageDriver = *c.StorageDriver
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.DataDir != nil {
		config.DataDir = *c.DataDir
	}
	if c.TelegramToken != nil {
		config.TelegramToken = *c.TelegramToken
	}
	if c.TelegramChatID != nil {
		config.TelegramChatID = *c.TelegramChatID
	}
	if c.AdminKeyHash != nil {
		config.AdminKeyHash = *c.AdminKeyHash
	}
	if c.SecretKey != nil {
		config.SecretKey = *c.SecretKey
	}
	if c.AdminTokenValidityDuration != nil {
		config.AdminTokenValidityDuration = time.Duration(c.AdminTokenValidityDuration.Duration)
	}
	if c.SessionPrefix != nil {
		config.SessionPrefix = *c.SessionPrefix
	}
	if c.StatsExcludeItems != nil {
		config.StatsExcludeItems = c.StatsExcludeItems
	}
	if c.RetryAttempts != nil {
		config.RetryAttempts = *c.RetryAttempts
	}
	if c.RetryBaseDelay != nil {
		config.RetryBaseDelay = time.Duration(c.RetryBaseDelay.Duration)
	}
}
