/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/tomoncle/automigrate/database"
)

const (
	configName = ".automigrate"
	envPrefix  = "AUTOMIGRATE"
)

// LoadConfig reads the configuration from file, or from .automigrate.yaml
// in the working directory, the home directory or ~/.config/automigrate.
// AUTOMIGRATE_* variables override file values, e.g.
// AUTOMIGRATE_MIGRATION_APP for migration.app.
func LoadConfig(fs afero.Fs, file string) (*database.Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yaml")
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
			v.AddConfigPath(filepath.Join(home, ".config", "automigrate"))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if _, err := fs.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			database.GetLogger().Warn("Failed to load .env", "error", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := database.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	database.OverrideFromEnv(&cfg.Connection)
	return cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can see it.
func setDefaults(v *viper.Viper) {
	def := database.DefaultConfig()
	conn := def.Connection
	for key, value := range map[string]interface{}{
		"connection.type":               conn.Type,
		"connection.host":               conn.Host,
		"connection.port":               conn.Port,
		"connection.username":           conn.Username,
		"connection.password":           conn.Password,
		"connection.dbname":             conn.DBName,
		"connection.sslmode":            conn.SSLMode,
		"connection.max_idle_conns":     conn.MaxIdleConns,
		"connection.max_open_conns":     conn.MaxOpenConns,
		"connection.conn_max_lifetime":  conn.ConnMaxLifetime,
		"connection.conn_max_idle_time": conn.ConnMaxIdleTime,
		"connection.connect_timeout":    conn.ConnectTimeout,
		"connection.read_timeout":       conn.ReadTimeout,
		"connection.write_timeout":      conn.WriteTimeout,
		"connection.enable_query_log":   conn.EnableQueryLog,
		"connection.slow_query_time":    conn.SlowQueryTime,
		"migration.app":                 def.Migration.App,
		"migration.snapshot_dir":        def.Migration.SnapshotDir,
		"migration.foreign_key_file":    def.Migration.ForeignKeyFile,
	} {
		v.SetDefault(key, value)
	}
}

// migrationFileName turns a migration id into a file name usable as a Go
// source file, e.g. music_2025_01_02t15_04_05_123456.go.
func migrationFileName(app, id string) string {
	r := strings.NewReplacer("-", "_", ":", "_", "T", "t")
	return app + "_" + r.Replace(id) + ".go"
}
