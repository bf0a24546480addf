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

package database

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/automigrate/utils"
)

func TestEngineNotDefined(t *testing.T) {
	err := NewManager(&ConnectionConfig{}).Connect(context.Background())
	assert.ErrorIs(t, err, ErrEngineNotDefined)
	assert.Equal(t, "Engine isn't defined.", ErrEngineNotDefined.Error())

	_, err = NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{})
	assert.ErrorIs(t, err, ErrEngineNotDefined)

	_, err = InitDB(context.Background(), &ConnectionConfig{})
	assert.ErrorIs(t, err, ErrEngineNotDefined)
}

func TestUnsupportedType(t *testing.T) {
	_, err := NewDatabaseFactory().CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	assert.ErrorContains(t, err, "unsupported database type: oracle")

	err = NewManager(&ConnectionConfig{Type: "oracle"}).Connect(context.Background())
	assert.ErrorContains(t, err, "unsupported database type: oracle")
}

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(&ConnectionConfig{Type: "sqlite", DBName: "file:lifecycle?mode=memory&cache=shared"})
	assert.ErrorIs(t, m.Ping(context.Background()), ErrNotConnected)

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Connect(context.Background()))
	assert.NoError(t, m.Ping(context.Background()))
	assert.Equal(t, "sqlite", m.Dialect())
	assert.NotNil(t, m.GetDB())

	require.NoError(t, m.Disconnect())
	assert.Nil(t, m.GetDB())
	assert.NoError(t, m.Disconnect())
}

func TestGlobalDB(t *testing.T) {
	db, err := InitDB(context.Background(), &ConnectionConfig{Type: "sqlite3", DBName: "file:global?mode=memory&cache=shared"})
	require.NoError(t, err)
	assert.Same(t, db, GetDB())
	require.NoError(t, CloseDB())
	assert.Nil(t, GetDB())
	assert.NoError(t, CloseDB())
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, "file::memory:?cache=shared", sqliteDSN(""))
	assert.Equal(t, ":memory:", sqliteDSN(":memory:"))
	assert.Equal(t, "app.db", sqliteDSN("app"))
	assert.Equal(t, "data/app.db", sqliteDSN("data/app.db"))
	assert.Equal(t, "file:x?mode=memory", sqliteDSN("file:x?mode=memory"))
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "60")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := DefaultConnectionConfig()
	OverrideFromEnv(cfg)
	assert.Equal(t, "postgres", cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, time.Minute, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestIsSqlError(t *testing.T) {
	cases := []struct {
		err  error
		want SQLError
	}{
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, DuplicateKeyErr},
		{fmt.Errorf("wrapped: %w", &mysql.MySQLError{Number: 1146}), NoTableErr},
		{errors.New("SQL logic error: no such table: automigrate_migrations (1)"), NoTableErr},
		{errors.New("constraint failed: UNIQUE constraint failed: automigrate_migrations.id (2067)"), DuplicateKeyErr},
		{errors.New(`ERROR: duplicate key value violates unique constraint "pk" (SQLSTATE 23505)`), DuplicateKeyErr},
		{errors.New(`ERROR: column "x" does not exist (SQLSTATE 42703)`), NoColumnErr},
	}
	for _, c := range cases {
		is, kind := IsSqlError(c.err)
		assert.True(t, is, c.err.Error())
		assert.Equal(t, c.want, kind, c.err.Error())
	}

	is, _ := IsSqlError(errors.New("something else"))
	assert.False(t, is)
	is, _ = IsSqlError(nil)
	assert.False(t, is)
}

func TestDefaultLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	lg := logrus.New()
	lg.SetOutput(&buf)
	lg.SetFormatter(&utils.Log4jColorFormatter{LoggerName: LoggerName, DisableColors: true})

	l := NewDefaultLogger(lg)
	l.SetLevel(LogLevelDebug)
	l.Debug("Migration recorded", "app", "music", "statements", 3, "dangling")

	out := buf.String()
	assert.Contains(t, out, "[DATABASE]")
	assert.Contains(t, out, "Migration recorded app=music extra=dangling statements=3")

	buf.Reset()
	l.SetLevel(LogLevelError)
	l.Info("hidden")
	assert.Empty(t, buf.String())
}
