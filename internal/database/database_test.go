package database

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"newsletter/internal/config"
	"newsletter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantName string
		wantErr  bool
	}{
		{name: "Default sqlite", cfg: config.Config{}, wantName: "sqlite"},
		{name: "Explicit sqlite", cfg: config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"}, wantName: "sqlite"},
		{name: "Postgres", cfg: config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"}, wantName: "postgres"},
		{name: "Unknown", cfg: config.Config{DBDriver: "mysql"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, d.Name())
		})
	}
}

func TestOpen_MigratesPosts(t *testing.T) {
	db, err := Open(sqlite.Open(filepath.Join(t.TempDir(), "posts.db")))
	require.NoError(t, err)

	assert.True(t, db.Migrator().HasTable(&models.Post{}))

	post := models.Post{Title: "Hello", Content: "World"}
	require.NoError(t, db.Create(&post).Error)
	assert.Equal(t, 1, post.ID)

	var got models.Post
	require.NoError(t, db.First(&got, post.ID).Error)
	assert.True(t, got.Published, "published defaults to true")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, maxOpenConns, sqlDB.Stats().MaxOpenConnections)
}

func TestCustomGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   logger.LogLevel
		elapsed time.Duration
		err     error
		want    string
	}{
		{name: "Query error", level: logger.Warn, err: errors.New("boom"), want: "GORM query error"},
		{name: "Record not found ignored", level: logger.Warn, err: gorm.ErrRecordNotFound, want: ""},
		{name: "Slow query", level: logger.Warn, elapsed: time.Second, want: "GORM slow query"},
		{name: "Info query", level: logger.Info, want: "GORM query"},
		{name: "Silent", level: logger.Silent, err: errors.New("boom"), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewGormLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
			gl := l.LogMode(tt.level)

			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed), func() (string, int64) {
				return "SELECT 1", 1
			}, tt.err)

			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "SELECT 1")
		})
	}
}
