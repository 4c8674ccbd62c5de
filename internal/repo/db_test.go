package repo

import (
	"context"
	"testing"
	"time"

	"truco-service/internal/config"
	"truco-service/internal/model"
)

func TestOpenDBMigratesHistory(t *testing.T) {
	db, err := OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if !db.Migrator().HasTable(&model.HandRecord{}) || !db.Migrator().HasTable(&model.SetRecord{}) {
		t.Fatalf("history tables not migrated")
	}
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB(config.DatabaseConfig{Driver: "oracle", DSN: "x"}); err == nil {
		t.Fatalf("expected an error for an unknown driver")
	}
}

func TestOpenRedisFailsWithoutServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := OpenRedis(ctx, config.RedisConfig{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatalf("expected an error when redis is unreachable")
	}
}
