package config

import (
    "strings"
    "testing"
    "time"
)

func TestParseIDs(t *testing.T) {
    ids, err := ParseIDs(" 10, 20,,30 ")
    if err != nil {
        t.Fatal(err)
    }
    if len(ids) != 3 || ids[0] != 10 || ids[2] != 30 {
        t.Fatalf("unexpected ids: %v", ids)
    }
    if _, err := ParseIDs("10,abc"); err == nil {
        t.Fatalf("expected error for non numeric id")
    }
    if ids, _ := ParseIDs(""); len(ids) != 0 {
        t.Fatalf("expected no ids, got %v", ids)
    }
}

func TestLoad_MemoryDriver(t *testing.T) {
    t.Setenv("BOT_TOKEN", "123:abc")
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("ADMINS", "1,2")
    t.Setenv("REQUIRED_CHANNELS", "@news, -100123")
    t.Setenv("BROADCAST_CONCURRENCY", "0")

    cfg, err := Load()
    if err != nil {
        t.Fatalf("load: %v", err)
    }
    if cfg.StoreDriver != DriverMemory {
        t.Fatalf("driver = %q", cfg.StoreDriver)
    }
    if len(cfg.Admins) != 2 || cfg.Admins[1] != 2 {
        t.Fatalf("admins = %v", cfg.Admins)
    }
    if len(cfg.RequiredChannels) != 2 || cfg.RequiredChannels[1] != "-100123" {
        t.Fatalf("channels = %v", cfg.RequiredChannels)
    }
    if cfg.BroadcastConcurrency != 1 {
        t.Fatalf("concurrency should be clamped to 1, got %d", cfg.BroadcastConcurrency)
    }
}

func TestLoad_ReportsAllMissing(t *testing.T) {
    t.Setenv("BOT_TOKEN", "")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_NAME", "")

    _, err := Load()
    if err == nil {
        t.Fatalf("expected error")
    }
    for _, key := range []string{"BOT_TOKEN", "DB_USER", "DB_NAME"} {
        if !strings.Contains(err.Error(), key) {
            t.Fatalf("error %q should mention %s", err, key)
        }
    }
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()
    if cfg.Capacity != 1 {
        t.Fatalf("capacity = %d", cfg.Capacity)
    }
    if cfg.TTL != 10*time.Second {
        t.Fatalf("ttl should be raised to 5 intervals, got %s", cfg.TTL)
    }
}

func TestLoadBase_IgnoresBotAndStoreSettings(t *testing.T) {
    t.Setenv("BOT_TOKEN", "")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_NAME", "")
    t.Setenv("ADMINS", "7")
    t.Setenv("JWT_SECRET", "s3cret")

    cfg, err := LoadBase()
    if err != nil {
        t.Fatalf("load base: %v", err)
    }
    if cfg.JWTSecret != "s3cret" || len(cfg.Admins) != 1 || cfg.Admins[0] != 7 {
        t.Fatalf("unexpected config %+v", cfg)
    }

    t.Setenv("ADMINS", "x")
    if _, err := LoadBase(); err == nil || !strings.Contains(err.Error(), "ADMINS") {
        t.Fatalf("bad ADMINS should still fail, got %v", err)
    }
}
