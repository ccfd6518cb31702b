package lib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 3, cfg.PageSize)
	assert.Equal(t, 10*time.Second, cfg.StoreTimeout)
	assert.Equal(t, StoreMemory, cfg.StoreDriver)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/friends.db")
	t.Setenv("FRIEND_PAGE_SIZE", "10")
	t.Setenv("STORE_TIMEOUT", "2s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/friends.db", cfg.SQLitePath)
	assert.Equal(t, 10, cfg.PageSize)
	assert.Equal(t, 2*time.Second, cfg.StoreTimeout)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	testCases := map[string][2]string{
		"unknown driver": {"STORE_DRIVER", "redis"},
		"zero page size": {"FRIEND_PAGE_SIZE", "0"},
		"bad timeout":    {"STORE_TIMEOUT", "soon"},
	}
	for name, kv := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORE_DRIVER", "memory")
			t.Setenv(kv[0], kv[1])
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
