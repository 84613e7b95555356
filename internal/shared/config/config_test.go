package config

import (
	"os"
	"path/filepath"
	"testing"

	"connprobe/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadIni_MissingFileKeepsDefaults(t *testing.T) {
	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")))

	assert.Equal(t, "info", cfg.LogConf.Level)
	assert.Equal(t, 80, cfg.PeerConf.Port)
	assert.Equal(t, 32, cfg.PeerConf.MaxConnections)
}

func TestLoadIni_MapsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connprobe.ini")
	content := "[log]\nlevel = debug\n\n[peer]\nhost = 127.0.0.1\nport = 9088\nmaxConnections = 4\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, path))

	assert.Equal(t, "debug", cfg.LogConf.Level)
	assert.Equal(t, "127.0.0.1", cfg.PeerConf.Host)
	assert.Equal(t, 9088, cfg.PeerConf.Port)
	assert.Equal(t, 4, cfg.PeerConf.MaxConnections)
	// 未出现在文件中的键保留默认值
	assert.Equal(t, 1024, cfg.PeerConf.BufferSize)
}

func TestLoadIni_EnvOverrides(t *testing.T) {
	t.Setenv("PEER_PORT", "7000")
	t.Setenv("LOG_LEVEL", "warn")

	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")))

	assert.Equal(t, 7000, cfg.PeerConf.Port)
	assert.Equal(t, "warn", cfg.LogConf.Level)
}

func TestLoadIni_IgnoresNonNumericPort(t *testing.T) {
	t.Setenv("PEER_PORT", "eighty")

	cfg := types.DefaultConfig()
	require.NoError(t, LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")))

	assert.Equal(t, 80, cfg.PeerConf.Port)
}

func TestLoadLogConf_IgnoresEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("PEER_PORT", "7000")

	path := filepath.Join(t.TempDir(), "connprobe.ini")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nlevel = error\n\n[peer]\nport = 9088\n"), 0644))

	conf := types.LogConf{Level: "warn"}
	require.NoError(t, LoadLogConf(&conf, path))
	assert.Equal(t, "error", conf.Level)

	conf = types.LogConf{Level: "warn"}
	require.NoError(t, LoadLogConf(&conf, filepath.Join(t.TempDir(), "absent.ini")))
	assert.Equal(t, "warn", conf.Level)
}

func TestLoadLogConf_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connprobe.ini")
	require.NoError(t, os.WriteFile(path, []byte("[log\nlevel = error\n"), 0644))

	conf := types.LogConf{Level: "warn"}
	assert.Error(t, LoadLogConf(&conf, path))
	assert.Equal(t, "warn", conf.Level)
}
