package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lguibr/voxelrealm/script"
)

func TestLoadWithEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadWithMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := "tick_rate_hz: 30\nerror_mode: halt\ndefault_max_players: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 30, cfg.TickRateHz)
	require.Equal(t, "halt", cfg.ErrorMode)
	require.Equal(t, 4, cfg.DefaultMaxPlayers)
	require.Equal(t, DefaultConfig().WalkSpeed, cfg.WalkSpeed)
}

func TestTickPeriodMatchesTickRateHz(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickRateHz = 60
	require.Equal(t, time.Second/60, cfg.TickPeriod())
}

func TestScriptErrorModeMapsHaltAndContinue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ErrorMode = "halt"
	require.Equal(t, script.ErrorModeHalt, cfg.ScriptErrorMode())

	cfg.ErrorMode = "continue"
	require.Equal(t, script.ErrorModeContinue, cfg.ScriptErrorMode())
}

func TestAFKTimeoutConvertsSeconds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AFKTimeoutSeconds = 120
	require.Equal(t, 120*time.Second, cfg.AFKTimeout())
}
