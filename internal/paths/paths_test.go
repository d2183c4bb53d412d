package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/broom", got)
	})

	t.Run("falls back to ~/.config when XDG unset", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := DefaultConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "broom"), got)
	})
}

func TestResolveConfigDir(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		envVal  string
		wantSub string // substring the result must contain
	}{
		{
			name:    "flag wins over env",
			flag:    "/explicit/config",
			envVal:  "/env/config",
			wantSub: "/explicit/config",
		},
		{
			name:    "env wins when flag empty",
			flag:    "",
			envVal:  "/env/config",
			wantSub: "/env/config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvConfigDir, tt.envVal)
			got, err := ResolveConfigDir(tt.flag)
			require.NoError(t, err)
			assert.Contains(t, got, tt.wantSub)
		})
	}
}

func TestResolveStateDir(t *testing.T) {
	t.Run("flag wins over all", func(t *testing.T) {
		t.Setenv(EnvStateDir, "/env/state")
		got, err := ResolveStateDir("/flag/state", "/config/state")
		require.NoError(t, err)
		assert.Equal(t, "/flag/state", got)
	})

	t.Run("config value wins over env", func(t *testing.T) {
		t.Setenv(EnvStateDir, "/env/state")
		got, err := ResolveStateDir("", "/config/state")
		require.NoError(t, err)
		assert.Equal(t, "/config/state", got)
	})

	t.Run("env wins over default", func(t *testing.T) {
		t.Setenv(EnvStateDir, "/env/state")
		got, err := ResolveStateDir("", "")
		require.NoError(t, err)
		assert.Equal(t, "/env/state", got)
	})

	t.Run("defaults to CWD-relative .broom", func(t *testing.T) {
		t.Setenv(EnvStateDir, "")
		cwd, err := os.Getwd()
		require.NoError(t, err)

		got, err := ResolveStateDir("", "")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, DefaultStateDirName), got)
	})
}
