package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirFake points the working-directory lookup at dir for one test.
func chdirFake(t *testing.T, dir string) {
	t.Helper()
	saved := platformDir.getwd
	platformDir.getwd = func() (string, error) { return dir, nil }
	t.Cleanup(func() { platformDir.getwd = saved })
}

func TestPlatformConfigDir_Linux(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux-only test")
	}

	t.Run("uses XDG_CONFIG_HOME when set", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
		got, err := PlatformConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/xdg-config/macrostore", got)
	})

	t.Run("falls back to ~/.config", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		saved := platformDir.homeDir
		platformDir.homeDir = func() (string, error) { return "/home/alex", nil }
		t.Cleanup(func() { platformDir.homeDir = saved })

		got, err := PlatformConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/home/alex/.config/macrostore", got)
	})
}

func TestResolveConfigDir(t *testing.T) {
	t.Run("flag wins over env", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("/explicit/config")
		require.NoError(t, err)
		assert.Equal(t, "/explicit/config", got)
	})

	t.Run("env wins when flag empty", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "/env/config")
		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, "/env/config", got)
	})

	t.Run("existing local directory", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		cwd := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(cwd, DefaultConfigDirName), 0o755))
		chdirFake(t, cwd)

		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, DefaultConfigDirName), got)
	})

	t.Run("platform directory otherwise", func(t *testing.T) {
		t.Setenv(EnvConfigDir, "")
		chdirFake(t, t.TempDir())

		got, err := ResolveConfigDir("")
		require.NoError(t, err)
		assert.Contains(t, got, "macrostore")
	})

	t.Run("relative flag becomes absolute", func(t *testing.T) {
		got, err := ResolveConfigDir("relative/path")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got), "expected absolute path, got %s", got)
	})
}

func TestResolveDataDir(t *testing.T) {
	cwd := t.TempDir()
	chdirFake(t, cwd)

	tests := []struct {
		name        string
		flag        string
		configValue string
		envVal      string
		want        string
	}{
		{"flag wins over all", "/flag/data", "/config/data", "/env/data", "/flag/data"},
		{"config wins over env", "", "/config/data", "/env/data", "/config/data"},
		{"env when flag and config empty", "", "", "/env/data", "/env/data"},
		{"working directory default", "", "", "", filepath.Join(cwd, DefaultDataDirName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvDataDir, tt.envVal)
			got, err := ResolveDataDir(tt.flag, tt.configValue)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackupDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "backups"), BackupDir("/data"))
}
