package txidxcli_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/txidx/txidx/internal/txidxcli"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := txidxcli.LoadConfig(txidxcli.LoadConfigInput{WorkDirOverride: dir})
	require.NoError(t, err)
	require.Equal(t, "txidx.db", cfg.DBPath)
	require.Equal(t, "regtest", cfg.Network)
	require.Equal(t, filepath.Join(dir, "txidx.db"), cfg.DBPathAbs)
}

func TestLoadConfig_ProjectFileWithComments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".txidx.json"), []byte(`{
		// project override
		"db_path": "custom.db",
		"network": "testnet",
	}`), 0o644))

	cfg, err := txidxcli.LoadConfig(txidxcli.LoadConfigInput{WorkDirOverride: dir})
	require.NoError(t, err)
	require.Equal(t, "custom.db", cfg.DBPath)
	require.Equal(t, "testnet", cfg.Network)
}

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".txidx.json"), []byte(`{"db_path": "custom.db"}`), 0o644))

	cfg, err := txidxcli.LoadConfig(txidxcli.LoadConfigInput{
		WorkDirOverride: dir,
		DBPathOverride:  "flag.db",
	})
	require.NoError(t, err)
	require.Equal(t, "flag.db", cfg.DBPath)
}

func TestLoadConfig_ExplicitConfigMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := txidxcli.LoadConfig(txidxcli.LoadConfigInput{WorkDirOverride: dir, ConfigPath: "missing.json"})
	require.ErrorIs(t, err, txidxcli.ErrConfigFileNotFound)
}
