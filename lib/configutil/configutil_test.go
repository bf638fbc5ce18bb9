package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	SourceURL  string `json:"source_url"`
	OutputDir  string `json:"output_dir"`
	HistoryCap int    `json:"history_cap"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// trailing commas and comments are fine in json5
		source_url: "https://example.com/pricing",
		history_cap: 30,
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	config, err := ReadConfig[testConfig](path)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://example.com/pricing", config.SourceURL)
	require.Equal(t, 30, config.HistoryCap)
	require.Empty(t, config.OutputDir)
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		source_url: "https://example.com/pricing",
		output_dir: "github_pages",
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		output_dir: "/tmp/out",
	}`), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	config, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "https://example.com/pricing", config.SourceURL)
	require.Equal(t, "/tmp/out", config.OutputDir)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}
