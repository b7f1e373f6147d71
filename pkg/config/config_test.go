package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesEngineConstants(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t, 3, c.EngineConfiguration.LookBackLength)
	require.Equal(t, 100, c.EngineConfiguration.MaxNumSigners)
	require.Equal(t, 10, c.EngineConfiguration.MaxNumRules)
	require.Equal(t, "OrgChart", c.DomainConfiguration.Name)
}

func TestDomainSeparatorIsDeterministic(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	sep1, err := c.DomainSeparator()
	require.NoError(t, err)
	sep2, err := c.DomainSeparator()
	require.NoError(t, err)
	require.Equal(t, sep1, sep2)
}

func TestDomainSeparatorChangesWithChainID(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	sepA, err := c.DomainSeparator()
	require.NoError(t, err)

	c.DomainConfiguration.ChainID = 42
	sepB, err := c.DomainSeparator()
	require.NoError(t, err)

	require.NotEqual(t, sepA, sepB)
}

func TestLoadOverridesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	override := []byte(`
EngineConfiguration:
  LookBackLength: 7
  MaxNumSigners: 5
  MaxNumRules: 2
DomainConfiguration:
  Name: CustomChart
  Version: "2"
  ChainID: 99
  VerifyingContract: "0x1111111111111111111111111111111111111111"
  Salt: "0xabcd"
`)
	require.NoError(t, os.WriteFile(path, override, 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7, c.EngineConfiguration.LookBackLength)
	require.Equal(t, "CustomChart", c.DomainConfiguration.Name)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
