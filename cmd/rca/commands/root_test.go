package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertEnvKeyToPackageName(t *testing.T) {
	assert.Equal(t, "rcacore.orchestrator", convertEnvKeyToPackageName("LOG_LEVEL_RCACORE_ORCHESTRATOR"))
	assert.Equal(t, "oracle", convertEnvKeyToPackageName("LOG_LEVEL_ORACLE"))
}

func TestValidateLogLevel_AcceptsKnownLevelsCaseInsensitively(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "Warn", "error", "FATAL"} {
		assert.NoError(t, validateLogLevel(level))
	}
}

func TestValidateLogLevel_RejectsUnknownLevel(t *testing.T) {
	assert.Error(t, validateLogLevel("verbose"))
}

func TestParseLogLevelFlags_SingleBareFlagSetsDefault(t *testing.T) {
	defaultLevel, pkgLevels, err := parseLogLevelFlags([]string{"debug"})

	require.NoError(t, err)
	assert.Equal(t, "debug", defaultLevel)
	assert.Empty(t, pkgLevels)
}

func TestParseLogLevelFlags_PerPackageOverride(t *testing.T) {
	defaultLevel, pkgLevels, err := parseLogLevelFlags([]string{"warn", "rcacore.orchestrator=debug"})

	require.NoError(t, err)
	assert.Equal(t, "warn", defaultLevel)
	assert.Equal(t, "debug", pkgLevels["rcacore.orchestrator"])
}

func TestParseLogLevelFlags_DefaultsToInfoWhenNoBareFlagGiven(t *testing.T) {
	defaultLevel, _, err := parseLogLevelFlags([]string{"rcacore.orchestrator=debug"})

	require.NoError(t, err)
	assert.Equal(t, "info", defaultLevel)
}

func TestParseLogLevelFlags_RejectsInvalidDefaultLevel(t *testing.T) {
	_, _, err := parseLogLevelFlags([]string{"verbose"})

	assert.Error(t, err)
}

func TestParseLogLevelFlags_RejectsInvalidPackageLevel(t *testing.T) {
	_, _, err := parseLogLevelFlags([]string{"info", "rcacore.orchestrator=verbose"})

	assert.Error(t, err)
}

func TestParseLogLevelFlags_EnvOverridesAreIncluded(t *testing.T) {
	t.Setenv("LOG_LEVEL_ORACLE", "debug")

	_, pkgLevels, err := parseLogLevelFlags(nil)

	require.NoError(t, err)
	assert.Equal(t, "debug", pkgLevels["oracle"])
}
