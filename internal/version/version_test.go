package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withLinkerVars(t *testing.T, v, commit, built string) {
	t.Helper()
	ov, oc, ob := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = v, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = ov, oc, ob })
}

func TestGetFromLinkerFlags(t *testing.T) {
	withLinkerVars(t, "v1.2.3", "abcdef1234567", "2025-01-02T03:04:05Z")
	withBuildInfo(t, nil)

	info := Get()
	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, "abcdef1234567", info.GitCommit)
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), info.BuildTime)
	assert.True(t, info.IsRelease())
	assert.Equal(t, "v1.2.3 (abcdef1)", info.Short())
}

func TestGetFromVCSSettings(t *testing.T) {
	withLinkerVars(t, "dev", "unknown", "unknown")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2025-05-06T07:08:09Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := Get()
	assert.Equal(t, "dev-0123456", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.False(t, info.BuildTime.IsZero())
	assert.True(t, info.Dirty)
	assert.False(t, info.IsRelease())
	assert.Equal(t, "dev-0123456", info.Short())
	assert.Contains(t, info.Detailed(), "Working directory: dirty")
	assert.Contains(t, info.Detailed(), "Commit: 0123456789abcdef")
}

func TestGetModuleVersion(t *testing.T) {
	withLinkerVars(t, "dev", "unknown", "unknown")
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "v0.4.0"}})

	info := Get()
	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "unknown", info.GitCommit)
	assert.Equal(t, "v0.4.0", info.Short())
	assert.NotContains(t, info.Detailed(), "Commit:")
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("").IsZero())
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.False(t, parseTime("2025-01-02 03:04:05").IsZero())
	assert.False(t, parseTime("2025-01-02T03:04:05").IsZero())
}
