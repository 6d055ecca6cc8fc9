// SPDX-FileCopyrightText: 2025 Designø Group ltd.
//
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.Platform)
	assert.True(t, info.BuildTime.IsZero(), "unknown build date must not parse")
}

func TestGetBuildInfo_ParsesValidDate(t *testing.T) {
	originalBuildDate := BuildDate
	defer func() { BuildDate = originalBuildDate }()

	BuildDate = "2025-12-01T20:00:00Z"
	expected, _ := time.Parse(time.RFC3339, BuildDate)
	assert.True(t, GetBuildInfo().BuildTime.Equal(expected))
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{Version: "1.2.3", GitCommit: "abc123", BuildDate: "2025-12-01", GoVersion: "go1.25.0", Platform: "linux/amd64"}
	assert.Equal(t, "secret-santa 1.2.3 (commit abc123, built 2025-12-01, go1.25.0 linux/amd64)", info.String())
	assert.Equal(t, []any{"version", "1.2.3", "commit", "abc123", "buildDate", "2025-12-01", "go", "go1.25.0"}, info.LogFields())
}
