package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name     string
		v1       string
		v2       string
		expected int
	}{
		{
			name:     "v1 greater than v2",
			v1:       "1.2.0",
			v2:       "1.1.0",
			expected: 1,
		},
		{
			name:     "v1 less than v2",
			v1:       "1.1.0",
			v2:       "1.2.0",
			expected: -1,
		},
		{
			name:     "equal versions",
			v1:       "1.1.0",
			v2:       "1.1.0",
			expected: 0,
		},
		{
			name:     "major version difference",
			v1:       "2.0.0",
			v2:       "1.9.9",
			expected: 1,
		},
		{
			name:     "minor version difference",
			v1:       "1.10.0",
			v2:       "1.9.0",
			expected: 1,
		},
		{
			name:     "patch version difference",
			v1:       "1.1.5",
			v2:       "1.1.4",
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := compareVersions(tt.v1, tt.v2)
			if result != tt.expected {
				t.Errorf("compareVersions(%s, %s) = %d, want %d",
					tt.v1, tt.v2, result, tt.expected)
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		expected [3]int
	}{
		{
			name:     "standard version",
			version:  "1.2.3",
			expected: [3]int{1, 2, 3},
		},
		{
			name:     "double digit versions",
			version:  "10.20.30",
			expected: [3]int{10, 20, 30},
		},
		{
			name:     "single component",
			version:  "5",
			expected: [3]int{5, 0, 0},
		},
		{
			name:     "two components",
			version:  "1.2",
			expected: [3]int{1, 2, 0},
		},
		{
			name:     "zero version",
			version:  "0.0.0",
			expected: [3]int{0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseVersion(tt.version)
			if result != tt.expected {
				t.Errorf("parseVersion(%s) = %v, want %v",
					tt.version, result, tt.expected)
			}
		})
	}
}

func TestFormatUpdateMessage(t *testing.T) {
	result := VersionCheckResult{
		UpdateAvailable: true,
		CurrentVersion:  "1.0.0",
		LatestVersion:   "1.1.0",
		ReleaseURL:      "https://github.com/inventoryops/snapdiff/releases/tag/v1.1.0",
	}

	msg := formatUpdateMessage(result)
	if !strings.Contains(msg, "v1.0.0") {
		t.Errorf("message should contain current version: %s", msg)
	}
	if !strings.Contains(msg, "v1.1.0") {
		t.Errorf("message should contain latest version: %s", msg)
	}
	if !strings.Contains(msg, result.ReleaseURL) {
		t.Errorf("message should contain the release URL: %s", msg)
	}
}

func TestCheckForUpdatesSkipsDevBuilds(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "dev build", version: "dev"},
		{name: "empty version", version: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := checkForUpdates(context.Background(), tt.version)
			if result.UpdateAvailable {
				t.Error("dev builds should never report an available update")
			}
			if result.Error != nil {
				t.Errorf("dev builds should not perform a network check: %v", result.Error)
			}
		})
	}
}
