package cmd

import (
	"testing"

	"github.com/spf13/viper"
)

func TestSplitKeys(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "default composite key",
			raw:      "ItemNo,LocationCode",
			expected: []string{"ItemNo", "LocationCode"},
		},
		{
			name:     "single key",
			raw:      "ItemNo",
			expected: []string{"ItemNo"},
		},
		{
			name:     "whitespace trimmed",
			raw:      " ItemNo , LocationCode ",
			expected: []string{"ItemNo", "LocationCode"},
		},
		{
			name:     "empty segments dropped",
			raw:      "ItemNo,,LocationCode,",
			expected: []string{"ItemNo", "LocationCode"},
		},
		{
			name:     "empty input",
			raw:      "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitKeys(tt.raw)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitKeys(%q) = %v, want %v", tt.raw, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitKeys(%q)[%d] = %s, want %s", tt.raw, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestSourceFromViperS3AutoDetect(t *testing.T) {
	defer viper.Reset()

	t.Run("S3URIUpgradesFileType", func(t *testing.T) {
		viper.Set("v1.type", SourceFile)
		viper.Set("v1.path", "s3://exports/stock_v1.csv")

		source := sourceFromViper("v1")
		if source.Type != SourceS3 {
			t.Errorf("s3:// path should switch the source type to s3, got %s", source.Type)
		}
	})

	t.Run("LocalPathKeepsFileType", func(t *testing.T) {
		viper.Set("v2.type", SourceFile)
		viper.Set("v2.path", "stock_v2.csv")

		source := sourceFromViper("v2")
		if source.Type != SourceFile {
			t.Errorf("local path should keep the file source type, got %s", source.Type)
		}
	})

	t.Run("ExplicitDBTypeUntouched", func(t *testing.T) {
		viper.Set("v1.type", SourceDB)
		viper.Set("v1.path", "")
		viper.Set("v1.table", "stock")

		source := sourceFromViper("v1")
		if source.Type != SourceDB {
			t.Errorf("explicit db type should be preserved, got %s", source.Type)
		}
		if source.Table != "stock" {
			t.Errorf("table should be read from config, got %s", source.Table)
		}
	})
}
