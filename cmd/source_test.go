package cmd

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "simple object",
			uri:        "s3://exports/stock_v1.csv",
			wantBucket: "exports",
			wantKey:    "stock_v1.csv",
		},
		{
			name:       "nested key",
			uri:        "s3://exports/2026/08/stock_v1.csv.gz",
			wantBucket: "exports",
			wantKey:    "2026/08/stock_v1.csv.gz",
		},
		{
			name:    "missing scheme",
			uri:     "exports/stock_v1.csv",
			wantErr: true,
		},
		{
			name:    "bucket only",
			uri:     "s3://exports",
			wantErr: true,
		},
		{
			name:    "empty key",
			uri:     "s3://exports/",
			wantErr: true,
		},
		{
			name:    "empty bucket",
			uri:     "s3:///stock_v1.csv",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.uri)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidS3URI) {
					t.Fatalf("expected ErrInvalidS3URI, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.wantBucket || key != tt.wantKey {
				t.Errorf("parseS3URI(%s) = (%s, %s), want (%s, %s)",
					tt.uri, bucket, key, tt.wantBucket, tt.wantKey)
			}
		})
	}
}

func TestFormatFromExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{ext: ".csv", expected: "csv"},
		{ext: ".jsonl", expected: "jsonl"},
		{ext: ".ndjson", expected: "jsonl"},
		{ext: ".parquet", expected: "parquet"},
		{ext: ".txt", expected: "csv"},
		{ext: "", expected: "csv"},
	}

	for _, tt := range tests {
		t.Run("ext"+tt.ext, func(t *testing.T) {
			if got := formatFromExtension(tt.ext); got != tt.expected {
				t.Errorf("formatFromExtension(%s) = %s, want %s", tt.ext, got, tt.expected)
			}
		})
	}
}

func TestReadSnapshotStream(t *testing.T) {
	t.Run("PlainCSV", func(t *testing.T) {
		data := "ItemNo,LocationCode,Qty\nA1,MAIN,3.0\nA2,MAIN,5\n"

		ds, err := readSnapshotStream(strings.NewReader(data), "stock.csv")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", ds.Len())
		}
		if ds.Rows[0]["Qty"] != "3.0" {
			t.Errorf("expected quantity text preserved as '3.0', got %q", ds.Rows[0]["Qty"])
		}
	})

	t.Run("JSONLByExtension", func(t *testing.T) {
		data := `{"ItemNo":"A1","LocationCode":"MAIN","Qty":3.0}` + "\n"

		ds, err := readSnapshotStream(strings.NewReader(data), "stock.jsonl")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Len() != 1 {
			t.Fatalf("expected 1 row, got %d", ds.Len())
		}
		if ds.Rows[0]["Qty"] != "3.0" {
			t.Errorf("expected number literal preserved as '3.0', got %q", ds.Rows[0]["Qty"])
		}
	})

	t.Run("GzippedCSV", func(t *testing.T) {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write([]byte("ItemNo,LocationCode,Qty\nA1,MAIN,3\n")); err != nil {
			t.Fatalf("failed to compress fixture: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("failed to close gzip writer: %v", err)
		}

		ds, err := readSnapshotStream(&buf, "stock.csv.gz")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Len() != 1 {
			t.Fatalf("expected 1 row, got %d", ds.Len())
		}
		if ds.Rows[0]["ItemNo"] != "A1" {
			t.Errorf("unexpected row contents: %v", ds.Rows[0])
		}
	})
}

func TestDatasetFromTable(t *testing.T) {
	t.Run("ScansAllValuesAsText", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		defer db.Close()

		rows := sqlmock.NewRows([]string{"ItemNo", "LocationCode", "Qty"}).
			AddRow("A1", "MAIN", "3.0").
			AddRow("A2", "MAIN", "5")
		mock.ExpectQuery(`SELECT \* FROM "stock"`).WillReturnRows(rows)

		ds, err := datasetFromTable(context.Background(), db, "stock")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		wantColumns := []string{"ItemNo", "LocationCode", "Qty"}
		if len(ds.Columns) != len(wantColumns) {
			t.Fatalf("expected %d columns, got %d", len(wantColumns), len(ds.Columns))
		}
		for i, col := range wantColumns {
			if ds.Columns[i] != col {
				t.Errorf("column %d = %s, want %s", i, ds.Columns[i], col)
			}
		}
		if ds.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", ds.Len())
		}
		if ds.Rows[0]["Qty"] != "3.0" {
			t.Errorf("expected quantity text preserved as '3.0', got %q", ds.Rows[0]["Qty"])
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})

	t.Run("NullBecomesEmptyString", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		defer db.Close()

		rows := sqlmock.NewRows([]string{"ItemNo", "Bin"}).
			AddRow("A1", nil)
		mock.ExpectQuery(`SELECT \* FROM "stock"`).WillReturnRows(rows)

		ds, err := datasetFromTable(context.Background(), db, "stock")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ds.Rows[0]["Bin"] != "" {
			t.Errorf("SQL NULL should read as empty string, got %q", ds.Rows[0]["Bin"])
		}
	})

	t.Run("QueryErrorIsReturned", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatalf("failed to create sqlmock: %v", err)
		}
		defer db.Close()

		mock.ExpectQuery(`SELECT \* FROM "missing"`).
			WillReturnError(errors.New("relation does not exist"))

		_, err = datasetFromTable(context.Background(), db, "missing")
		if err == nil {
			t.Fatal("expected error from failed query")
		}
	})
}
