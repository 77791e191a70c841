package cmd

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newTestLogger creates a logger for testing
func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}

func fileConfig(v1Path, v2Path, outDir string) *Config {
	return &Config{
		Keys:         []string{"ItemNo", "LocationCode"},
		V1:           SourceConfig{Type: SourceFile, Path: v1Path},
		V2:           SourceConfig{Type: SourceFile, Path: v2Path},
		OutDir:       outDir,
		OutputFormat: "csv",
		Compression:  "none",
	}
}

const (
	fixtureV1 = "ItemNo,LocationCode,Qty,Bin\n" +
		"A1,MAIN,3,B-01\n" +
		"A2,MAIN,5,B-02\n" +
		"A3,WEST,1,B-09\n"
	fixtureV2 = "ItemNo,LocationCode,Qty,Bin\n" +
		"A1,MAIN,3,B-01\n" +
		"A2,MAIN,7,B-02\n" +
		"A4,WEST,2,B-11\n"
)

func TestDifferRun(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", fixtureV1)
	v2 := writeFixture(t, dir, "stock_v2.csv", fixtureV2)

	outDir := filepath.Join(dir, "out")
	config := fileConfig(v1, v2, outDir)

	differ := NewDiffer(config, newTestLogger())
	if err := differ.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	counts := differ.result.Counts
	if counts.Identical != 1 || counts.Differing != 1 || counts.OnlyInNew != 1 || counts.OnlyInOld != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	wantFiles := []string{
		"coinciden_completamente.csv",
		"difieren.csv",
		"solo_en_v2.csv",
		"solo_en_v1.csv",
	}
	if len(differ.written) != len(wantFiles) {
		t.Fatalf("expected %d result files, got %d", len(wantFiles), len(differ.written))
	}
	for i, name := range wantFiles {
		want := filepath.Join(outDir, name)
		if differ.written[i] != want {
			t.Errorf("result file %d = %s, want %s", i, differ.written[i], want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("result file missing: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(outDir, "difieren.csv"))
	if err != nil {
		t.Fatalf("failed to read differing file: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "diff_cols") {
		t.Errorf("differing file should carry the diff_cols column:\n%s", content)
	}
	if !strings.Contains(content, "Qty_v1") || !strings.Contains(content, "Qty_v2") {
		t.Errorf("differing file should carry suffixed value columns:\n%s", content)
	}
	if !strings.Contains(content, "A2,MAIN,Qty,5,B-02,7,B-02") {
		t.Errorf("unexpected differing row:\n%s", content)
	}
}

func TestDifferRunWithPrefix(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", fixtureV1)
	v2 := writeFixture(t, dir, "stock_v2.csv", fixtureV2)

	outDir := filepath.Join(dir, "out")
	config := fileConfig(v1, v2, outDir)
	config.Prefix = "aug24"

	differ := NewDiffer(config, newTestLogger())
	if err := differ.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	want := filepath.Join(outDir, "aug24_coinciden_completamente.csv")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("prefixed result file missing: %v", err)
	}
}

func TestDifferRunDryRun(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", fixtureV1)
	v2 := writeFixture(t, dir, "stock_v2.csv", fixtureV2)

	outDir := filepath.Join(dir, "out")
	config := fileConfig(v1, v2, outDir)
	config.DryRun = true

	differ := NewDiffer(config, newTestLogger())
	if err := differ.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if differ.result == nil {
		t.Fatal("dry run should still compute the comparison result")
	}
	if len(differ.written) != 0 {
		t.Errorf("dry run should not write files, wrote %v", differ.written)
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Errorf("dry run should not create the output directory")
	}
}

func TestDifferRunGzipOutputs(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", fixtureV1)
	v2 := writeFixture(t, dir, "stock_v2.csv", fixtureV2)

	outDir := filepath.Join(dir, "out")
	config := fileConfig(v1, v2, outDir)
	config.Compression = "gzip"

	differ := NewDiffer(config, newTestLogger())
	if err := differ.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, path := range differ.written {
		if !strings.HasSuffix(path, ".csv.gz") {
			t.Errorf("expected .csv.gz result file, got %s", path)
		}
	}

	// Compressed outputs must still round-trip through the snapshot reader.
	ds, err := readSnapshotFile(filepath.Join(outDir, "solo_en_v2.csv.gz"))
	if err != nil {
		t.Fatalf("failed to re-read compressed result: %v", err)
	}
	if ds.Len() != 1 || ds.Rows[0]["ItemNo"] != "A4" {
		t.Errorf("unexpected only-in-v2 contents: %v", ds.Rows)
	}
}

func TestDifferRunSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", "ItemNo,LocationCode,Qty\nA1,MAIN,3\n")
	v2 := writeFixture(t, dir, "stock_v2.csv", "ItemNo,LocationCode,Bin\nA1,MAIN,B-01\n")

	config := fileConfig(v1, v2, filepath.Join(dir, "out"))

	differ := NewDiffer(config, newTestLogger())
	err := differ.Run(context.Background())
	if err == nil {
		t.Fatal("expected schema error for mismatched column sets")
	}
	if len(differ.written) != 0 {
		t.Errorf("no files should be written on schema errors, wrote %v", differ.written)
	}
}

func TestDifferRunCancelledContext(t *testing.T) {
	dir := t.TempDir()
	v1 := writeFixture(t, dir, "stock_v1.csv", fixtureV1)
	v2 := writeFixture(t, dir, "stock_v2.csv", fixtureV2)

	config := fileConfig(v1, v2, filepath.Join(dir, "out"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	differ := NewDiffer(config, newTestLogger())
	if err := differ.Run(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if len(differ.written) != 0 {
		t.Errorf("no files should be written after cancellation, wrote %v", differ.written)
	}
}
