package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/inventoryops/snapdiff/cmd/comparison"
	"github.com/inventoryops/snapdiff/cmd/compressors"
	"github.com/inventoryops/snapdiff/cmd/formatters"
)


// Result file base names. These follow the reconciliation convention the
// downstream spreadsheets expect: fully matching rows, differing rows, rows
// only in the new snapshot (v2), rows only in the old snapshot (v1).
const (
	fileIdentical = "coinciden_completamente"
	fileDiffering = "difieren"
	fileOnlyInV2  = "solo_en_v2"
	fileOnlyInV1  = "solo_en_v1"
)

// Differ runs the whole comparison pipeline: load both snapshots, run the
// core comparison, write the four result files, optionally upload them.
type Differ struct {
	config *Config
	logger *slog.Logger

	// onPhase, when set, is notified as the pipeline advances. Used by
	// the progress TUI.
	onPhase func(Phase)

	result  *comparison.Result
	written []string
}

// NewDiffer creates a new Differ instance
func NewDiffer(config *Config, logger *slog.Logger) *Differ {
	return &Differ{
		config: config,
		logger: logger,
	}
}

func (d *Differ) notify(phase Phase) {
	if d.onPhase != nil {
		d.onPhase(phase)
	}
}

// Run executes the pipeline. It either fully succeeds or returns an error
// before any result file is written.
func (d *Differ) Run(ctx context.Context) error {
	d.notify(PhaseLoadingV1)
	v1, err := d.loadSnapshot(ctx, "v1", &d.config.V1)
	if err != nil {
		return fmt.Errorf("failed to load v1: %w", err)
	}
	d.logger.Info(fmt.Sprintf("Loaded v1: %d rows, %d columns", v1.Len(), len(v1.Columns)))

	d.notify(PhaseLoadingV2)
	v2, err := d.loadSnapshot(ctx, "v2", &d.config.V2)
	if err != nil {
		return fmt.Errorf("failed to load v2: %w", err)
	}
	d.logger.Info(fmt.Sprintf("Loaded v2: %d rows, %d columns", v2.Len(), len(v2.Columns)))

	if err := ctx.Err(); err != nil {
		return err
	}

	d.notify(PhaseComparing)
	result, err := comparison.Compare(v1, v2, d.config.Keys, comparison.Options{
		StrictKeys: d.config.StrictKeys,
	})
	if err != nil {
		return err
	}
	d.result = result

	if d.config.DryRun {
		d.logger.Info("Dry run: skipping result files")
		d.notify(PhaseDone)
		return nil
	}

	d.notify(PhaseWriting)
	if err := d.writeResults(ctx, result); err != nil {
		return err
	}

	if d.config.Upload {
		if err := d.uploadResults(ctx); err != nil {
			return err
		}
	}

	d.notify(PhaseDone)
	return nil
}

// writeResults writes the four partitions to the output directory.
func (d *Differ) writeResults(ctx context.Context, result *comparison.Result) error {
	if err := os.MkdirAll(d.config.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	formatter, err := formatters.GetFormatterWithCompression(d.config.OutputFormat, d.config.Compression)
	if err != nil {
		return err
	}
	compressor, err := compressors.GetCompressor(d.config.Compression)
	if err != nil {
		return err
	}
	// Parquet compresses internally; no outer layer on top.
	if formatters.UsesInternalCompression(d.config.OutputFormat) {
		compressor = compressors.NewNoneCompressor()
	}
	level := d.config.CompressionLevel
	if level == 0 {
		level = compressor.DefaultLevel()
	}

	prefix := ""
	if d.config.Prefix != "" {
		prefix = d.config.Prefix + "_"
	}

	outputs := []struct {
		name string
		data *comparison.Dataset
	}{
		{fileIdentical, result.Identical},
		{fileDiffering, result.Differing},
		{fileOnlyInV2, result.OnlyInNew},
		{fileOnlyInV1, result.OnlyInOld},
	}

	for _, out := range outputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(d.config.OutDir, prefix+out.name+formatter.Extension()+compressor.Extension())
		if err := writeDataset(path, out.data, formatter, compressor, level); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		d.written = append(d.written, path)
		d.logger.Debug(fmt.Sprintf("Wrote %s (%d rows)", path, out.data.Len()))
	}

	return nil
}

// writeDataset writes one dataset to a file through the formatter and an
// outer compression layer.
func writeDataset(path string, ds *comparison.Dataset, formatter formatters.Formatter, compressor compressors.Compressor, level int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	cw, err := compressor.NewWriter(f, level)
	if err != nil {
		f.Close()
		return err
	}

	err = writeRows(cw, ds, formatter)
	if closeErr := cw.Close(); err == nil {
		err = closeErr
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
	}
	return err
}

func writeRows(w io.Writer, ds *comparison.Dataset, formatter formatters.Formatter) error {
	writer, err := formatter.NewWriter(w, ds.Columns)
	if err != nil {
		return err
	}
	for _, row := range ds.Rows {
		if err := writer.WriteRow(row); err != nil {
			return err
		}
	}
	return writer.Close()
}

// uploadResults pushes the written result files to S3.
func (d *Differ) uploadResults(ctx context.Context) error {
	sess, err := d.newS3Session()
	if err != nil {
		return err
	}
	uploader := s3manager.NewUploader(sess)

	for _, path := range d.written {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s for upload: %w", path, err)
		}

		key := filepath.Base(path)
		if d.config.S3.KeyPrefix != "" {
			key = d.config.S3.KeyPrefix + "/" + key
		}

		_, err = uploader.UploadWithContext(ctx, &s3manager.UploadInput{
			Bucket: aws.String(d.config.S3.Bucket),
			Key:    aws.String(key),
			Body:   f,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		d.logger.Info(fmt.Sprintf("Uploaded s3://%s/%s", d.config.S3.Bucket, key))
	}

	return nil
}

// PrintSummary prints the per-partition counts and generated files. Called
// after Run so it never interleaves with the progress TUI.
func (d *Differ) PrintSummary() {
	if d.result == nil {
		return
	}
	counts := d.result.Counts

	fmt.Println()
	fmt.Println(titleStyle.Render("Comparison summary"))
	fmt.Printf("  Fully matching rows:            %d\n", counts.Identical)
	fmt.Printf("  Differing rows (same keys):     %d\n", counts.Differing)
	fmt.Printf("  Only in v2:                     %d\n", counts.OnlyInNew)
	fmt.Printf("  Only in v1:                     %d\n", counts.OnlyInOld)

	if len(d.written) > 0 {
		fmt.Println()
		fmt.Println(infoStyle.Render("Files generated:"))
		for _, path := range d.written {
			fmt.Printf("  - %s\n", path)
		}
	}
}
