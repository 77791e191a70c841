package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/lib/pq"

	"github.com/inventoryops/snapdiff/cmd/comparison"
	"github.com/inventoryops/snapdiff/cmd/compressors"
	"github.com/inventoryops/snapdiff/cmd/formatters"
)

// ErrInvalidS3URI is returned for source paths that are not s3://bucket/key
var ErrInvalidS3URI = errors.New("invalid S3 URI")

// loadSnapshot loads one side's snapshot according to its source config.
func (d *Differ) loadSnapshot(ctx context.Context, side string, source *SourceConfig) (*comparison.Dataset, error) {
	switch source.Type {
	case SourceFile:
		d.logger.Debug(fmt.Sprintf("Loading %s from file %s", side, source.Path))
		return readSnapshotFile(source.Path)

	case SourceS3:
		d.logger.Debug(fmt.Sprintf("Downloading %s from %s", side, source.Path))
		local, err := d.downloadS3Object(ctx, source.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to download %s: %w", side, err)
		}
		defer os.Remove(local)
		return readSnapshotFile(local)

	case SourceDB:
		d.logger.Debug(fmt.Sprintf("Querying %s from table %s", side, source.Table))
		return d.loadDBSnapshot(ctx, source)

	default:
		return nil, fmt.Errorf("%w, got '%s'", ErrSourceTypeInvalid, source.Type)
	}
}

// readSnapshotFile reads a snapshot from a local file, unwrapping outer
// compression and picking the format from the remaining extension.
func readSnapshotFile(path string) (*comparison.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	return readSnapshotStream(f, path)
}

// readSnapshotStream decodes a snapshot stream whose encoding is derived
// from the file name, e.g. stock.csv, stock.jsonl.gz, stock.parquet.
func readSnapshotStream(r io.Reader, name string) (*comparison.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if comp, ok := compressors.ByExtension(ext); ok {
		rc, err := comp.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		r = rc

		name = strings.TrimSuffix(name, filepath.Ext(name))
		ext = strings.ToLower(filepath.Ext(name))
	}

	reader, err := formatters.GetReader(formatFromExtension(ext), r)
	if err != nil {
		return nil, err
	}
	columns, rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return datasetFromRows(columns, rows), nil
}

// formatFromExtension maps a file extension to an input format. Unknown
// extensions fall back to CSV, the dominant exchange format for these
// exports.
func formatFromExtension(ext string) string {
	switch ext {
	case ".jsonl", ".ndjson":
		return formatters.FormatJSONL
	case ".parquet":
		return formatters.FormatParquet
	default:
		return formatters.FormatCSV
	}
}

func datasetFromRows(columns []string, rows []map[string]string) *comparison.Dataset {
	ds := comparison.NewDataset(columns)
	for _, row := range rows {
		ds.Append(comparison.Row(row))
	}
	return ds
}

// parseS3URI splits s3://bucket/key into its parts.
func parseS3URI(uri string) (bucket, key string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidS3URI, uri)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidS3URI, uri)
	}
	return parts[0], parts[1], nil
}

// newS3Session builds an AWS session from the shared S3 config.
func (d *Differ) newS3Session() (*session.Session, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(d.config.S3.Endpoint),
		Region:           aws.String(d.config.S3.Region),
		Credentials:      credentials.NewStaticCredentials(d.config.S3.AccessKey, d.config.S3.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}
	return sess, nil
}

// downloadS3Object downloads an s3:// URI to a temp file whose name keeps
// the object's extensions so format sniffing still works. The caller removes
// the file.
func (d *Differ) downloadS3Object(ctx context.Context, uri string) (string, error) {
	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return "", err
	}

	sess, err := d.newS3Session()
	if err != nil {
		return "", err
	}
	downloader := s3manager.NewDownloader(sess)

	tempFile, err := os.CreateTemp("", "snapdiff-*-"+filepath.Base(key))
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	_, err = downloader.DownloadWithContext(ctx, tempFile, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := tempFile.Close()
	if err != nil {
		os.Remove(tempFile.Name())
		return "", fmt.Errorf("failed to download s3://%s/%s: %w", bucket, key, err)
	}
	if closeErr != nil {
		os.Remove(tempFile.Name())
		return "", closeErr
	}

	return tempFile.Name(), nil
}

// loadDBSnapshot reads a whole table from PostgreSQL.
func (d *Differ) loadDBSnapshot(ctx context.Context, source *SourceConfig) (*comparison.Dataset, error) {
	sslMode := source.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		source.Database.Host,
		source.Database.Port,
		source.Database.User,
		source.Database.Password,
		source.Database.Name,
		sslMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return datasetFromTable(ctx, db, source.Table)
}

// datasetFromTable runs SELECT * and scans every value as text. SQL NULL is
// read as the empty string, matching how these values round-trip through a
// CSV export.
func datasetFromTable(ctx context.Context, db *sql.DB, table string) (*comparison.Dataset, error) {
	query := fmt.Sprintf("SELECT * FROM %s", pq.QuoteIdentifier(table)) //nolint:gosec // Table name is quoted with pq.QuoteIdentifier
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	ds := comparison.NewDataset(columns)
	values := make([]sql.NullString, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(comparison.Row, len(columns))
		for i, col := range columns {
			if values[i].Valid {
				row[col] = values[i].String
			} else {
				row[col] = ""
			}
		}
		ds.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed while reading rows: %w", err)
	}

	return ds, nil
}
