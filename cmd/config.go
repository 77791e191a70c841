package cmd

import (
	"errors"
	"fmt"
	"strings"
)

// Static errors for configuration validation
var (
	ErrKeysRequired            = errors.New("at least one key column is required")
	ErrKeyNameEmpty            = errors.New("key column names must not be empty")
	ErrSourceTypeInvalid       = errors.New("source type must be one of: file, s3, db")
	ErrSourcePathRequired      = errors.New("source path is required for file and s3 sources")
	ErrSourceS3URIInvalid      = errors.New("s3 source path must be an s3://bucket/key URI")
	ErrSourceTableRequired     = errors.New("source table is required for db sources")
	ErrDatabaseUserRequired    = errors.New("database user is required")
	ErrDatabaseNameRequired    = errors.New("database name is required")
	ErrDatabasePortInvalid     = errors.New("database port must be between 1 and 65535")
	ErrOutDirRequired          = errors.New("output directory is required")
	ErrOutputFormatInvalid     = errors.New("output format must be one of: csv, jsonl, parquet")
	ErrCompressionInvalid      = errors.New("compression must be one of: zstd, lz4, gzip, none")
	ErrCompressionLevelInvalid = errors.New("compression level must be between 0 and 22 (zstd), 0-9 (lz4/gzip), where 0 means the codec default")
	ErrS3EndpointRequired      = errors.New("S3 endpoint is required")
	ErrS3AccessKeyRequired     = errors.New("S3 access key is required")
	ErrS3SecretKeyRequired     = errors.New("S3 secret key is required")
	ErrS3BucketRequired        = errors.New("S3 bucket is required for uploads")
)

// Source type constants
const (
	SourceFile = "file"
	SourceS3   = "s3"
	SourceDB   = "db"
)

type Config struct {
	Debug     bool
	LogFormat string
	DryRun    bool
	Progress  bool

	// Composite key column names, in order.
	Keys []string
	// StrictKeys rejects snapshots with duplicate key tuples instead of
	// aligning them cross-product.
	StrictKeys bool

	V1 SourceConfig
	V2 SourceConfig

	OutDir           string
	Prefix           string
	OutputFormat     string
	Compression      string
	CompressionLevel int

	Upload bool
	S3     S3Config
}

// SourceConfig describes where one snapshot comes from.
type SourceConfig struct {
	Type     string // file, s3, db
	Path     string // local path or s3://bucket/key URI
	Table    string // table name for db sources
	Database DatabaseConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type S3Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	KeyPrefix string
}

// isValidOutputFormat validates the output format
func isValidOutputFormat(format string) bool {
	validFormats := map[string]bool{
		"csv":     true,
		"jsonl":   true,
		"parquet": true,
	}
	return validFormats[format]
}

// isValidCompression validates the compression type
func isValidCompression(compression string) bool {
	validCompressions := map[string]bool{
		"zstd": true,
		"lz4":  true,
		"gzip": true,
		"none": true,
	}
	return validCompressions[compression]
}

// isValidCompressionLevel validates compression level based on compression
// type. Level 0 always means "use the codec default".
func isValidCompressionLevel(compression string, level int) bool {
	switch compression {
	case "zstd":
		return level >= 0 && level <= 22
	case "lz4", "gzip":
		return level >= 0 && level <= 9
	case "none":
		return level == 0 // no compression, level should be 0
	default:
		return false
	}
}

// validateSource checks one side's source configuration.
func (c *Config) validateSource(side string, source *SourceConfig) error {
	switch source.Type {
	case SourceFile:
		if source.Path == "" {
			return fmt.Errorf("%w (%s)", ErrSourcePathRequired, side)
		}
	case SourceS3:
		if source.Path == "" {
			return fmt.Errorf("%w (%s)", ErrSourcePathRequired, side)
		}
		if !strings.HasPrefix(source.Path, "s3://") {
			return fmt.Errorf("%w (%s): %s", ErrSourceS3URIInvalid, side, source.Path)
		}
	case SourceDB:
		if source.Table == "" {
			return fmt.Errorf("%w (%s)", ErrSourceTableRequired, side)
		}
		if source.Database.User == "" {
			return fmt.Errorf("%w (%s)", ErrDatabaseUserRequired, side)
		}
		if source.Database.Name == "" {
			return fmt.Errorf("%w (%s)", ErrDatabaseNameRequired, side)
		}
		if source.Database.Port < 1 || source.Database.Port > 65535 {
			return fmt.Errorf("%w (%s), got %d", ErrDatabasePortInvalid, side, source.Database.Port)
		}
	default:
		return fmt.Errorf("%w, got '%s' (%s)", ErrSourceTypeInvalid, source.Type, side)
	}
	return nil
}

func (c *Config) Validate() error {
	// Validate key columns
	if len(c.Keys) == 0 {
		return ErrKeysRequired
	}
	for _, k := range c.Keys {
		if strings.TrimSpace(k) == "" {
			return ErrKeyNameEmpty
		}
	}

	// Validate both sources
	if err := c.validateSource("v1", &c.V1); err != nil {
		return err
	}
	if err := c.validateSource("v2", &c.V2); err != nil {
		return err
	}

	// Validate output configuration
	if c.OutDir == "" {
		return ErrOutDirRequired
	}
	if !isValidOutputFormat(c.OutputFormat) {
		return fmt.Errorf("%w: '%s'", ErrOutputFormatInvalid, c.OutputFormat)
	}
	if !isValidCompression(c.Compression) {
		return fmt.Errorf("%w: '%s'", ErrCompressionInvalid, c.Compression)
	}
	if !isValidCompressionLevel(c.Compression, c.CompressionLevel) {
		return fmt.Errorf("%w for compression %s: got %d", ErrCompressionLevelInvalid, c.Compression, c.CompressionLevel)
	}

	// S3 credentials are needed when either source is s3 or results are
	// uploaded.
	needsS3 := c.Upload || c.V1.Type == SourceS3 || c.V2.Type == SourceS3
	if needsS3 {
		if c.S3.Endpoint == "" {
			return ErrS3EndpointRequired
		}
		if c.S3.AccessKey == "" {
			return ErrS3AccessKeyRequired
		}
		if c.S3.SecretKey == "" {
			return ErrS3SecretKeyRequired
		}
	}
	if c.Upload && c.S3.Bucket == "" {
		return ErrS3BucketRequired
	}

	return nil
}
