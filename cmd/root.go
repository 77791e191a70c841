package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information - set via ldflags during build
	// Example: go build -ldflags "-X github.com/inventoryops/snapdiff/cmd.Version=1.2.3"
	Version = "dev" // Default to "dev" if not set during build

	cfgFile     string
	debug       bool
	logFormat   string
	dryRun      bool
	showTUI     bool
	keysFlag    string
	strictKeys  bool
	v1Path      string
	v2Path      string
	v1Type      string
	v2Type      string
	v1Table     string
	v2Table     string
	v1DbHost    string
	v1DbPort    int
	v1DbUser    string
	v1DbPass    string
	v1DbName    string
	v1DbSSLMode string
	v2DbHost    string
	v2DbPort    int
	v2DbUser    string
	v2DbPass    string
	v2DbName    string
	v2DbSSLMode string
	outDir      string
	outPrefix   string
	outFormat   string
	compression string
	compLevel   int
	upload      bool
	s3Endpoint  string
	s3Bucket    string
	s3AccessKey string
	s3SecretKey string
	s3Region    string
	s3KeyPrefix string

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true).
			Underline(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00D9FF"))

	logger *slog.Logger
)

// textOnlyHandler is a custom slog handler that outputs human-readable text
// without key=value pairs, suitable for interactive terminal usage
type textOnlyHandler struct {
	opts   slog.HandlerOptions
	writer io.Writer
}

func newTextOnlyHandler(w io.Writer, opts *slog.HandlerOptions) *textOnlyHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &textOnlyHandler{
		opts:   *opts,
		writer: w,
	}
}

func (h *textOnlyHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *textOnlyHandler) Handle(_ context.Context, r slog.Record) error {
	// Format: YYYY-MM-DD HH:MM:SS LEVEL message
	timestamp := r.Time.Format("2006-01-02 15:04:05")
	level := r.Level.String()

	_, err := fmt.Fprintf(h.writer, "%s %s %s\n", timestamp, level, r.Message)
	return err
}

func (h *textOnlyHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	// For simplicity, we ignore attributes in text-only mode
	return h
}

func (h *textOnlyHandler) WithGroup(_ string) slog.Handler {
	// For simplicity, we ignore groups in text-only mode
	return h
}

// initLogger initializes the slog logger based on debug flag and log format
func initLogger(isDebug bool, format string) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if isDebug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	case "logfmt":
		// logfmt uses slog.TextHandler which outputs key=value pairs
		handler = slog.NewTextHandler(os.Stdout, opts)
	default: // "text" or anything else
		handler = newTextOnlyHandler(os.Stdout, opts)
	}

	logger = slog.New(handler)
}

var rootCmd = &cobra.Command{
	Use:     "snapdiff",
	Version: Version,
	Short:   "📊 Compare two snapshots of a tabular dataset by composite key",
	Long: titleStyle.Render("Snapshot Differ") + `

A CLI tool for data-operations teams reconciling two versions of the same
tabular export (CSV/JSONL/Parquet files, S3 objects, or PostgreSQL tables).
Rows are aligned by composite key and split into four result files: fully
matching, differing (with the differing columns named), only in v2, and
only in v1.`,
	Run: func(cmd *cobra.Command, _ []string) {
		// Show help when no subcommand is specified
		cmd.Help()
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare two snapshots and write the four result files",
	Long: `Compare an old (v1) and a new (v2) snapshot of the same dataset by one or
more key columns. Both snapshots must expose the same column set. Produces
four result files in the output directory plus a console summary.`,
	Run: func(_ *cobra.Command, _ []string) {
		runCompare()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(compareCmd)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.snapdiff.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, logfmt, json)")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "compare and print the summary without writing files")

	// Snapshot sources
	compareCmd.Flags().StringVar(&v1Path, "v1", "", "old snapshot: local path or s3:// URI")
	compareCmd.Flags().StringVar(&v2Path, "v2", "", "new snapshot: local path or s3:// URI")
	compareCmd.Flags().StringVar(&v1Type, "v1-type", "file", "v1 source type: file, s3, db (s3:// paths switch to s3 automatically)")
	compareCmd.Flags().StringVar(&v2Type, "v2-type", "file", "v2 source type: file, s3, db (s3:// paths switch to s3 automatically)")
	compareCmd.Flags().StringVar(&v1Table, "v1-table", "", "v1 PostgreSQL table (db source)")
	compareCmd.Flags().StringVar(&v2Table, "v2-table", "", "v2 PostgreSQL table (db source)")
	compareCmd.Flags().StringVar(&v1DbHost, "v1-db-host", "localhost", "v1 PostgreSQL host")
	compareCmd.Flags().IntVar(&v1DbPort, "v1-db-port", 5432, "v1 PostgreSQL port")
	compareCmd.Flags().StringVar(&v1DbUser, "v1-db-user", "", "v1 PostgreSQL user")
	compareCmd.Flags().StringVar(&v1DbPass, "v1-db-password", "", "v1 PostgreSQL password")
	compareCmd.Flags().StringVar(&v1DbName, "v1-db-name", "", "v1 PostgreSQL database name")
	compareCmd.Flags().StringVar(&v1DbSSLMode, "v1-db-sslmode", "disable", "v1 PostgreSQL SSL mode")
	compareCmd.Flags().StringVar(&v2DbHost, "v2-db-host", "localhost", "v2 PostgreSQL host")
	compareCmd.Flags().IntVar(&v2DbPort, "v2-db-port", 5432, "v2 PostgreSQL port")
	compareCmd.Flags().StringVar(&v2DbUser, "v2-db-user", "", "v2 PostgreSQL user")
	compareCmd.Flags().StringVar(&v2DbPass, "v2-db-password", "", "v2 PostgreSQL password")
	compareCmd.Flags().StringVar(&v2DbName, "v2-db-name", "", "v2 PostgreSQL database name")
	compareCmd.Flags().StringVar(&v2DbSSLMode, "v2-db-sslmode", "disable", "v2 PostgreSQL SSL mode")

	// Comparison flags
	compareCmd.Flags().StringVar(&keysFlag, "keys", "ItemNo,LocationCode", "comma-separated key columns forming the composite key")
	compareCmd.Flags().BoolVar(&strictKeys, "strict-keys", false, "fail when a key tuple occurs more than once within one snapshot")
	compareCmd.Flags().BoolVar(&showTUI, "progress", false, "show an interactive progress display")

	// Output flags
	compareCmd.Flags().StringVar(&outDir, "outdir", ".", "output directory for the result files")
	compareCmd.Flags().StringVar(&outPrefix, "prefix", "", "prefix for the result file names (optional)")
	compareCmd.Flags().StringVar(&outFormat, "output-format", "csv", "output format: csv, jsonl, parquet (parquet stores columns in schema order, not the csv/jsonl layout)")
	compareCmd.Flags().StringVar(&compression, "compression", "none", "outer compression for csv/jsonl outputs: zstd, lz4, gzip, none")
	compareCmd.Flags().IntVar(&compLevel, "compression-level", 0, "compression level (0 = codec default; zstd: 1-22, lz4/gzip: 1-9)")

	// S3 flags (s3 sources and result upload)
	compareCmd.Flags().BoolVar(&upload, "upload", false, "upload the result files to S3")
	compareCmd.Flags().StringVar(&s3Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	compareCmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "S3 bucket for uploads")
	compareCmd.Flags().StringVar(&s3AccessKey, "s3-access-key", "", "S3 access key")
	compareCmd.Flags().StringVar(&s3SecretKey, "s3-secret-key", "", "S3 secret key")
	compareCmd.Flags().StringVar(&s3Region, "s3-region", "auto", "S3 region")
	compareCmd.Flags().StringVar(&s3KeyPrefix, "s3-key-prefix", "", "key prefix for uploaded result files")

	// Note: We don't use MarkFlagRequired because it checks before viper loads the config file.
	// Instead, validation happens in config.Validate() which runs after all config sources are loaded.

	// Bind persistent flags
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))

	// Bind compare flags
	_ = viper.BindPFlag("v1.path", compareCmd.Flags().Lookup("v1"))
	_ = viper.BindPFlag("v2.path", compareCmd.Flags().Lookup("v2"))
	_ = viper.BindPFlag("v1.type", compareCmd.Flags().Lookup("v1-type"))
	_ = viper.BindPFlag("v2.type", compareCmd.Flags().Lookup("v2-type"))
	_ = viper.BindPFlag("v1.table", compareCmd.Flags().Lookup("v1-table"))
	_ = viper.BindPFlag("v2.table", compareCmd.Flags().Lookup("v2-table"))
	_ = viper.BindPFlag("v1.db.host", compareCmd.Flags().Lookup("v1-db-host"))
	_ = viper.BindPFlag("v1.db.port", compareCmd.Flags().Lookup("v1-db-port"))
	_ = viper.BindPFlag("v1.db.user", compareCmd.Flags().Lookup("v1-db-user"))
	_ = viper.BindPFlag("v1.db.password", compareCmd.Flags().Lookup("v1-db-password"))
	_ = viper.BindPFlag("v1.db.name", compareCmd.Flags().Lookup("v1-db-name"))
	_ = viper.BindPFlag("v1.db.sslmode", compareCmd.Flags().Lookup("v1-db-sslmode"))
	_ = viper.BindPFlag("v2.db.host", compareCmd.Flags().Lookup("v2-db-host"))
	_ = viper.BindPFlag("v2.db.port", compareCmd.Flags().Lookup("v2-db-port"))
	_ = viper.BindPFlag("v2.db.user", compareCmd.Flags().Lookup("v2-db-user"))
	_ = viper.BindPFlag("v2.db.password", compareCmd.Flags().Lookup("v2-db-password"))
	_ = viper.BindPFlag("v2.db.name", compareCmd.Flags().Lookup("v2-db-name"))
	_ = viper.BindPFlag("v2.db.sslmode", compareCmd.Flags().Lookup("v2-db-sslmode"))
	_ = viper.BindPFlag("keys", compareCmd.Flags().Lookup("keys"))
	_ = viper.BindPFlag("strict_keys", compareCmd.Flags().Lookup("strict-keys"))
	_ = viper.BindPFlag("progress", compareCmd.Flags().Lookup("progress"))
	_ = viper.BindPFlag("outdir", compareCmd.Flags().Lookup("outdir"))
	_ = viper.BindPFlag("prefix", compareCmd.Flags().Lookup("prefix"))
	_ = viper.BindPFlag("output_format", compareCmd.Flags().Lookup("output-format"))
	_ = viper.BindPFlag("compression", compareCmd.Flags().Lookup("compression"))
	_ = viper.BindPFlag("compression_level", compareCmd.Flags().Lookup("compression-level"))
	_ = viper.BindPFlag("upload", compareCmd.Flags().Lookup("upload"))
	_ = viper.BindPFlag("s3.endpoint", compareCmd.Flags().Lookup("s3-endpoint"))
	_ = viper.BindPFlag("s3.bucket", compareCmd.Flags().Lookup("s3-bucket"))
	_ = viper.BindPFlag("s3.access_key", compareCmd.Flags().Lookup("s3-access-key"))
	_ = viper.BindPFlag("s3.secret_key", compareCmd.Flags().Lookup("s3-secret-key"))
	_ = viper.BindPFlag("s3.region", compareCmd.Flags().Lookup("s3-region"))
	_ = viper.BindPFlag("s3.key_prefix", compareCmd.Flags().Lookup("s3-key-prefix"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".snapdiff")
	}

	viper.SetEnvPrefix("SNAPDIFF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && debug {
		// Initialize logger early if reading config in debug mode
		if logger == nil {
			initLogger(debug, logFormat)
		}
		logger.Debug(fmt.Sprintf("📄 Using config file: %s", viper.ConfigFileUsed()))
	}
}

// splitKeys parses the comma-separated key list, trimming whitespace.
func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// sourceFromViper builds one side's source config from its viper subtree.
func sourceFromViper(side string) SourceConfig {
	source := SourceConfig{
		Type:  viper.GetString(side + ".type"),
		Path:  viper.GetString(side + ".path"),
		Table: viper.GetString(side + ".table"),
		Database: DatabaseConfig{
			Host:     viper.GetString(side + ".db.host"),
			Port:     viper.GetInt(side + ".db.port"),
			User:     viper.GetString(side + ".db.user"),
			Password: viper.GetString(side + ".db.password"),
			Name:     viper.GetString(side + ".db.name"),
			SSLMode:  viper.GetString(side + ".db.sslmode"),
		},
	}
	// s3:// paths imply an s3 source even with the default type.
	if source.Type == SourceFile && strings.HasPrefix(source.Path, "s3://") {
		source.Type = SourceS3
	}
	return source
}

func runCompare() {
	// Add panic recovery to catch any unexpected crashes
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n❌ PANIC: %v\n", r)
			os.Exit(1)
		}
	}()

	config := &Config{
		Debug:            viper.GetBool("debug"),
		LogFormat:        viper.GetString("log_format"),
		DryRun:           viper.GetBool("dry_run"),
		Progress:         viper.GetBool("progress"),
		Keys:             splitKeys(viper.GetString("keys")),
		StrictKeys:       viper.GetBool("strict_keys"),
		V1:               sourceFromViper("v1"),
		V2:               sourceFromViper("v2"),
		OutDir:           viper.GetString("outdir"),
		Prefix:           viper.GetString("prefix"),
		OutputFormat:     viper.GetString("output_format"),
		Compression:      viper.GetString("compression"),
		CompressionLevel: viper.GetInt("compression_level"),
		Upload:           viper.GetBool("upload"),
		S3: S3Config{
			Endpoint:  viper.GetString("s3.endpoint"),
			Bucket:    viper.GetString("s3.bucket"),
			AccessKey: viper.GetString("s3.access_key"),
			SecretKey: viper.GetString("s3.secret_key"),
			Region:    viper.GetString("s3.region"),
			KeyPrefix: viper.GetString("s3.key_prefix"),
		},
	}

	// Initialize logger
	initLogger(config.Debug, config.LogFormat)

	logger.Info("")
	logger.Info(fmt.Sprintf("📊 Snapshot Differ v%s", Version))
	logger.Info("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	logger.Debug("Validating configuration...")
	if err := config.Validate(); err != nil {
		logger.Error(fmt.Sprintf("❌ Configuration error: %s", err.Error()))
		os.Exit(1)
	}
	logger.Debug("Configuration validated successfully")

	// Check for updates in background (non-blocking)
	updateCheckDone := make(chan struct{})
	go func() {
		defer close(updateCheckDone)
		result := checkForUpdates(context.Background(), Version)

		if result.UpdateAvailable {
			logger.Info("")
			logger.Info(fmt.Sprintf("💡 %s", formatUpdateMessage(result)))
		} else if result.Error != nil && config.Debug {
			logger.Debug(fmt.Sprintf("Version check failed: %v", result.Error))
		}
	}()

	// Give version check a short time to complete, but don't block startup
	select {
	case <-updateCheckDone:
		// Version check completed quickly
	case <-time.After(2 * time.Second):
		logger.Debug("Version check taking longer than expected, continuing...")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Debug("Creating differ...")
	differ := NewDiffer(config, logger)
	logger.Debug("Starting comparison...")

	var err error
	if config.Progress {
		err = runWithProgress(ctx, differ)
	} else {
		err = differ.Run(ctx)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("")
			logger.Info("⚠️  Comparison cancelled by user")
			os.Exit(130)
		}
		logger.Error(fmt.Sprintf("❌ Comparison failed: %s", err.Error()))
		os.Exit(1)
	}

	differ.PrintSummary()

	logger.Info("")
	logger.Info("✅ Comparison completed successfully!")
}
