package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"invoicetools/internal/config"
	"invoicetools/internal/invoice"
	"invoicetools/internal/lock"
	"invoicetools/internal/metrics"
	"invoicetools/internal/render"
	"invoicetools/internal/sequence"
	"invoicetools/internal/sheets"
	"invoicetools/internal/storage"
	"invoicetools/pkg/models"
)

// app bundles what a command needs to run one invoice operation.
type app struct {
	cfg     *config.Config
	service *invoice.Service
	metrics *metrics.Metrics
	redis   *redis.Client
	log     zerolog.Logger
}

// loadedConfig is the configuration main already read at startup.
var loadedConfig *config.Config

// SetConfig hands the startup configuration to the commands so it is not
// read twice.
func SetConfig(cfg *config.Config) {
	loadedConfig = cfg
}

// createApp wires store, lock, sequence and renderer into a service. It
// works on a copy of the startup configuration, loading one only when main
// could not.
func createApp(ctx context.Context, cmd *cobra.Command, log zerolog.Logger) (*app, error) {
	var cfg *config.Config
	if loadedConfig != nil {
		c := *loadedConfig
		cfg = &c
	} else {
		loaded, err := config.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.InvoiceRoot = root
	}

	root, err := filepath.Abs(cfg.InvoiceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice root: %w", err)
	}

	a := &app{cfg: cfg, metrics: metrics.New(), log: log}
	store := storage.NewFileStore(root)

	locker, err := a.createLocker(ctx, store)
	if err != nil {
		return nil, err
	}

	renderer := render.NewRenderer(render.Config{
		TemplatePath: cfg.TemplatePath,
		CompilerPath: cfg.PDFLatexPath,
		LockTimeout:  cfg.LockTimeout,
	}, store, a.metrics)

	a.service = invoice.NewService(
		store,
		sequence.NewGenerator(store.SequencePath()),
		invoice.NewCoordinator(store, locker, a.metrics),
		renderer,
		a.metrics,
		invoice.Options{EnableWrites: cfg.EnableWrites, Separator: cfg.NumberSeparator},
	)

	log.Debug().
		Str("root", root).
		Bool("writes_enabled", cfg.EnableWrites).
		Bool("redis_lock", a.redis != nil).
		Str("pdflatex", cfg.PDFLatexPath).
		Msg("Invoice service ready")
	return a, nil
}

// createLocker uses a Redis lease when REDIS_URL is set and the advisory
// file lock otherwise.
func (a *app) createLocker(ctx context.Context, store *storage.FileStore) (lock.Locker, error) {
	if a.cfg.RedisURL == "" {
		return lock.NewFileLocker(store.LockPath(), a.cfg.LockTimeout), nil
	}

	opts, err := redis.ParseURL(a.cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	a.redis = redis.NewClient(opts)
	if err := a.redis.Ping(ctx).Err(); err != nil {
		_ = a.redis.Close()
		a.redis = nil
		return nil, fmt.Errorf("connect to redis for write lock: %w", err)
	}

	return lock.NewRedisLocker(a.redis, lock.KeyForRoot(store.Root()),
		lock.WithLeaseTTL(a.cfg.LockTTL),
		lock.WithTimeout(a.cfg.LockTimeout),
	), nil
}

// Close flushes metrics and releases connections.
func (a *app) Close() {
	if a.cfg.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.MetricsFile); err != nil {
			a.log.Warn().Err(err).Str("path", a.cfg.MetricsFile).Msg("Failed to write metrics file")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close redis client")
		}
	}
}

// sheetsService connects to the Google Sheet named by GOOGLE_SHEET_URL.
func (a *app) sheetsService(ctx context.Context) (*sheets.Service, error) {
	if a.cfg.SheetURL == "" {
		return nil, models.NewValidationError("GOOGLE_SHEET_URL", "", "must be set")
	}
	creds, err := a.cfg.GoogleCredentials()
	if err != nil {
		return nil, err
	}
	return sheets.NewSheetsService(ctx, a.cfg.SheetURL, creds)
}

// createCommandContext cancels on SIGINT and SIGTERM.
func createCommandContext(log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling operation")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// readInvoiceInput decodes an invoice payload from path, or stdin for "-".
func readInvoiceInput(path string, stdin io.Reader) (models.Invoice, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return models.Invoice{}, fmt.Errorf("read invoice input: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var inv models.Invoice
	if err := dec.Decode(&inv); err != nil {
		return models.Invoice{}, models.NewValidationError("input", path, err.Error())
	}
	return inv, nil
}

// errorOutput is printed on stdout when an operation fails.
type errorOutput struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// handleInvoiceError reports err as a structured failure on out and returns
// the error for the exit status.
func handleInvoiceError(cmd *cobra.Command, err error, log zerolog.Logger) error {
	kind := invoice.Kind(err)
	log.Error().Err(err).Str("kind", kind).Msg("Invoice operation failed")

	body := errorBody{Kind: kind, Message: err.Error()}
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		body.Field = vErr.Field
	}
	if outErr := outputJSON(cmd.OutOrStdout(), errorOutput{Error: body}); outErr != nil {
		log.Error().Err(outErr).Msg("Failed to write error output")
	}
	return fmt.Errorf("%s: %w", kind, err)
}

// outputJSON writes v as indented JSON followed by a newline.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to create JSON output: %w", err)
	}
	return nil
}
