package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Miura55/freee-labor-bot/internal/server/archive"
	"github.com/Miura55/freee-labor-bot/internal/server/awsutil"
	"github.com/Miura55/freee-labor-bot/internal/server/config"
	"github.com/Miura55/freee-labor-bot/internal/server/freee"
	"github.com/Miura55/freee-labor-bot/internal/server/httpapi"
	"github.com/Miura55/freee-labor-bot/internal/server/line"
	"github.com/Miura55/freee-labor-bot/internal/server/ocr"
	"github.com/Miura55/freee-labor-bot/internal/server/service"
)

type App struct {
	version   string
	buildDate string
	logger    *slog.Logger
	server    *http.Server
	store     Store
}

func New(ctx context.Context, version, buildDate string, logger *slog.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	freeeClient := freee.NewClient(httpClient, cfg.FreeeHRBaseURL, cfg.FreeeAccountingBaseURL)
	deps := service.Deps{
		Repo:      store,
		Messenger: line.NewClient(httpClient, cfg.ChannelAccessToken, cfg.LINEAPIBaseURL, cfg.LINEDataBaseURL),
		OCR:       ocr.NewClient(httpClient, cfg.OCRAPIURL, cfg.OCRAPIKey),
		HR:        freeeClient,
		Expenses:  freeeClient,
		Logger:    logger,
	}
	if cfg.ArchiveBucket != "" {
		awsConf, err := awsutil.Load(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
			o.UsePathStyle = cfg.AWSEndpoint != ""
		})
		deps.Archive = archive.New(client, cfg.ArchiveBucket)
	}

	services, err := service.NewServices(deps, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	router := httpapi.NewRouter(services, logger, cfg.MaxRequestBytes)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Receipt handling waits for OCR and the expense call before replying.
		WriteTimeout: 2*cfg.HTTPTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	logger.Info("configured",
		"store", cfg.StoreBackend,
		"archive", cfg.ArchiveBucket != "",
		"company_id", cfg.CompanyID,
		"timezone", cfg.Location.String(),
	)
	return &App{version: version, buildDate: buildDate, logger: logger, server: server, store: store}, nil
}

func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() { _ = a.store.Close() }()

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	a.logger.Info("labor bot server listening", "version", a.version, "build_date", a.buildDate, "addr", a.server.Addr)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return a.server.Shutdown(shutdownCtx)
}
