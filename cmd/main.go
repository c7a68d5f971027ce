package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Vovarama1992/voice_cascade/internal/capability"
	"github.com/Vovarama1992/voice_cascade/internal/capture"
	"github.com/Vovarama1992/voice_cascade/internal/catalog"
	"github.com/Vovarama1992/voice_cascade/internal/config"
	"github.com/Vovarama1992/voice_cascade/internal/delivery"
	"github.com/Vovarama1992/voice_cascade/internal/domain"
	"github.com/Vovarama1992/voice_cascade/internal/error_notificator"
	"github.com/Vovarama1992/voice_cascade/internal/infra"
	"github.com/Vovarama1992/voice_cascade/internal/ports"
	"github.com/Vovarama1992/voice_cascade/internal/recognition"
	"github.com/Vovarama1992/voice_cascade/internal/speech"
)

const serviceName = "voice_cascade"

func main() {

	// =========================================================================
	// ENV / LOGGER
	// =========================================================================

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	baseLogger, _ := zap.NewProduction()
	defer baseLogger.Sync()
	zl := logger.NewZapLogger(baseLogger.Sugar())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// =========================================================================
	// DB INIT (optional)
	// =========================================================================

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer db.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.PingContext(pingCtx); err != nil {
			log.Fatalf("db ping failed: %v", err)
		}
		if err := infra.EnsureSchema(pingCtx, db); err != nil {
			log.Fatalf("db schema: %v", err)
		}
		cancel()
	}

	// =========================================================================
	// INFRASTRUCTURE
	// =========================================================================

	var opts []speech.Option
	var history ports.HistoryService

	if cfg.S3 != nil {
		s3Client, err := infra.NewS3Client(ctx, *cfg.S3)
		if err != nil {
			log.Fatalf("failed to init s3: %v", err)
		}
		opts = append(opts, speech.WithArtifactStore(domain.NewS3Service(s3Client)))
	}

	if db != nil {
		recordService := domain.NewRecordService(infra.NewSynthesisRepo(db), speech.AudioDuration)
		opts = append(opts, speech.WithJournal(recordService))
		history = recordService
	}

	// =========================================================================
	// ERROR NOTIFICATION
	// =========================================================================

	if cfg.Telegram != nil {
		errInfra, err := error_notificator.NewTelegramInfra(cfg.Telegram.Token, cfg.Telegram.AdminChatID, serviceName, baseLogger)
		if err != nil {
			// без алертов жить можно
			baseLogger.Warn("telegram alerts disabled", zap.Error(err))
		} else {
			opts = append(opts, speech.WithAlerter(error_notificator.NewService(errInfra, time.Minute)))
		}
	}

	// =========================================================================
	// CLIENTS (TTS / STT)
	// =========================================================================

	primary := speech.NewRemoteClient("edge", cfg.Primary.Endpoint, cfg.Primary.APIKey, cfg.Primary.Timeout)

	var secondary speech.Provider
	if sc := cfg.Secondary; sc != nil {
		switch sc.Kind {
		case config.SecondaryElevenLabs:
			secondary = speech.NewElevenLabsClient(sc.APIKey, sc.Endpoint)
		case config.SecondaryOpenAI:
			secondary = speech.NewOpenAISpeechClient(sc.APIKey, sc.Endpoint)
		default:
			secondary = speech.NewRemoteClient("backend", sc.Endpoint, sc.APIKey, sc.Timeout)
		}
	}

	var transcriber recognition.Transcriber
	switch {
	case cfg.Recognition.Transcriber == "deepgram" && cfg.Recognition.DeepgramKey != "":
		transcriber = recognition.NewDeepgramClient(cfg.Recognition.DeepgramKey, cfg.Recognition.DeepgramURL)
	case cfg.Recognition.OpenAIKey != "":
		transcriber = recognition.NewWhisperClient(cfg.Recognition.OpenAIKey, cfg.Recognition.OpenAIBaseURL)
	}

	var voiceSource catalog.Source
	if cfg.VoicesEndpoint != "" {
		voiceSource = catalog.NewHTTPSource(cfg.VoicesEndpoint, cfg.VoicesAPIKey)
	}

	// =========================================================================
	// DOMAIN SERVICES
	// =========================================================================

	captureHost := capture.NewCommandHost(baseLogger)
	pipeline := capture.NewPipeline(captureHost, capture.Config{
		PerCharTimeout: cfg.Capture.PerCharTimeout,
		Language:       cfg.Capture.Language,
	}, baseLogger)

	speechService := speech.NewService(primary, secondary, pipeline, baseLogger, opts...)

	micHost := recognition.NewMicrophoneHost(transcriber, cfg.Recognition.Window, baseLogger)
	bridge := recognition.NewBridge(micHost, baseLogger)

	detector := capability.NewDetector(captureHost.SynthesisAvailable, micHost.RecognitionSupported)
	voiceCatalog := catalog.NewService(voiceSource, baseLogger)

	var authRepo ports.AuthRepo = infra.NewStaticAuthRepo(cfg.AuthPassword)
	if db != nil && cfg.AuthPassword == "" {
		authRepo = infra.NewAuthRepo(db)
	}
	authService := domain.NewAuthService(authRepo, cfg.AuthSecret)

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "capabilities: synthesis=" + yesNo(detector.SupportsSynthesis()) + " recognition=" + yesNo(detector.SupportsRecognition()) + " secondary=" + yesNo(secondary != nil),
		Service: serviceName,
	})

	// =========================================================================
	// HTTP ROUTER
	// =========================================================================

	handlers := delivery.Handlers{
		Auth:        delivery.NewAuthHandler(authService, zl),
		TTS:         delivery.NewTTSHandler(speechService, zl),
		Voices:      delivery.NewVoiceHandler(voiceCatalog, detector),
		Recognition: delivery.NewRecognitionHandler(bridge, zl),
	}
	if history != nil {
		handlers.History = delivery.NewHistoryHandler(history, zl)
	}

	r := delivery.NewRouter(handlers, authService, cfg.RateLimit)

	// =========================================================================
	// START SERVER
	// =========================================================================

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		// хендлеры завершены, дожидаемся фоновых алертов и записей журнала
		speechService.Wait()
	}()

	zl.Log(logger.LogEntry{
		Level:   "info",
		Message: "listening at " + addr,
		Service: serviceName,
	})

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-stopped
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
