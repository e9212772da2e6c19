package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"mediaforge/internal/facade"
	"mediaforge/internal/genjob"
	"mediaforge/internal/http/handlers"
	"mediaforge/internal/http/httpapi"
	"mediaforge/internal/infra"
	"mediaforge/internal/providers/genai"
	imageprovider "mediaforge/internal/providers/image"
	videoprovider "mediaforge/internal/providers/video"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := genai.NewClient(genai.Options{
		APIKey:  cfg.GeminiAPIKey,
		BaseURL: cfg.GeminiBaseURL,
	})

	imageStore := genjob.NewStore(imageprovider.NewGenerator(client), cfg.Image, logger)
	editStore := genjob.NewStore(imageprovider.NewEditor(client), cfg.Edit, logger)
	videoStore := genjob.NewStore(videoprovider.NewGenerator(client), cfg.Video, logger)
	defer func() {
		imageStore.Close()
		editStore.Close()
		videoStore.Close()
	}()

	sweeper := genjob.NewSweeper(logger)
	for _, store := range []*genjob.Store{imageStore, editStore, videoStore} {
		if err := sweeper.Register(store); err != nil {
			logger.Fatal().Err(err).Msg("sweeper registration failed")
		}
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Lookup priority order: image, edit, video.
	svc := facade.New(logger, imageStore, editStore, videoStore)
	app := handlers.NewApp(svc, logger)
	server := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("port", cfg.Port).Msg("http server starting")
		return server.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("shutdown complete")
}
