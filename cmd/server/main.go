// Command server runs the streetspeak HTTP API.
//
// All wiring happens here: configuration comes from the environment, the
// slang vocabulary and video cache live on local disk, and expired cache
// entries are evicted on a cron schedule.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/slanglearn/streetspeak/internal/config"
	"github.com/slanglearn/streetspeak/internal/httpserver"
	"github.com/slanglearn/streetspeak/internal/llm"
	"github.com/slanglearn/streetspeak/internal/youtube"
	"github.com/slanglearn/streetspeak/pkg/streetspeak"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/cache/sqlite"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/candidates"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/discovery"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/fetch"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/slangstore"
	"github.com/slanglearn/streetspeak/pkg/streetspeak/verify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.Debug("debug logging enabled")
	}

	vocab, err := config.LoadVocabulary(cfg.VocabPath)
	if err != nil {
		log.WithError(err).Fatal("load vocabulary")
	}

	store, err := slangstore.Open(cfg.SlangPath)
	if err != nil {
		log.WithError(err).Fatal("open slang store")
	}
	log.WithField("terms", store.Len()).Info("slang vocabulary loaded")

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	videoCache, err := sqlite.Open(startupCtx, cfg.CacheDBPath)
	if err != nil {
		log.WithError(err).Fatal("open video cache")
	}
	defer videoCache.Close()

	api := youtube.New(cfg.YouTubeAPIKey, log)

	fetcher := fetch.New(api, log)
	fetcher.SupplementalTopics = vocab.SupplementalTopics

	chat := &llm.Client{
		BaseURL: cfg.LLMBaseURL,
		APIKey:  cfg.LLMAPIKey,
		Model:   cfg.LLMModel,
	}
	extractor := candidates.NewExtractor(candidates.DefaultConfig(), vocab.CommonWords, vocab.CommonBigrams)
	disc := discovery.New(extractor, verify.New(chat, log), store, log)

	svc := streetspeak.NewService(fetcher, disc, store, videoCache, log)
	svc.TTL = cfg.CacheTTL

	// Expired entries are harmless until read, so hourly cleanup is enough
	// to keep the database file from growing unbounded.
	sched := cron.New()
	if _, err := sched.AddFunc(cfg.EvictSchedule, func() {
		removed, err := svc.EvictExpiredCache(context.Background())
		if err != nil {
			log.WithError(err).Warn("cache eviction failed")
			return
		}
		if removed > 0 {
			log.WithField("removed", removed).Info("evicted expired cache entries")
		}
	}); err != nil {
		log.WithError(err).Fatal("invalid eviction schedule")
	}
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: httpserver.New(svc, log).Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
	case err := <-serverErr:
		log.WithError(err).Error("server error")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown error")
		os.Exit(1)
	}
	log.Info("server stopped")
}
