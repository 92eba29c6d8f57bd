package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/hackgods/donation-pipeline/internal/logging"
)

type SimConfig struct {
	APIBaseURL string
	Email      string
	Password   string
	Duration   time.Duration
	Workers    int

	// Fraction of screenings recorded as deferred and of lab panels with a
	// positive marker.
	DeferRatio    float64
	PositiveRatio float64
}

type Simulator struct {
	config  SimConfig
	client  *apiClient
	logger  zerolog.Logger
	metrics Metrics
}

func main() {
	_ = godotenv.Load()

	v := newViper()
	cfg, err := loadConfig(v)
	if err != nil {
		boot := logging.Bootstrap("simulate")
		boot.Fatal().Err(err).Msg("invalid config")
	}

	logger := logging.New(v.GetString("APP_ENV"), "simulate")
	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("defer_ratio", cfg.DeferRatio).
		Float64("positive_ratio", cfg.PositiveRatio).
		Msg("simulator starting")

	client := newAPIClient(cfg.APIBaseURL, &http.Client{Timeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = client.Login(ctx, cfg.Email, cfg.Password)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Str("email", cfg.Email).Msg("login failed")
	}

	sim := &Simulator{config: cfg, client: client, logger: logger}
	sim.Run()
	writeReport(os.Stdout, cfg, &sim.metrics)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("SIM_API_BASE_URL", "http://localhost:8080")
	v.SetDefault("SIM_EMAIL", "bank@donate.local")
	v.SetDefault("SIM_PASSWORD", "donate-dev-123")
	v.SetDefault("SIM_DURATION", "30s")
	v.SetDefault("SIM_WORKERS", 10)
	v.SetDefault("SIM_DEFER_RATIO", 0.1)
	v.SetDefault("SIM_POSITIVE_RATIO", 0.05)

	return v
}

func loadConfig(v *viper.Viper) (SimConfig, error) {
	cfg := SimConfig{
		APIBaseURL:    strings.TrimRight(v.GetString("SIM_API_BASE_URL"), "/"),
		Email:         v.GetString("SIM_EMAIL"),
		Password:      v.GetString("SIM_PASSWORD"),
		Duration:      v.GetDuration("SIM_DURATION"),
		Workers:       v.GetInt("SIM_WORKERS"),
		DeferRatio:    v.GetFloat64("SIM_DEFER_RATIO"),
		PositiveRatio: v.GetFloat64("SIM_POSITIVE_RATIO"),
	}

	if cfg.Workers <= 0 {
		return SimConfig{}, errors.New("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return SimConfig{}, errors.New("SIM_DURATION must be > 0")
	}
	if cfg.DeferRatio < 0 || cfg.DeferRatio > 1 || cfg.PositiveRatio < 0 || cfg.PositiveRatio > 1 {
		return SimConfig{}, errors.New("SIM_DEFER_RATIO and SIM_POSITIVE_RATIO must be within [0, 1]")
	}
	return cfg, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Msg("simulation running")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	faker := gofakeit.New(uint64(time.Now().UnixNano()) + uint64(workerID))

	for ctx.Err() == nil {
		board, ok := s.readBoard(ctx)
		if !ok {
			pause(ctx, idleBackoff)
			continue
		}

		cards := actionable(board)
		if len(cards) == 0 {
			pause(ctx, idleBackoff)
			continue
		}

		s.step(ctx, faker, cards[faker.Number(0, len(cards)-1)])
	}
}

const idleBackoff = 250 * time.Millisecond

func pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
