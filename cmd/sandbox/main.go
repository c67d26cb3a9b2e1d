package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"kapi/internal/config"
	"kapi/internal/logging"
	"kapi/internal/sandbox"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("Error loading .env file")
	}

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.New(config.LoggingConfig{Level: cfg.LogLevel, Format: cfg.LogFormat})

	server, err := sandbox.NewServer(sandbox.Config{
		Port:         cfg.Port,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
		Accounts: []sandbox.Account{{
			APIKey:    cfg.APIKey,
			APISecret: cfg.APISecret,
			Orders:    demoOrders(time.Now()),
		}},
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create sandbox server")
	}

	if cfg.SecretGenerated {
		printProps(cfg)
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to shutdown server gracefully")
		}

		logger.Info().Msg("Server shutdown complete")
	}
}

// printProps writes a props file matching the generated credentials to stdout
func printProps(cfg *Config) {
	base := fmt.Sprintf("http://localhost:%d", cfg.Port)
	fmt.Printf("# generated sandbox credentials\n")
	fmt.Printf("%s=%s\n", config.KeyAPIKey, cfg.APIKey)
	fmt.Printf("%s=%s\n", config.KeyAPISecret, cfg.APISecret)
	fmt.Printf("%s=%s\n", config.KeyBaseURL, base)
	fmt.Printf("%s=%s\n", config.KeyOpenOrdersPath, sandbox.OpenOrdersPath)
	fmt.Printf("%s=XBTUSD\n", config.KeyPair)
}

func demoOrders(now time.Time) map[string]sandbox.Order {
	opened := float64(now.Add(-time.Hour).UnixNano()) / 1e9

	return map[string]sandbox.Order{
		"OQCLML-BW3P3-BUCMWZ": {
			Status:   "open",
			OpenTime: opened,
			Descr: sandbox.OrderDescr{
				Pair:      "XBTUSD",
				Type:      "buy",
				OrderType: "limit",
				Price:     "30010.0",
				Order:     "buy 1.25000000 XBTUSD @ limit 30010.0",
			},
			Volume:  "1.25000000",
			VolExec: "0.37500000",
			Trades:  []string{"TCCCTY-WE2O6-P3NB37"},
		},
		"OB5VMB-B4U2U-DK2WRW": {
			Status:   "open",
			OpenTime: opened,
			Descr: sandbox.OrderDescr{
				Pair:      "ETHUSD",
				Type:      "sell",
				OrderType: "limit",
				Price:     "2500.00",
				Order:     "sell 4.00000000 ETHUSD @ limit 2500.00",
			},
			Volume:  "4.00000000",
			VolExec: "0.00000000",
		},
	}
}
