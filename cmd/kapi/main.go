package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"kapi/internal/auth"
	"kapi/internal/config"
	"kapi/internal/logging"
	"kapi/internal/rest"
	"kapi/internal/ticker"
)

// Exit codes
const (
	exitOK             = 0
	exitFailure        = 1
	exitConfig         = 2
	exitSecretEncoding = 3
	exitTransport      = 4
	exitDecode         = 5
	exitAPI            = 6
	exitShape          = 7
)

type options struct {
	configPath string
	serverTime bool
	tradePair  bool
	openTrades bool
	pair       string
	nonce      string
}

func main() {
	// .env only feeds the KAPI_* overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("kapi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "f", "", "path to file containing kapi props such as api keys/secrets")
	fs.StringVar(&opts.configPath, "file", "", "path to file containing kapi props such as api keys/secrets")
	fs.BoolVar(&opts.serverTime, "t", false, "get the time on server")
	fs.BoolVar(&opts.serverTime, "server-time", false, "get the time on server")
	fs.BoolVar(&opts.tradePair, "p", false, "get ticker info for the configured pair")
	fs.BoolVar(&opts.tradePair, "trade-pair", false, "get ticker info for the configured pair")
	fs.BoolVar(&opts.openTrades, "o", false, "get the open trades")
	fs.BoolVar(&opts.openTrades, "open-trades", false, "get the open trades")
	fs.StringVar(&opts.pair, "pair", "", "override the pair from the props file")
	fs.StringVar(&opts.nonce, "nonce", "", "override the nonce for the open trades request")

	if err := fs.Parse(args); err != nil {
		return nil, &config.ConfigError{Reason: "invalid arguments", Err: err}
	}
	if fs.NArg() > 0 {
		return nil, &config.ConfigError{Reason: fmt.Sprintf("unexpected argument %q", fs.Arg(0))}
	}
	if opts.configPath == "" {
		return nil, &config.ConfigError{Key: "file", Reason: "is required"}
	}
	if !opts.serverTime && !opts.tradePair && !opts.openTrades {
		return nil, &config.ConfigError{Reason: "nothing to do, pass -t, -p or -o"}
	}

	return opts, nil
}

// run executes the selected operations in order and returns the exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return fail(stderr, err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fail(stderr, err)
	}
	if opts.pair != "" {
		cfg.Exchange.Pair = opts.pair
	}
	if opts.nonce != "" {
		cfg.Exchange.Nonce = opts.nonce
	}

	// every selected operation is checked before any request goes out
	checks := []struct {
		enabled bool
		require func() error
	}{
		{opts.serverTime, cfg.RequireServerTime},
		{opts.tradePair, cfg.RequireTicker},
		{opts.openTrades, cfg.RequireOpenOrders},
	}
	for _, c := range checks {
		if !c.enabled {
			continue
		}
		if err := c.require(); err != nil {
			return fail(stderr, err)
		}
	}

	logger := logging.NewWithWriter(cfg.Logging, stderr)

	var signer *auth.Signer
	if opts.openTrades {
		signer, err = auth.NewSigner(cfg.Exchange.APIKey, cfg.Exchange.APISecret)
		if err != nil {
			return fail(stderr, err)
		}
	}

	client := rest.NewClient(cfg.Exchange.BaseURL, signer, logger, rest.WithTimeout(cfg.Exchange.Timeout))

	if opts.serverTime {
		if err := printServerTime(ctx, client, cfg, stdout); err != nil {
			return fail(stderr, rest.ErrorWithContext(err, "server time"))
		}
	}

	if opts.tradePair {
		if err := printTicker(ctx, client, cfg, logger, stdout); err != nil {
			return fail(stderr, rest.ErrorWithContext(err, "trade pair"))
		}
	}

	if opts.openTrades {
		if err := printOpenOrders(ctx, client, cfg, stdout); err != nil {
			return fail(stderr, rest.ErrorWithContext(err, "open trades"))
		}
	}

	return exitOK
}

func printServerTime(ctx context.Context, client *rest.Client, cfg *config.Config, w io.Writer) error {
	st, err := client.GetServerTime(ctx, cfg.Exchange.TimeEndpoint)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "server time: %d (%s)\n", st.Unixtime, st.RFC1123)
	return nil
}

func printTicker(ctx context.Context, client *rest.Client, cfg *config.Config, logger zerolog.Logger, w io.Writer) error {
	resp, err := client.GetTicker(ctx, cfg.Exchange.TickerEndpoint, cfg.Exchange.Pair)
	if err != nil {
		return err
	}

	validated, err := ticker.Validate(resp)
	if err != nil {
		return err
	}
	logger.Debug().Str("pair", cfg.Exchange.Pair).Str("symbol", validated.Symbol).Msg("Ticker validated")

	t, err := ticker.Parse(validated)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s ask=%s bid=%s last=%s open=%s high=%s low=%s volume=%s vwap=%s trades=%d\n",
		t.Symbol, t.Ask, t.Bid, t.Last, t.Open, t.High, t.Low, t.Volume, t.VWAP, t.Trades)
	return nil
}

func printOpenOrders(ctx context.Context, client *rest.Client, cfg *config.Config, w io.Writer) error {
	orders, err := client.GetOpenOrders(ctx, rest.OpenOrdersRequest{
		Path:  cfg.Exchange.OpenOrdersPath,
		Nonce: cfg.Exchange.Nonce,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "open orders: %d (nonce %s)\n", orders.Count(), orders.Nonce)

	txids := make([]string, 0, len(orders.Open))
	for txid := range orders.Open {
		txids = append(txids, txid)
	}
	sort.Strings(txids)

	for _, txid := range txids {
		fmt.Fprintf(w, "  %s %s\n", txid, orders.Open[txid])
	}
	return nil
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitCode(err)
}

// exitCode maps an error to the process exit status
func exitCode(err error) int {
	var (
		transportErr *rest.TransportError
		decodeErr    *rest.DecodeError
		apiErr       *rest.APIError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrConfig):
		return exitConfig
	case errors.Is(err, auth.ErrInvalidSecretEncoding):
		return exitSecretEncoding
	case errors.As(err, &transportErr):
		return exitTransport
	case errors.As(err, &decodeErr):
		return exitDecode
	case errors.As(err, &apiErr):
		return exitAPI
	case errors.Is(err, ticker.ErrUnexpectedShape):
		return exitShape
	default:
		return exitFailure
	}
}
