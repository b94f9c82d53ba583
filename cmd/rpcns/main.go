package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"rpcns/internal/client"
	"rpcns/internal/config"
	"rpcns/internal/script"
	"rpcns/internal/session"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "path to config file (presets are used when empty)")
	networkName := flag.String("network", "polkadot", "network to use")
	url := flag.String("url", "", "node URL, overrides the configured one (ws:// or wss:// selects WebSocket)")
	call := flag.String("call", "", "endpoint to call, as namespace.endpoint")
	arg := flag.String("arg", "", "JSON argument for -call; plain text is sent as a string")
	scriptPath := flag.String("script", "", "path to a JavaScript file to run against the api")
	login := flag.String("login", "", "remember an account address as logged in")
	logout := flag.Bool("logout", false, "forget the logged-in account")
	whoami := flag.String("whoami", "", "check whether an account address is logged in")
	account := flag.Bool("account", false, "print the logged-in account")
	list := flag.Bool("list", false, "list the endpoints available on the network")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := setupLogger(cfg.LogLevel)

	if *login != "" || *logout || *whoami != "" || *account {
		cmd := sessionCommand{login: *login, logout: *logout, whoami: *whoami, account: *account}
		if err := cmd.run(os.Stdout, cfg.SessionPath, logger); err != nil {
			logger.Fatal().Err(err).Msg("session command failed")
		}
		return
	}

	if *url != "" {
		applyURL(cfg, *networkName, *url)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := client.FromConfig(ctx, cfg, *networkName, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create client")
	}
	defer c.Close()

	switch {
	case *list:
		printMethods(c)
	case *call != "":
		err = runCall(ctx, c, *call, *arg)
	case *scriptPath != "":
		err = runScript(ctx, c, cfg, logger, *scriptPath)
	default:
		flag.Usage()
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		c.Close()
		os.Exit(1)
	}
}

// loadConfig loads the config file, or the preset defaults when path is empty
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyURL points the named network at url, adding it from its preset if needed
func applyURL(cfg *config.Config, name, url string) {
	nc, ok := cfg.Network(name)
	if !ok {
		cfg.Networks = append(cfg.Networks, config.NetworkConfig{Name: name, Preset: name})
		nc = &cfg.Networks[len(cfg.Networks)-1]
	}
	if strings.HasPrefix(url, "ws://") || strings.HasPrefix(url, "wss://") {
		nc.Transport = config.TransportWS
		nc.WSURL = url
	} else {
		nc.Transport = config.TransportHTTP
		nc.RPCURL = url
	}
}

func printMethods(c *client.Client) {
	api := c.API()
	for _, ns := range api.Namespaces() {
		endpoints := api.Methods()[ns]
		if len(endpoints) == 0 {
			fmt.Printf("%s: (none)\n", ns)
			continue
		}
		fmt.Printf("%s: %s\n", ns, strings.Join(endpoints, ", "))
	}
}

func runCall(ctx context.Context, c *client.Client, target, rawArg string) error {
	ns, endpoint, ok := strings.Cut(target, ".")
	if !ok {
		return fmt.Errorf("invalid -call %q, want namespace.endpoint", target)
	}

	var arg interface{}
	if rawArg != "" {
		if err := json.Unmarshal([]byte(rawArg), &arg); err != nil {
			arg = rawArg
		}
	}

	result, err := c.API().Call(ctx, ns, endpoint, arg)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runScript(ctx context.Context, c *client.Client, cfg *config.Config, logger zerolog.Logger, path string) error {
	rt := script.NewRuntime(c.API(), logger)
	rt.SetTimeout(cfg.GetScriptTimeoutDuration())

	value, err := rt.RunFile(ctx, path)
	if err != nil {
		return err
	}
	if value == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode script result: %w", err)
	}
	return printJSON(data)
}

// sessionCommand is one of the session flags; the first one set wins
type sessionCommand struct {
	login   string
	logout  bool
	whoami  string
	account bool
}

func (c sessionCommand) run(out io.Writer, path string, logger zerolog.Logger) error {
	store, err := session.OpenLevelDB(path, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	switch {
	case c.login != "":
		if err := session.Remember(store, session.Account{Address: c.login}); err != nil {
			return err
		}
		logger.Info().Str("address", c.login).Msg("logged in")
	case c.logout:
		if err := session.Forget(store); err != nil {
			return err
		}
		logger.Info().Msg("logged out")
	case c.whoami != "":
		fmt.Fprintln(out, session.IsLoggedIn(store, session.Account{Address: c.whoami}))
	case c.account:
		current, ok := session.Current(store)
		if !ok {
			return errors.New("no account logged in")
		}
		fmt.Fprintln(out, current.Address)
	}
	return nil
}

func printJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		fmt.Println(string(data))
		return nil
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// setupLogger configures the zerolog logger; output goes to stderr so stdout
// carries only results
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
