package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gate-service/internal/config"
	"gate-service/internal/logger"
	"gate-service/internal/types"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   int
	redisHost  string
	redisPort  int
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "gate-service",
		Short: "Rolling-code gate actuation over a point-to-point radio link",
		Long: `gate-service runs one node of a two-node gate opener. The sender pings the
receiver with rolling codes; the receiver authenticates them, opens the gate when the
sender approaches and toggles it on an explicit force-open.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to the JSON configuration file")
	flags.IntVar(&opts.logLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flags.StringVar(&opts.redisHost, "redis-host", config.DefaultRedisHost, "Redis host")
	flags.IntVar(&opts.redisPort, "redis-port", config.DefaultRedisPort, "Redis port")

	rootCmd.AddCommand(receiverCmd(opts))
	rootCmd.AddCommand(senderCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(simulateCmd(opts))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the configuration for role and applies flags that were set explicitly.
func (o *options) load(cmd *cobra.Command, role types.Role) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath, role)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("redis-host") {
		cfg.Redis.Host = o.redisHost
	}
	if flags.Changed("redis-port") {
		cfg.Redis.Port = o.redisPort
	}

	if err := cfg.Validate(role); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(level int) *logger.Logger {
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}
	return logger.NewLogger(stdLogger, logger.LogLevel(level))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(l *logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			l.Infof("Received signal %v, shutting down...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
