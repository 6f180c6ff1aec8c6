// ABOUTME: Interactive demo driver for the agent communication client
// ABOUTME: Dials a control-plane endpoint, registers, and relays stdin as sends

// Command acs-agent-demo is a minimal end-to-end driver for the agent
// communication client: it dials a control-plane endpoint, registers, then
// echoes whatever arrives on the stream back as an acknowledgement while
// forwarding stdin lines as outbound sends.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/GoogleCloudPlatform/agentcommunication-client/client"
	"github.com/GoogleCloudPlatform/agentcommunication-client/connectionid"
	"github.com/GoogleCloudPlatform/agentcommunication-client/frame"
	"github.com/GoogleCloudPlatform/agentcommunication-client/internal/config"
	"github.com/GoogleCloudPlatform/agentcommunication-client/transport/grpcstream"
)

const banner = `
                   ___ ____
  ____ ___________/   |  ____ _____  ____/ /
 / __  / ___/ ___/ /| | / __  / _  |/ __  /
/ /_/ / /__(__  ) ___ |/ /_/ /  __// /_/ /
\__,_/\___/____/_/  |_/\__, /\___/\__,_/
                      /____/  agent demo
`

func main() {
	configPath := flag.String("config", getConfigPath(), "path to acs-agent-demo config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// getConfigPath returns the path to the agent config file. Priority:
// ACS_AGENT_CONFIG env var > ./acs-agent-demo.yaml.
func getConfigPath() string {
	if envPath := os.Getenv("ACS_AGENT_CONFIG"); envPath != "" {
		return envPath
	}
	return "acs-agent-demo.yaml"
}

func run(configPath string) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("  ▶ ")
	fmt.Printf("Config:     %s\n", configPath)
	green.Print("  ▶ ")
	fmt.Printf("Target:     %s\n", cfg.Transport.Target)
	green.Print("  ▶ ")
	fmt.Printf("Connection: %s/%s\n\n", cfg.Connection.ResourceID, cfg.Connection.ChannelID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, err := grpcstream.Dial(cfg.Transport.Target, grpcstream.DialOptions{
		Insecure:         cfg.Transport.Insecure,
		KeepaliveTime:    cfg.Transport.KeepaliveTime,
		KeepaliveTimeout: cfg.Transport.KeepaliveTimeout,
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("dialing transport: %w", err)
	}
	defer st.Close()

	connID := connectionid.New(cfg.Connection.ResourceID, cfg.Connection.ChannelID)

	yellow := color.New(color.FgYellow)
	sink := func(f *frame.Frame) {
		if f.IsAck() {
			return
		}
		yellow.Printf("  ◀ [%s] %s\n", f.GetMessageID(), string(f.GetBody().GetData()))
	}

	c, err := client.Create(ctx, st, connID, sink, client.Options{
		MaxAttempts:         cfg.Retry.MaxAttempts,
		AckTimeout:          cfg.Retry.AckTimeout,
		RegistrationTimeout: cfg.Retry.RegistrationTimeout,
		Logger:              logger,
	})
	if err != nil {
		return fmt.Errorf("registering: %w", err)
	}
	green.Println("  ▶ registered, state:", c.State())

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := c.SendMessage(&frame.Body{Data: []byte(line)}); err != nil {
			logger.Warn("send failed", "error", err)
			continue
		}
		fmt.Println("  ▶ acked")
	}

	cancel()
	return c.AwaitReactor()
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
