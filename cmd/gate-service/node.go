package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gate-service/internal/clock"
	"gate-service/internal/config"
	"gate-service/internal/core"
	"gate-service/internal/hardware"
	"gate-service/internal/logger"
	"gate-service/internal/messaging"
	"gate-service/internal/radio"
	"gate-service/internal/types"
)

// node is the redis, GPIO and radio plumbing shared by both roles.
type node struct {
	cfg    *config.Config
	logger *logger.Logger
	clock  clock.Clock
	client *messaging.RedisClient
	io     *hardware.LinuxHardwareIO
	bridge *radio.RedisBridge
}

func openNode(cfg *config.Config, role types.Role, l *logger.Logger) (*node, error) {
	n := &node{cfg: cfg, logger: l, clock: clock.NewMonotonic()}

	n.client = messaging.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.NodeID, cfg.StoreNamespace, l.WithTag("redis"))
	if err := n.client.Connect(); err != nil {
		return nil, err
	}

	n.io = hardware.NewLinuxHardwareIO(cfg.Mappings(role), l.WithTag("gpio"))
	if role == types.RoleReceiver {
		n.io.SetInitialValue(hardware.ChannelGateCmd, false)
	}
	if err := n.io.Initialize(); err != nil {
		n.client.Close()
		return nil, fmt.Errorf("failed to initialize hardware: %w", err)
	}

	n.bridge = radio.NewRedisBridge(n.client.Client(), cfg.NodeID, n.clock, l.WithTag("radio"))
	return n, nil
}

func (n *node) close() {
	if err := n.bridge.Close(); err != nil {
		n.logger.Warnf("Failed to stop radio bridge: %v", err)
	}
	n.io.Cleanup()
	if err := n.client.Close(); err != nil {
		n.logger.Warnf("Failed to close redis: %v", err)
	}
}

func receiverCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "receiver",
		Short: "Run the gate receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, types.RoleReceiver)
			if err != nil {
				return err
			}
			l := newLogger(cfg.LogLevel)
			l.Infof("Starting gate receiver %s", cfg.NodeID)

			n, err := openNode(cfg, types.RoleReceiver, l)
			if err != nil {
				l.Fatalf("Failed to start receiver: %v", err)
			}
			defer n.close()

			ctx, cancel := signalContext(l)
			defer cancel()

			gate := core.NewGateSystem(n.io, n.bridge, n.client, n.clock, l.WithTag("gate"))
			if err := gate.Start(ctx); err != nil {
				return err
			}
			if err := n.bridge.Start(); err != nil {
				return err
			}

			l.Infof("System started successfully")
			err = gate.Run(ctx)
			l.Infof("Shutdown complete")
			return err
		},
	}
}

func senderCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sender",
		Short: "Run the hand-held sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd, types.RoleSender)
			if err != nil {
				return err
			}
			peer, err := cfg.Peer()
			if err != nil {
				return err
			}
			l := newLogger(cfg.LogLevel)
			l.Infof("Starting sender %s, receiver %s", cfg.NodeID, peer)

			n, err := openNode(cfg, types.RoleSender, l)
			if err != nil {
				l.Fatalf("Failed to start sender: %v", err)
			}
			defer n.close()

			ctx, cancel := signalContext(l)
			defer cancel()

			sender := core.NewSenderSystem(n.io, n.bridge, n.client, peer, n.clock, l.WithTag("sender"))
			if err := sender.Start(ctx); err != nil {
				return err
			}
			if err := n.bridge.Start(); err != nil {
				return err
			}

			l.Infof("System started successfully")
			err = sender.Run(ctx)
			l.Infof("Shutdown complete")
			return err
		},
	}
}
