package main

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"gate-service/internal/clock"
	"gate-service/internal/core"
	"gate-service/internal/hardware"
	"gate-service/internal/messaging"
	"gate-service/internal/radio"
	"gate-service/internal/rollingcode"
)

var (
	simSenderAddr   = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	simReceiverAddr = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
)

func simulateCmd(opts *options) *cobra.Command {
	var (
		duration    time.Duration
		bypassAt    time.Duration
		bypassFor   time.Duration
		approachFor time.Duration
		lossPercent int
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a receiver and a sender in-process over a loopback link",
		Long: `simulate runs both nodes against in-memory GPIO and storage. The sender's signal
strength ramps up for the approach period, then the bypass input is held once. The gate
status input follows the actuator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := newLogger(opts.logLevel)
			ctx, cancel := signalContext(l)
			defer cancel()
			ctx, stop := context.WithTimeout(ctx, duration)
			defer stop()

			clk := clock.NewMonotonic()
			senderEnd, receiverEnd := radio.NewLoopbackPair(simSenderAddr, simReceiverAddr, clk)

			start := clk.Now()
			senderEnd.SetRSSI(func() uint8 {
				elapsed := time.Duration(clk.Now()-start) * time.Microsecond
				if elapsed >= approachFor {
					return 200
				}
				return uint8(40 + 160*elapsed/approachFor)
			})
			var dropped int
			senderEnd.SetDrop(func([]byte) bool {
				dropped++
				return lossPercent > 0 && dropped%100 < lossPercent
			})

			gateIO := hardware.NewMemoryIO(hardware.ReceiverMappings)
			senderIO := hardware.NewMemoryIO(hardware.SenderMappings)
			gateIO.SetInput(hardware.ChannelGateStatus, true)
			gateStore := messaging.NewMemoryClient()
			senderStore := messaging.NewMemoryClient()

			gate := core.NewGateSystem(gateIO, receiverEnd, gateStore, clk, l.WithTag("gate"))
			sender := core.NewSenderSystem(senderIO, senderEnd, senderStore, simReceiverAddr, clk, l.WithTag("sender"))
			if err := gate.Start(ctx); err != nil {
				return err
			}
			if err := sender.Start(ctx); err != nil {
				return err
			}

			var wg sync.WaitGroup
			wg.Add(3)
			go func() {
				defer wg.Done()
				gate.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				sender.Run(ctx)
			}()
			go func() {
				defer wg.Done()
				driveInputs(ctx, clk, start, gateIO, senderIO, bypassAt, bypassFor)
			}()
			wg.Wait()

			code, _ := senderStore.Value(rollingcode.KeyCounter)
			expected, _ := gateStore.Value(rollingcode.KeyExpected)
			l.Infof("Simulation finished: sender code %d, receiver expects after %d, %d actuator writes",
				code, expected, gateIO.Writes(hardware.ChannelGateCmd))
			return nil
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 20*time.Second, "How long to run")
	cmd.Flags().DurationVar(&approachFor, "approach", 5*time.Second, "Duration of the signal strength ramp")
	cmd.Flags().DurationVar(&bypassAt, "bypass-at", 10*time.Second, "When to press the bypass input")
	cmd.Flags().DurationVar(&bypassFor, "bypass-for", time.Second, "How long to hold the bypass input")
	cmd.Flags().IntVar(&lossPercent, "loss", 0, "Percentage of sender frames to drop")
	return cmd
}

// driveInputs plays the physical side: the gate status follows the actuator after a short
// travel time and the bypass input is held once.
func driveInputs(ctx context.Context, clk clock.Clock, start int64, gateIO, senderIO *hardware.MemoryIO, bypassAt, bypassFor time.Duration) {
	const travel = 500 * time.Millisecond
	var drivenSince int64 = -1

	for clk.Sleep(ctx, 10*time.Millisecond) == nil {
		now := clk.Now()
		elapsed := time.Duration(now-start) * time.Microsecond

		senderIO.SetInput(hardware.ChannelBypass, elapsed >= bypassAt && elapsed < bypassAt+bypassFor)

		if !gateIO.Output(hardware.ChannelGateCmd) {
			drivenSince = -1
			continue
		}
		if drivenSince < 0 {
			drivenSince = now
		}
		if time.Duration(now-drivenSince)*time.Microsecond >= travel {
			status, _ := gateIO.ReadDigitalInput(hardware.ChannelGateStatus)
			gateIO.SetInput(hardware.ChannelGateStatus, !status)
			drivenSince = now
		}
	}
}
