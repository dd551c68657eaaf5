package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakfieldlabs/rf4cetools/internal/udpbridge"
	"github.com/oakfieldlabs/rf4cetools/pkg/rf4ce"
)

func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <output_file>",
		Short: "Recover the link key from an in-progress pairing exchange",
		Long: `pair watches RF4CE traffic for a pairing response followed by the 37
key-seed frames, derives the 128-bit link key, and writes the recovered
LinkConfig to output_file. Any frame out of the expected sequence aborts
the capture without writing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPair(cmd.Context(), args[0])
		},
	}
}

func runPair(parent context.Context, outputFile string) error {
	bridge, err := udpbridge.Dial(udpLocal, udpPeer, channel, logger)
	if err != nil {
		return fmt.Errorf("dial radio bridge: %w", err)
	}
	defer bridge.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	observer := rf4ce.NewKeyRecoveryObserver()
	logger.Info("waiting for pairing response", "channel", channel)

	for {
		raw, err := bridge.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("pairing capture interrupted: %w", ctx.Err())
			}
			return fmt.Errorf("read frame: %w", err)
		}
		if len(raw) == 5 {
			// 802.15.4 ACK, no RF4CE payload to decode.
			continue
		}

		mac, err := rf4ce.ParseMACFrame(raw)
		if err != nil {
			logger.Debug("dropping unparseable MAC frame", "error", err)
			continue
		}
		frame, err := rf4ce.ParseFrame(mac.Payload, rf4ce.Node{}, rf4ce.Node{}, nil)
		if err != nil {
			logger.Debug("dropping unparseable RF4CE frame", "error", err)
			continue
		}

		state, err := observer.Observe(mac, frame)
		if err != nil {
			return fmt.Errorf("key recovery aborted: %w", err)
		}

		switch state {
		case rf4ce.StateCollecting:
			logger.Info("collecting key seeds")
		case rf4ce.StateDone:
			cfg, ok := observer.Result()
			if !ok {
				return fmt.Errorf("key recovery reported done with no result")
			}
			if err := cfg.Save(outputFile); err != nil {
				return fmt.Errorf("save link config: %w", err)
			}
			fmt.Println(styleOK.Render(fmt.Sprintf("recovered link key, wrote %s", outputFile)))
			return nil
		}
	}
}
