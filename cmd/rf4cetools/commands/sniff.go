package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/oakfieldlabs/rf4cetools/internal/udpbridge"
	"github.com/oakfieldlabs/rf4cetools/pkg/rf4ce"
)

// pumpQueueCapacity bounds the sniffer's inbound frame queue; a full
// queue means the observer can't keep up and frames are dropped rather
// than applying backpressure to the radio bridge.
const pumpQueueCapacity = 64

func sniffCmd() *cobra.Command {
	var linkPaths []string

	cmd := &cobra.Command{
		Use:   "sniff",
		Short: "Passively decode RF4CE traffic against known link configs",
		Long: `sniff matches inbound 802.15.4 frames against zero or more known
link configs (--link, repeatable) and prints the decoded RF4CE frame for
every one it sees. Frames matching a known pairing decode with that
pairing's key; unmatched frames still decode unauthenticated, so their
ciphered payloads, if any, fail to decrypt (printed, not fatal).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSniff(cmd.Context(), linkPaths)
		},
	}
	cmd.Flags().StringArrayVar(&linkPaths, "link", nil, "path to a known LinkConfig JSON file (repeatable)")
	return cmd
}

func runSniff(parent context.Context, linkPaths []string) error {
	configs := make([]*rf4ce.LinkConfig, 0, len(linkPaths))
	for _, p := range linkPaths {
		cfg, err := rf4ce.LoadLinkConfig(p)
		if err != nil {
			return fmt.Errorf("load link config %s: %w", p, err)
		}
		configs = append(configs, cfg)
		logger.Info("loaded link config", "path", p, "dest_panid", cfg.DestPANID)
	}
	observer := rf4ce.NewSnifferObserver(configs)

	bridge, err := udpbridge.Dial(udpLocal, udpPeer, channel, logger)
	if err != nil {
		return fmt.Errorf("dial radio bridge: %w", err)
	}
	defer bridge.Close()

	pump := rf4ce.NewPacketPump(pumpQueueCapacity, func(raw []byte) {
		frame, err := observer.Process(raw)
		if err != nil {
			logger.Warn("frame decode failed", "error", err)
			return
		}
		if frame == nil {
			return
		}
		fmt.Println(styleMatched.Render(fmt.Sprintf(
			"type=%d ciphered=%v counter=%d profile=0x%02x payload=%d bytes",
			frame.Type, frame.Ciphered, frame.FrameCounter, frame.ProfileID, len(frame.Payload),
		)))
	})
	pump.Start()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			raw, err := bridge.Next(gCtx)
			if err != nil {
				if gCtx.Err() != nil {
					return nil
				}
				return fmt.Errorf("read frame: %w", err)
			}
			if !pump.Feed(raw) {
				logger.Warn("pump queue full, dropping frame")
			}
		}
	})
	g.Go(func() error {
		<-gCtx.Done()
		return nil
	})

	err = g.Wait()
	pump.Stop()
	pump.Join()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
