// Package commands implements the rf4cetools CLI command tree.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	channel    int
	sdr        string
	udpLocal   string
	udpPeer    string
	verbose    bool
	logFormat  string
	configPath string

	logger *slog.Logger
)

var validChannels = map[int]bool{15: true, 20: true, 25: true}
var validSDRs = map[string]bool{"hackrf": true, "pluto-sdr": true}

var rootCmd = &cobra.Command{
	Use:   "rf4cetools",
	Short: "RF4CE link-layer research toolkit: sniff, pair, inject",
	Long: `rf4cetools bundles passive sniffing, pairing-time key recovery, and
authenticated packet injection against the RF4CE link layer (802.15.4
2.4 GHz). It expects an external SDR flowgraph process to provide raw,
already-demodulated 802.15.4 frames over a UDP bridge.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := applyFileConfig(cmd); err != nil {
			return err
		}
		if !validChannels[channel] {
			return fmt.Errorf("--channel must be one of 15, 20, 25 (got %d)", channel)
		}
		if !validSDRs[sdr] {
			return fmt.Errorf("--sdr must be one of hackrf, pluto-sdr (got %q)", sdr)
		}
		logger = newLogger()
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().IntVar(&channel, "channel", 15, "802.15.4 channel (15, 20, or 25)")
	rootCmd.PersistentFlags().StringVar(&sdr, "sdr", "pluto-sdr", "SDR backend driving the external flowgraph (hackrf, pluto-sdr)")
	rootCmd.PersistentFlags().StringVar(&udpLocal, "udp-local", "127.0.0.1:9100", "local UDP address for the radio bridge")
	rootCmd.PersistentFlags().StringVar(&udpPeer, "udp-peer", "127.0.0.1:9200", "peer UDP address of the external flowgraph process")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file of defaults for --channel/--sdr/--udp-local/--udp-peer (flags override it)")

	rootCmd.AddCommand(sniffCmd())
	rootCmd.AddCommand(pairCmd())
	rootCmd.AddCommand(injectCmd())
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("Error:"), err)
		return err
	}
	return nil
}

// applyFileConfig loads --config, if given, and fills in any of the
// channel/sdr/bridge-address flags the caller didn't set explicitly.
// An explicit flag always wins over the file.
func applyFileConfig(cmd *cobra.Command) error {
	if configPath == "" {
		return nil
	}
	fc, err := loadFileConfig(configPath)
	if err != nil {
		return fmt.Errorf("load --config: %w", err)
	}

	flags := cmd.Flags()
	if fc.Channel != nil && !flags.Changed("channel") {
		channel = *fc.Channel
	}
	if fc.SDR != "" && !flags.Changed("sdr") {
		sdr = fc.SDR
	}
	if fc.UDPLocal != "" && !flags.Changed("udp-local") {
		udpLocal = fc.UDPLocal
	}
	if fc.UDPPeer != "" && !flags.Changed("udp-peer") {
		udpPeer = fc.UDPPeer
	}
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
