package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/oakfieldlabs/rf4cetools/internal/udpbridge"
	"github.com/oakfieldlabs/rf4cetools/pkg/rf4ce"
)

func injectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inject <config_file>",
		Short: "Interactively inject RF4CE packets against a paired link",
		Long: `inject loads a LinkConfig recovered by pair (or hand-assembled) and
opens a REPL for building and transmitting RF4CE data frames against it.
Commands: packet <hex>, profile <id>, counter <value>, delay <ms>,
ciphered <true|false>, help, exit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd.Context(), args[0])
		},
	}
}

func runInject(ctx context.Context, configPath string) error {
	cfg, err := rf4ce.LoadLinkConfig(configPath)
	if err != nil {
		return fmt.Errorf("load link config: %w", err)
	}

	bridge, err := udpbridge.Dial(udpLocal, udpPeer, channel, logger)
	if err != nil {
		return fmt.Errorf("dial radio bridge: %w", err)
	}
	defer bridge.Close()

	ack := rf4ce.NewAckTracker()
	go func() {
		for {
			raw, err := bridge.Next(ctx)
			if err != nil {
				return
			}
			ack.Observe(raw)
		}
	}()

	controller := rf4ce.NewInjectionController(bridge, ack, cfg, configPath, sdr == "pluto-sdr")

	printInjectBanner()
	for {
		line, err := promptLine("inject")
		if err != nil {
			if err == promptui.ErrInterrupt || err == promptui.ErrAbort {
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := rf4ce.ParseCommand(line)
		if err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
			continue
		}

		if done := dispatchInjectCommand(ctx, controller, cmd); done {
			return nil
		}
	}
}

func dispatchInjectCommand(ctx context.Context, c *rf4ce.InjectionController, cmd rf4ce.Command) (exit bool) {
	switch cmd.Verb {
	case rf4ce.VerbExit:
		return true

	case rf4ce.VerbHelp:
		printInjectBanner()

	case rf4ce.VerbPacket:
		if len(cmd.Args) != 1 {
			fmt.Println(styleWarn.Render("usage: packet <hex payload>"))
			return false
		}
		payload, err := hex.DecodeString(cmd.Args[0])
		if err != nil {
			fmt.Println(styleWarn.Render("invalid hex payload: " + err.Error()))
			return false
		}
		if err := c.SendPacket(ctx, payload); err != nil {
			fmt.Println(styleError.Render(fmt.Sprintf("send failed: %v", err)))
			return false
		}
		fmt.Println(styleOK.Render("sent"))

	case rf4ce.VerbProfile:
		if len(cmd.Args) != 1 {
			fmt.Println(styleWarn.Render("usage: profile <id>"))
			return false
		}
		v, err := rf4ce.ToInt(cmd.Args[0])
		if err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
			return false
		}
		c.SetProfileID(uint8(v))

	case rf4ce.VerbCounter:
		if len(cmd.Args) != 1 {
			fmt.Println(styleWarn.Render("usage: counter <value>"))
			return false
		}
		v, err := rf4ce.ToInt(cmd.Args[0])
		if err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
			return false
		}
		c.SetFrameCounter(uint32(v))

	case rf4ce.VerbDelay:
		if len(cmd.Args) != 1 {
			fmt.Println(styleWarn.Render("usage: delay <milliseconds>"))
			return false
		}
		v, err := rf4ce.ToInt(cmd.Args[0])
		if err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
			return false
		}
		c.SetDelay(time.Duration(v) * time.Millisecond)

	case rf4ce.VerbCiphered:
		if len(cmd.Args) != 1 {
			fmt.Println(styleWarn.Render("usage: ciphered <true|false>"))
			return false
		}
		v, err := rf4ce.ToBool(cmd.Args[0])
		if err != nil {
			fmt.Println(styleWarn.Render(err.Error()))
			return false
		}
		c.SetCiphered(v)
	}
	return false
}

// promptLine reads one line via promptui, the same single-line input
// primitive dittofs's internal/cli/prompt wraps for its own REPLs.
func promptLine(label string) (string, error) {
	p := promptui.Prompt{Label: label}
	return p.Run()
}

func printInjectBanner() {
	fmt.Println(styleFaint.Render("commands: packet <hex>  profile <id>  counter <value>  delay <ms>  ciphered <true|false>  help  exit"))
}
