package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vmemo/audio"
	"vmemo/config"
	"vmemo/doctor"
	"vmemo/hotkey"
	"vmemo/settings"
)

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "vmemo",
		Short: "Record voice memos into a notes vault",
		Long: "vmemo records microphone audio to Opus-in-WebM files inside a notes vault, " +
			"named from a date template, and can copy a link to the memo or open it when done.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(f, modeMain)
		},
	}
	rootCmd.Version = version
	rootCmd.SetVersionTemplate("vmemo {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.vault, "vault", "", "vault directory (default from config, then ~/Documents/vault)")
	pf.StringVar(&f.device, "device", "", "capture device name (default: system default)")
	pf.StringVar(&f.config, "config", "", "config file (default: "+config.DefaultPath()+")")
	pf.StringVar(&f.logPath, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&f.fakeAudio, "fake-audio", "", "replay a 48 kHz mono WAV instead of the microphone")
	pf.MarkHidden("fake-audio")

	rootCmd.Flags().StringVar(&f.hotkey, "hotkey", "", "global shortcut mode: toggle, hybrid or off")
	rootCmd.Flags().DurationVar(&f.longPress, "longpress", 350*time.Millisecond, "hold threshold for hybrid mode")

	rootCmd.AddCommand(newRecordCmd(f))
	rootCmd.AddCommand(newSettingsCmd(f))
	rootCmd.AddCommand(newDevicesCmd(f))
	rootCmd.AddCommand(newDoctorCmd(f))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newRecordCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "record",
		Short: "Start voice memo recording",
		Long:  "Starts recording immediately. Stop with s, space or enter, or with Enter when not attached to a terminal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.hotkey = string(hotkey.ModeOff)
			return runSession(f, modeRecord)
		},
	}
}

func newSettingsCmd(f *rootFlags) *cobra.Command {
	var printJSON bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Edit where memos are saved and what happens afterwards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !printJSON {
				return runSession(f, modeSettings)
			}
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			store, err := settings.Load(cfg.ResolvedSettingsPath())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(store.Get(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s\n", store.Path(), data)
			return nil
		},
	}
	cmd.Flags().BoolVar(&printJSON, "print", false, "print the current settings as JSON and exit")
	return cmd
}

func newDevicesCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, err := f.audioContext()
			if err != nil {
				return err
			}
			if ctx == nil {
				if ctx, err = audio.NewContext(); err != nil {
					return fmt.Errorf("audio backend: %w", err)
				}
			}
			defer ctx.Close()

			devices, err := ctx.Devices()
			if err != nil {
				return err
			}
			if len(devices) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no capture devices found")
				return nil
			}
			for _, d := range devices {
				fmt.Fprintln(cmd.OutOrStdout(), d.Name)
			}
			return nil
		},
	}
}

func newDoctorCmd(f *rootFlags) *cobra.Command {
	var withHotkey bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run system diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			ctx, err := f.audioContext()
			if err != nil {
				return err
			}
			if ctx == nil {
				ctx = audio.NewLazyContext(audio.NewContext)
			}
			defer ctx.Close()

			o := doctor.Options{
				Audio:    ctx,
				Device:   cfg.Device,
				VaultDir: cfg.VaultDir,
			}
			if withHotkey {
				o.Hotkey = hotkey.New()
			}
			if code := doctor.Run(o); code != 0 {
				return exitCode(code)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&withHotkey, "hotkey", false, "also wait for the global shortcut ("+hotkey.Label+")")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vmemo %s\n", version)
		},
	}
}
