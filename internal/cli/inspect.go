package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/ps2emu/internal/clock"
	"github.com/SmitUplenchwar2687/ps2emu/internal/ps2log"
	"github.com/SmitUplenchwar2687/ps2emu/internal/storage"
)

// SectionReport summarizes one section of a recording.
type SectionReport struct {
	Name     string        `json:"name"`
	Events   int           `json:"events"`
	Received int           `json:"received"`
	Sent     int           `json:"sent"`
	Notes    int           `json:"notes"`
	Duration time.Duration `json:"duration"`
}

// LogReport summarizes a recording.
type LogReport struct {
	Source   string          `json:"source"`
	Version  int             `json:"version"`
	Device   string          `json:"device"`
	Sections []SectionReport `json:"sections"`
}

func inspectLog(source string, log *ps2log.ParsedLog) LogReport {
	report := LogReport{
		Source:  source,
		Version: log.Version,
		Device:  log.Port.String(),
	}
	if log.Version >= 1 {
		report.Sections = append(report.Sections, inspectSection(ps2log.SectionInit, log.Init))
	}
	report.Sections = append(report.Sections, inspectSection(ps2log.SectionMain, log.Main))
	return report
}

func inspectSection(section ps2log.Section, lines []ps2log.Line) SectionReport {
	r := SectionReport{Name: section.String()}
	var last int64
	for _, l := range lines {
		switch v := l.(type) {
		case ps2log.Note:
			r.Notes++
		case *ps2log.Event:
			r.Events++
			if v.Direction() == ps2log.DirectionReceive {
				r.Received++
			} else {
				r.Sent++
			}
			if v.Time > last {
				last = v.Time
			}
		}
	}
	r.Duration = clock.FromMicros(last)
	return r
}

func newInspectCmd(global *globalOptions) *cobra.Command {
	var (
		fromStore  bool
		outputJSON bool
		storeOpts  storageOptions
	)

	cmd := &cobra.Command{
		Use:   "inspect <file|store-key>",
		Short: "Summarize a recording",
		Long: `Parses a recording and prints, per section, how many bytes each side
sent and how long the section lasts.`,
		Example: `  ps2emu inspect touchpad.log
  ps2emu inspect --from-store x1-carbon --json`,
		Args: requireOneArg("log"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := global.load(cmd)
			if err != nil {
				return err
			}

			store, err := storeOpts.resolve(cmd, cfg.Store)
			if err != nil {
				return err
			}
			log, err := loadLog(cmd.Context(), args[0], fromStore, store)
			if err != nil {
				return err
			}
			report := inspectLog(args[0], log)

			out := cmd.OutOrStdout()
			if outputJSON {
				return writeJSON(out, report)
			}

			fmt.Fprintf(out, "%s: %s, format V%d\n\n", report.Source, report.Device, report.Version)
			t := newTable("section", "events", "from device", "from host", "notes", "duration")
			for _, s := range report.Sections {
				t.addRow(s.Name, s.Events, s.Received, s.Sent, s.Notes, s.Duration)
			}
			return t.render(out)
		},
	}

	cmd.Flags().BoolVar(&fromStore, "from-store", false, "treat the argument as a log store key")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the summary as JSON")
	storeOpts.addFlags(cmd)
	return cmd
}

func newListCmd(global *globalOptions) *cobra.Command {
	var storeOpts storageOptions

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List recordings in the log store",
		Example: `  ps2emu list
  PS2EMU_STORE_BACKEND=redis ps2emu list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := global.load(cmd)
			if err != nil {
				return err
			}

			storeCfg, err := storeOpts.resolveDurable(cmd, cfg.Store)
			if err != nil {
				return err
			}
			store, err := storage.New(storeCfg)
			if err != nil {
				return fmt.Errorf("opening log store: %w", err)
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			keys, err := store.List(ctx)
			if err != nil {
				return fmt.Errorf("listing recordings: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				printWarn(out, "No recordings in the %s store.", storeCfg.Backend)
				return nil
			}
			for _, k := range keys {
				fmt.Fprintln(out, k)
			}
			return nil
		},
	}

	storeOpts.addFlags(cmd)
	return cmd
}
