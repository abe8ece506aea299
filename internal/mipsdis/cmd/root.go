package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	pathpkg "path/filepath"
	"runtime/pprof"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"mipsdis/internal/mipsdis/config"
	"mipsdis/internal/mipsdis/log"
	"mipsdis/internal/mipsdis/styles"
	"mipsdis/internal/ui/colorize"
)

// cfg starts from the environment; flags bound to it override.
var cfg = config.FromEnv()

func init() {
	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "d", cfg.Debug, "Debug")
	rootCmd.PersistentFlags().String("log-file", "", "Write logs to a file instead of stderr")
	cfg.BindDecoderFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("no-tui", "n", false, "Print the listing without TUI")
	rootCmd.Flags().BoolP("json", "j", false, "Output results as JSON for regression testing")
	rootCmd.Flags().StringSliceP("symbol", "s", nil, "Disassemble only the named symbols")
	rootCmd.Flags().String("start", "", "Disassemble from this hex address")
	rootCmd.Flags().Int("count", 0, "Number of instructions to decode with --start")
	rootCmd.Flags().IntVar(&cfg.MaxInsns, "max-insns", cfg.MaxInsns, "Instruction limit for unsized symbols")
	rootCmd.Flags().StringVar(&cfg.Theme, "theme", cfg.Theme, "Header theme: vscode or charm")
	rootCmd.Flags().BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable syntax highlighting")
	rootCmd.Flags().StringVar(&cfg.ProfilePath, "cpuprofile", cfg.ProfilePath, "Write CPU profile to file")
	rootCmd.Flags().String("memprofile", "", "Write memory profile to file")
}

var rootCmd = &cobra.Command{
	Use:   "mipsdis [file]",
	Short: "Terminal MIPS disassembler",
	Long: `mipsdis disassembles MIPS32, MIPS64 and microMIPS ELF binaries.
It provides an interactive TUI for browsing functions and an annotated
plain text or JSON listing for scripts.`,
	Example: `
# Browse a binary interactively
mipsdis ./busybox

# Print one function
mipsdis -n -s main ./busybox

# Force a little-endian MIPS64 decoder with MSA
mipsdis -n --arch mips64 --endian little --features msa ./a.out
  `,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logFile, _ := cmd.Flags().GetString("log-file")
		log.Setup(logFile, cfg.Debug)
		return cfg.Validate()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.ProfilePath != "" {
			f, err := os.Create(cfg.ProfilePath)
			if err != nil {
				return fmt.Errorf("could not create CPU profile: %v", err)
			}
			defer f.Close()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("could not start CPU profile: %v", err)
			}
			defer pprof.StopCPUProfile()
		}

		if memprofile, _ := cmd.Flags().GetString("memprofile"); memprofile != "" {
			defer func() {
				f, err := os.Create(memprofile)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
					return
				}
				defer f.Close()
				if err := pprof.WriteHeapProfile(f); err != nil {
					fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
				}
			}()
		}

		absPath, err := pathpkg.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve path: %v", err)
		}
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
			return fmt.Errorf("cannot access file: %v", err)
		}

		noTUI, _ := cmd.Flags().GetBool("no-tui")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if !isTerminal(cmd.OutOrStdout()) {
			noTUI = true
		}
		if noTUI || cfg.NoColor {
			os.Setenv(colorize.NoColorEnv, "1")
		}

		sess, err := openSession(absPath, cfg)
		if err != nil {
			return err
		}
		defer sess.Close()

		names, _ := cmd.Flags().GetStringSlice("symbol")
		start, _ := cmd.Flags().GetString("start")
		count, _ := cmd.Flags().GetInt("count")
		targets, err := sess.targets(names, start, count)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		switch {
		case jsonOutput:
			return runJSON(ctx, cmd.OutOrStdout(), sess, targets)
		case noTUI:
			return runNoTUI(ctx, cmd.OutOrStdout(), sess, targets)
		}

		program := tea.NewProgram(
			newModel(ctx, sess, targets, styles.PaletteFor(cfg.Theme)),
			tea.WithAltScreen(),
			tea.WithContext(ctx),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

func Execute() {
	// fang renders help and errors with its own styling, which garbles piped
	// or plain output.
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--no-tui" || arg == "-n" || arg == "--json" || arg == "-j" {
			plain = true
			break
		}
	}

	var err error
	if plain {
		err = rootCmd.Execute()
	} else {
		err = fang.Execute(
			context.Background(),
			rootCmd,
			fang.WithNotifySignal(os.Interrupt),
		)
	}
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}
