package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"countries-go/internal/app"
	"countries-go/internal/config"
	"countries-go/internal/directory"
	"countries-go/internal/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a CountriesApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "List", "Export").
func newApp(operation, parameters string) (*app.CountriesApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewCountriesApp(cfg, operation, parameters, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// viewFlags reads --search and --sort, falling back to the configured default sort.
func viewFlags(cmd *cobra.Command, a *app.CountriesApp) (string, directory.SortMode, error) {
	search, _ := cmd.Flags().GetString("search")

	if !cmd.Flags().Changed("sort") {
		mode, err := a.DefaultSort()
		if err != nil {
			return "", directory.SortNone, fmt.Errorf("config display.default_sort: %w", err)
		}
		return search, mode, nil
	}

	raw, _ := cmd.Flags().GetString("sort")
	mode, err := directory.ParseSortMode(raw)
	if err != nil {
		return "", directory.SortNone, err
	}
	return search, mode, nil
}

// terminalWidth returns the width of stdout, or render.DefaultWidth when
// stdout is not a terminal.
func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return render.DefaultWidth
	}
	return w
}

// readPassphrase prompts on stderr and reads without echo when stdin is a terminal.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var rootCmd = &cobra.Command{
	Use:          "countries",
	Short:        "Browse the REST Countries directory",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration initialized at %s\n", defaults["config_path"])
		fmt.Fprintf(out, "Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration from %s:\n\n", defaults["config_path"])
		fmt.Fprintf(out, "Base Dir:  %s\n", cfg.BaseDir)
		fmt.Fprintf(out, "Log Dir:   %s\n", cfg.LogDir)
		fmt.Fprintf(out, "Log Level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "Source:    %s\n", describeSource(cfg.Source))
		fmt.Fprintf(out, "Sort:      %s\n", cfg.Display.DefaultSort)
		for _, s := range cfg.Sinks {
			fmt.Fprintf(out, "Sink:      %s (%s)\n", s.Name, s.Type)
		}
		return nil
	},
}

func describeSource(s config.SourceConfig) string {
	switch s.Type {
	case "file":
		return "file " + s.Path
	case "memory":
		return "built-in sample"
	default:
		return strings.TrimSuffix(s.BaseURL, "/") + "/" + s.AllPath
	}
}

// list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Fetch the directory and print the visible list",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("List", strings.Join(os.Args[1:], " "))
		if err != nil {
			return err
		}
		defer a.Close()
		defer func() {
			if err != nil {
				a.Fail(err)
			}
		}()

		search, mode, err := viewFlags(cmd, a)
		if err != nil {
			return err
		}
		details, _ := cmd.Flags().GetBool("details")

		snap, err := a.Load(cmd.Context(), search, mode)
		if err != nil {
			return fmt.Errorf("loading directory: %w", err)
		}

		out := cmd.OutOrStdout()
		if details {
			for i, c := range snap.Visible {
				if i > 0 {
					fmt.Fprintln(out)
				}
				if err := render.Details(out, c); err != nil {
					return err
				}
			}
		} else if err := render.Table(out, snap.Visible, terminalWidth()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), render.Summary(snap, time.Now()))
		return nil
	},
}

// browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the directory interactively",
	Long: `Browse fetches the directory once and redraws the visible list whenever
the search text or sort mode changes. Commands:

  /TEXT or search TEXT   filter by name (empty clears)
  sort MODE              none, asc, desc or alpha
  details [N]            show every field of row N (default 1)
  refresh                fetch the directory again
  quit                   leave`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("Browse", "")
		if err != nil {
			return err
		}
		defer a.Close()
		defer func() {
			if err != nil {
				a.Fail(err)
			}
		}()

		search, mode, err := viewFlags(cmd, a)
		if err != nil {
			return err
		}

		vs := a.OpenView(cmd.Context(), search, mode)
		defer vs.Close()

		b := &browser{view: vs, in: cmd.InOrStdin(), out: cmd.OutOrStdout(), width: terminalWidth}
		return b.run(cmd.Context())
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Save the visible list to an export sink",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, err := newApp("Export", strings.Join(os.Args[1:], " "))
		if err != nil {
			return err
		}
		defer a.Close()
		defer func() {
			if err != nil {
				a.Fail(err)
			}
		}()

		search, mode, err := viewFlags(cmd, a)
		if err != nil {
			return err
		}
		sinkName, _ := cmd.Flags().GetString("sink")
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		snap, err := a.Load(cmd.Context(), search, mode)
		if err != nil {
			return fmt.Errorf("loading directory: %w", err)
		}

		rec, err := a.Export(cmd.Context(), snap, sinkName, encrypt)
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d countries as %s (%s)\n", rec.Count, rec.ID, rec.Key)
		return nil
	},
}

// exports command
var exportsCmd = &cobra.Command{
	Use:   "exports",
	Short: "Inspect saved exports",
}

var exportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListExports", "")
		if err != nil {
			return err
		}
		defer a.Close()

		sinkName, _ := cmd.Flags().GetString("sink")
		records, err := a.ListExports(cmd.Context(), sinkName)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(records) == 0 {
			fmt.Fprintln(out, "No exports.")
			return nil
		}
		for _, r := range records {
			lock := ""
			if r.Encrypted {
				lock = "  [encrypted]"
			}
			fmt.Fprintf(out, "%s%s\n", r.ID, lock)
		}
		return nil
	},
}

var exportsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print a saved export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ShowExport", args[0])
		if err != nil {
			return err
		}
		defer a.Close()

		sinkName, _ := cmd.Flags().GetString("sink")
		doc, err := a.ShowExport(cmd.Context(), sinkName, args[0], func() (string, error) {
			return readPassphrase("Passphrase: ")
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Export %s, %s\n", doc.ID, doc.ExportedAt.Local().Format("2006-01-02 15:04:05"))
		if doc.SearchText != "" {
			fmt.Fprintf(out, "Search: %q\n", doc.SearchText)
		}
		fmt.Fprintf(out, "Sort:   %s\n\n", doc.SortMode)
		return render.Table(out, doc.Countries, terminalWidth())
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage export encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the key pair used for encrypted exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("SetupKeys", "")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.KeysConfigured() {
			return fmt.Errorf("encryption keys already exist")
		}

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.SetupKeys(pass); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Encryption keys created.")
		return nil
	},
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("search", "s", "", "Only show countries whose name contains TEXT (case-insensitive)")
	cmd.Flags().StringP("sort", "o", "none", "Sort order: none, asc, desc or alpha")
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// exports subcommands
	exportsCmd.AddCommand(exportsListCmd)
	exportsCmd.AddCommand(exportsShowCmd)
	exportsCmd.PersistentFlags().String("sink", "", "Sink name (default: first configured sink)")

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(listCmd)
	addViewFlags(listCmd)
	listCmd.Flags().BoolP("details", "d", false, "Show every field of each country")
	rootCmd.AddCommand(browseCmd)
	addViewFlags(browseCmd)
	rootCmd.AddCommand(exportCmd)
	addViewFlags(exportCmd)
	exportCmd.Flags().String("sink", "", "Sink name (default: first configured sink)")
	exportCmd.Flags().Bool("encrypt", false, "Encrypt the export with the configured age key")
	rootCmd.AddCommand(exportsCmd)
	rootCmd.AddCommand(keysCmd)
}
