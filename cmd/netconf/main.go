package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"netconf-go/internal/app"
	"netconf-go/internal/config"
	"netconf-go/internal/netconf"
)

// passphraseEnv lets scheduled runs unlock the key without a terminal.
const passphraseEnv = "NETCONF_PASSPHRASE"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, map[string]string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults, nil
}

// newApp reads the config and creates a NetconfApp. The caller must defer app.Close().
func newApp() (*app.NetconfApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewNetconfApp(cfg, app.Options{Passphrase: readPassphrase})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase takes the passphrase from the environment, else prompts.
func readPassphrase() (string, error) {
	if p := os.Getenv(passphraseEnv); p != "" {
		return p, nil
	}
	return promptPassphrase("Passphrase: ")
}

func promptPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("stdin is not a terminal; set %s", passphraseEnv)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// printDiagnostic writes the diagnostic code of err, if any, to stderr.
func printDiagnostic(err error) {
	if code := netconf.DiagnosticCode(err); code != "" {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", code)
	}
}

var rootCmd = &cobra.Command{
	Use:   "netconf",
	Short: "Compile the network registry into RADIUS configuration",
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Compile, detect changes and reconcile live state",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _ := cmd.Flags().GetBool("client")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.All(client)
		if err != nil {
			printDiagnostic(err)
			return fmt.Errorf("compile failed: %w", err)
		}

		switch {
		case !res.Change.Changed:
			fmt.Println("No changes.")
		case res.Reconcile != nil:
			fmt.Printf("Configuration updated: %d user(s) added, %d removed\n",
				len(res.Reconcile.Created), len(res.Reconcile.Removed))
		default:
			fmt.Println("Configuration updated.")
		}
		if res.SignalErr != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", res.SignalErr)
		}
		return nil
	},
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Validate and compile artifacts only",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Configure()
		if err != nil {
			printDiagnostic(err)
			return fmt.Errorf("configure failed: %w", err)
		}
		fmt.Printf("Wrote %d artifact(s) from %d file(s)\n", len(res.Artifacts), len(res.Files))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View compile run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt.Valid {
				duration = r.FinishedAt.Time.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			digest := r.Digest
			if len(digest) > 12 {
				digest = digest[:12]
			}
			changed := ""
			if r.Changed {
				changed = "changed"
			}
			fmt.Printf("#%d  %-9s  %-6s  %s  %-7s  %-12s  %-7s  %s  %s\n",
				r.ID,
				r.Operation,
				r.Mode,
				r.StartedAt.Format("2006-01-02 15:04:05"),
				r.Status,
				digest,
				changed,
				duration,
				r.Message,
			)
		}
		return nil
	},
}

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

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Config Dir: %s\n", cfg.ConfigDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, defaults, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Config Dir:  %s\n", cfg.ConfigDir)
		fmt.Printf("Output Dir:  %s\n", cfg.OutputDir)
		fmt.Printf("Live Dir:    %s\n", cfg.LiveDir)
		fmt.Printf("Scratch Dir: %s\n", cfg.ScratchDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Legacy:      %s\n", cfg.Legacy.Binary)
		for _, d := range cfg.Daemons {
			fmt.Printf("Daemon:      %s (%s)\n", d.Name, d.Signal)
		}
		for _, m := range cfg.Mirrors {
			fmt.Printf("Mirror:      %s (%s)\n", m.Name, m.Type)
		}
		return nil
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the key pair protecting secrets",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a passphrase-protected key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		pass, err := promptPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}

		if err := app.InitKeys(cfg, pass); err != nil {
			return err
		}
		fmt.Printf("Public key written to %s\n", cfg.Encryption.PublicKeyPath)
		return nil
	},
}

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage sealed files in the config tree",
}

var secretsEncryptCmd = &cobra.Command{
	Use:   "encrypt FILE",
	Short: "Seal a file for the configured public key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		sealed, err := app.EncryptSecret(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Sealed %s -> %s\n", args[0], sealed)
		fmt.Printf("Remove %s once the sealed copy is committed.\n", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	keysCmd.AddCommand(keysInitCmd)
	secretsCmd.AddCommand(secretsEncryptCmd)

	rootCmd.AddCommand(allCmd)
	allCmd.Flags().Bool("client", false, "Compile only; never touch live state or daemons")
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(secretsCmd)
}
