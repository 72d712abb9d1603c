package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/jask/mccheck/internal/config"
	"github.com/jask/mccheck/internal/database"
	"github.com/jask/mccheck/internal/listview"
	"github.com/jask/mccheck/internal/secrets"
	"github.com/jask/mccheck/internal/service"
	"github.com/jask/mccheck/internal/testdata"
	"github.com/jask/mccheck/internal/verification"
)

func newListCmd(f *rootFlags) *cobra.Command {
	var (
		search string
		sortBy string
		asc    bool
		output string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print verifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := parseSort(sortBy, asc)
			if err != nil {
				return err
			}
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid --output: %s (use json|text)", output)
			}
			rt, err := cliRuntime(f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := loadOnce(cmd.Context(), rt.service())
			if err != nil {
				return err
			}
			rows := listview.Apply(snap.Records, search, s)
			if output == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			loc, _ := rt.cfg.UI.Location()
			writeTable(cmd.OutOrStdout(), rows, rt.cfg.UI, loc)
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Case-insensitive search over MC#, carrier, user, amount and notes")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column: "+columnKeys())
	cmd.Flags().BoolVar(&asc, "asc", false, "Ascending order (default is descending for created_at, ascending otherwise)")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: json|text")
	return cmd
}

// parseSort maps the --sort/--asc flags to a listview.Sort. An empty column
// keeps the newest-first default unless --asc is set.
func parseSort(key string, asc bool) (listview.Sort, error) {
	if strings.TrimSpace(key) == "" {
		s := listview.DefaultSort()
		s.Desc = !asc
		return s, nil
	}
	col, ok := listview.ParseColumn(key)
	if !ok {
		return listview.Sort{}, fmt.Errorf("unknown sort column %q (want %s)", key, columnKeys())
	}
	return listview.Sort{Column: col, Desc: !asc && col == listview.ColCreatedAt}, nil
}

func columnKeys() string {
	var keys []string
	for _, c := range listview.Columns() {
		keys = append(keys, c.Key())
	}
	return strings.Join(keys, "|")
}

// jsonRow prints amount as a JSON number rather than decimal's quoted string.
type jsonRow struct {
	verification.Record
	Amount json.Number `json:"amount"`
}

func writeJSON(w io.Writer, rows []verification.Record) error {
	out := make([]jsonRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, jsonRow{Record: r, Amount: json.Number(r.Amount.String())})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeTable(w io.Writer, rows []verification.Record, ui config.UIConfig, loc *time.Location) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No verifications.")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MC#", "Carrier", "Amount", "Approved", "User", "Notes", "Date entered", "Created")
	for _, r := range rows {
		approved := "no"
		if r.Approved {
			approved = "yes"
		}
		t.Row(
			r.MCNumber,
			r.Carrier,
			r.AmountText(),
			approved,
			r.EnteredBy,
			r.NotesText(),
			verification.FormatDate(r.DateEntered, ui.DateFormat, loc),
			verification.FormatTimestamp(r.CreatedAt, ui.DateTimeFormat, loc),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func newAddCmd(f *rootFlags) *cobra.Command {
	var form verification.Form
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a verification",
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.DateEntered == "" {
				form.DateEntered = verification.Today(time.Now())
			}
			res := form.Validate()
			if !res.OK() {
				return res.Err()
			}
			rt, err := cliRuntime(f, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.service().Add(cmd.Context(), res.Record); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), verification.MsgAdded)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.MCNumber, "mc", "", "MC number (required)")
	cmd.Flags().StringVar(&form.Carrier, "carrier", "", "Carrier name (required)")
	cmd.Flags().StringVar(&form.Amount, "amount", "", "Amount, non-negative")
	cmd.Flags().StringVar(&form.EnteredBy, "user", "", "Entered by (required)")
	cmd.Flags().BoolVar(&form.Approved, "approved", false, "Mark as approved")
	cmd.Flags().StringVar(&form.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&form.DateEntered, "date", "", "Date entered, YYYY-MM-DD (default today)")
	return cmd
}

var errNeedsSQLite = errors.New("needs the sqlite backend (--backend sqlite)")

func newSeedCmd(f *rootFlags) *cobra.Command {
	var (
		random int
		seed   int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Add sample verifications",
		Long: "Without --random, fills an empty local database with a fixed sample set.\n" +
			"With --random N, inserts N generated verifications through the configured store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if random > 0 {
				rt, err := cliRuntime(f, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer rt.Close()
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				n, err := testdata.Seed(cmd.Context(), rt.client, random, seed, time.Now())
				fmt.Fprintf(cmd.OutOrStdout(), "inserted %d verifications\n", n)
				return err
			}

			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendSQLite {
				return fmt.Errorf("seed: %w", errNeedsSQLite)
			}
			db, err := database.OpenMigrated(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := database.SeedSamples(cmd.Context(), db, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d verifications into %s\n", n, cfg.Database.Path)
			return nil
		},
	}
	cmd.Flags().IntVar(&random, "random", 0, "Insert N generated verifications (any backend)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed for --random (default: time based)")
	return cmd
}

func newResetCmd(f *rootFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every verification in the local database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes all local verifications; pass --yes to confirm")
			}
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}
			if cfg.Store.Backend != config.BackendSQLite {
				return fmt.Errorf("reset: %w", errNeedsSQLite)
			}
			db, err := database.OpenMigrated(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := (&service.MaintenanceService{DB: db}).Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d verifications\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}

func newConfigCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "write",
		Short: "Write the current configuration to the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRawConfig(f)
			if err != nil {
				return err
			}
			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", config.Path())
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set-key <anon-key>",
		Short: "Save the REST anon key for the configured store URL outside config.toml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRawConfig(f)
			if err != nil {
				return err
			}
			if err := secrets.StoreAnonKey(cfg.Store.URL, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved anon key for", cfg.Store.URL)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "forget-key",
		Short: "Remove the saved anon key for the configured store URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRawConfig(f)
			if err != nil {
				return err
			}
			return secrets.DeleteAnonKey(cfg.Store.URL)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Run: func(cmd *cobra.Command, args []string) {
			if f.config != "" {
				fmt.Fprintln(cmd.OutOrStdout(), f.config)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), config.Path())
		},
	})
	return cmd
}
