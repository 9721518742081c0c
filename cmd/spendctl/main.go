// Command spendctl runs maintenance jobs against the Spendwise database.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"spendwise/internal/categorize"
	"spendwise/internal/config"
	"spendwise/internal/database"
	"spendwise/internal/logger"
	"spendwise/internal/scope"
	"spendwise/internal/services"
)

var (
	accountID  uint
	profileID  uint
	sharedOnly bool
	reclassify bool
	dryRun     bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "spendctl",
	Short:         "Maintenance commands for Spendwise",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var applyRulesCmd = &cobra.Command{
	Use:   "apply-rules",
	Short: "Run the categorization rules over stored transactions",
	Long: `Classify transactions with the active rules in priority order.
By default only uncategorized transactions are touched; --reclassify also
revisits categorized ones. --dry-run reports the changes without writing.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := open()
		if err != nil {
			return err
		}

		req := services.ApplyRequest{Scope: selection()}
		if cmd.Flags().Changed("reclassify") {
			req.Reclassify = &reclassify
		}

		ruleService := services.NewRuleService(db, cfg.ReapplyCategorized)
		var summary *categorize.Summary
		if dryRun {
			summary, err = ruleService.PreviewRules(req)
		} else {
			summary, err = ruleService.ApplyRules(req)
		}
		if err != nil {
			return err
		}
		printSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

var seedCategoriesCmd = &cobra.Command{
	Use:   "seed-categories",
	Short: "Create the default category tree when no categories exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := open()
		if err != nil {
			return err
		}
		created, err := services.NewCategoryService(db).InitDefaults()
		if err != nil {
			return err
		}
		if created == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "categories already exist, nothing seeded")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %d categories\n", created)
		return nil
	},
}

var listCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Print the category tree with transaction counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := open()
		if err != nil {
			return err
		}
		flat, err := services.NewCategoryService(db).ListFlat()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, c := range flat {
			fmt.Fprintf(out, "%5d  %s%s (%d)\n", c.ID, strings.Repeat("  ", c.Depth), c.Name, c.TransactionCount)
		}
		return nil
	},
}

func init() {
	flags := applyRulesCmd.Flags()
	flags.UintVar(&accountID, "account", 0, "Only transactions of this account")
	flags.UintVar(&profileID, "profile", 0, "Only transactions of accounts owned by this profile")
	flags.BoolVar(&sharedOnly, "shared", false, "Only shared transactions")
	flags.BoolVar(&reclassify, "reclassify", false, "Also revisit transactions that already have a category")
	flags.BoolVarP(&dryRun, "dry-run", "n", false, "Report changes without writing them")
	flags.BoolVarP(&verbose, "verbose", "v", false, "List every assignment")

	rootCmd.AddCommand(applyRulesCmd, seedCategoriesCmd, listCategoriesCmd)
}

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func open() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	dbConfig, err := database.NewConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	manager, err := database.NewManager(dbConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := manager.Migrate(); err != nil {
		return nil, nil, err
	}
	return cfg, manager.DB(), nil
}

func selection() scope.Selection {
	var sel scope.Selection
	if accountID != 0 {
		sel.AccountID = &accountID
	}
	if profileID != 0 {
		sel.ProfileID = &profileID
	}
	sel.Shared = sharedOnly
	return sel
}

func printSummary(w io.Writer, s *categorize.Summary) {
	fmt.Fprintf(w, "matched %d, unmatched %d, skipped %d, changed %d\n", s.Matched, s.Unmatched, s.Skipped, s.Changed)
	if !verbose {
		return
	}
	for _, a := range s.Assignments {
		prev := "-"
		if a.PreviousCategoryID != nil {
			prev = fmt.Sprint(*a.PreviousCategoryID)
		}
		fmt.Fprintf(w, "  tx %d: %s -> %d (rule %d, shared=%t)\n", a.TransactionID, prev, a.CategoryID, a.RuleID, a.Shared)
	}
}
