package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/txnclass/pkg/categorizer"
	"github.com/yurifrl/txnclass/pkg/config"
	"github.com/yurifrl/txnclass/pkg/csvout"
	"github.com/yurifrl/txnclass/pkg/models"
	"github.com/yurifrl/txnclass/pkg/parser"
	"github.com/yurifrl/txnclass/pkg/service"
	"github.com/yurifrl/txnclass/pkg/store"
)

var (
	cfgFile string
	dryRun  bool
	verbose bool
)

func newLogger() *log.Logger {
	opts := log.Options{
		ReportTimestamp: true,
		Prefix:          "txnclass",
	}
	if verbose {
		opts.ReportCaller = true
		opts.Level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, opts)
}

func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Build(cfgFile, cmd.Flags())
}

func openStore(cfg *config.Config, logger *log.Logger) (*store.Store, error) {
	return store.New(cfg.DatabaseURL, logger)
}

func buildProcessor(cfg *config.Config, st *store.Store, logger *log.Logger) (*service.Processor, error) {
	rules, err := categorizer.Load(cfg.CategoriesPath, logger)
	if err != nil {
		return nil, err
	}
	return service.NewProcessor(cfg, st, rules, logger), nil
}

var rootCmd = &cobra.Command{
	Use:   "txnclass",
	Short: "Import, deduplicate and categorize bank transactions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Parse the statements listed in a manifest and load new transactions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		manifest, err := models.LoadManifest(args[0])
		if err != nil {
			return err
		}

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		processor, err := buildProcessor(cfg, st, logger)
		if err != nil {
			return err
		}

		summary, err := processor.ImportManifest(cmd.Context(), manifest, dryRun)
		if err != nil {
			return err
		}

		fmt.Printf("accepted %d, skipped %d, filtered %d, new %d, already stored %d, inserted %d\n",
			summary.Accepted, summary.Skipped, summary.Filtered,
			summary.New, summary.Existing, summary.Inserted)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Train on categorized history and label the remaining transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		processor, err := buildProcessor(cfg, st, logger)
		if err != nil {
			return err
		}

		result, err := processor.Classify(cmd.Context(), dryRun)
		if err != nil {
			return err
		}

		fmt.Printf("trained on %d rows, holdout accuracy %.2f, predicted %d categories\n",
			result.TrainRows, result.Accuracy, len(result.Predictions))
		if dryRun {
			for _, pred := range result.Predictions {
				fmt.Printf("  %s -> %s\n", pred.ID, pred.Category)
			}
		}
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <source> <statement.csv>",
	Short: "Parse one statement and dump the normalized transactions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		account, _ := cmd.Flags().GetString("account")

		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		res, err := parser.New(logger).Parse(parser.Source(args[0]), account, f)
		if err != nil {
			return err
		}

		for _, tx := range res.Transactions {
			pp.Println(tx)
		}
		logger.Info("preview complete",
			"parsed", len(res.Transactions),
			"skipped", res.Skipped,
			"filtered", res.Filtered)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <output.csv>",
	Short: "Dump the stored transactions to CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		account, _ := cmd.Flags().GetString("account")

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		txs, err := st.All(cmd.Context())
		if err != nil {
			return err
		}

		var filter csvout.FilterFunc
		if account != "" {
			filter = func(tx models.Transaction) bool { return tx.Account == account }
		}

		out, err := csvout.Create(txs, filter)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[0], out, 0o644); err != nil {
			return err
		}

		logger.Info("export written", "path", args[0], "rows", len(txs))
		return nil
	},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the transactions table if it does not exist",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := newLogger()

		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.EnsureSchema(cmd.Context()); err != nil {
			return err
		}
		logger.Info("schema ready")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	classifyCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print predictions without writing them back")

	previewCmd.Flags().String("account", "", "Account label to stamp on parsed rows")
	exportCmd.Flags().String("account", "", "Only export rows for this account")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(initDBCmd)
}

func main() {
	gotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
