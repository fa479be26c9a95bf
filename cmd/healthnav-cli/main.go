package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/healthnavigator/internal/logging"
	"yashubustudio/healthnavigator/navigator"
)

type cliOptions struct {
	configPath  string
	datasetPath string
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "healthnav-cli: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	root := &cobra.Command{
		Use:   "healthnav-cli",
		Short: "Predict a disease and medication from symptoms",
		Long: `healthnav-cli trains the Health Navigator decision tree on the symptom
dataset and answers diagnosis, suggestion and history queries without the
desktop window.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to healthnav.yaml (default: ./healthnav.yaml)")
	root.PersistentFlags().StringVar(&opts.datasetPath, "dataset", "", "CSV dataset overriding dataset.path from the config")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log debug output to stderr")

	root.AddCommand(
		newDiagnoseCmd(opts),
		newSymptomsCmd(opts),
		newSuggestCmd(opts),
		newTreeCmd(opts),
		newHistoryCmd(opts),
	)
	return root
}

// open loads the configuration, applies flag overrides and trains the service.
func (o *cliOptions) open(cmd *cobra.Command) (*navigator.Service, *zap.Logger, error) {
	cfg, err := navigator.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.datasetPath != "" {
		cfg.Dataset.Path = o.datasetPath
	}
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(cfg.Log, logging.Options{Console: cmd.ErrOrStderr(), Level: level})
	if err != nil {
		return nil, nil, err
	}
	svc, err := navigator.Open(cmd.Context(), cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return svc, logger, nil
}

func newDiagnoseCmd(opts *cliOptions) *cobra.Command {
	var (
		symptomList string
		asJSON      bool
	)
	cmd := &cobra.Command{
		Use:   "diagnose [symptom...]",
		Short: "Predict a disease for the given symptoms",
		Example: `  healthnav-cli diagnose fever cough
  healthnav-cli diagnose --symptoms "runny nose, sneezing" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selected := append([]string{}, args...)
			for _, part := range strings.Split(symptomList, ",") {
				if s := strings.TrimSpace(part); s != "" {
					selected = append(selected, s)
				}
			}
			svc, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer svc.Close()

			d, err := svc.Diagnose(cmd.Context(), selected)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			_, err = fmt.Fprintf(out, "%s\n\nConfidence: %.0f%%\n", d.Text(), d.Confidence*100)
			return err
		},
	}
	cmd.Flags().StringVar(&symptomList, "symptoms", "", "Comma separated symptoms")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the diagnosis as JSON")
	return cmd
}

func newSymptomsCmd(opts *cliOptions) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "symptoms",
		Short: "List the symptoms the model knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer svc.Close()

			for _, s := range svc.FilterSymptoms(filter) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "Only list symptoms containing this text")
	return cmd
}

func newSuggestCmd(opts *cliOptions) *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "suggest TEXT",
		Short: "Map a free text description to known symptoms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer svc.Close()

			matches, err := svc.SuggestSymptoms(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(matches) == 0 {
				_, err := fmt.Fprintln(out, "no matching symptoms")
				return err
			}
			for _, m := range matches {
				if _, err := fmt.Fprintf(out, "%-28s %.2f  %s\n", m.Symptom, m.Score, m.Source); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "top", "k", 5, "Maximum number of suggestions")
	return cmd
}

func newTreeCmd(opts *cliOptions) *cobra.Command {
	var savePath string
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the trained decision tree rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer svc.Close()

			out := cmd.OutOrStdout()
			info := svc.ModelInfo()
			fmt.Fprintf(out, "rows=%d skipped=%d features=%d classes=%d depth=%d leaves=%d\n",
				info.Rows, info.Skipped, info.Features, info.Classes, info.Depth, info.Leaves)
			if err := svc.ExportTree(out); err != nil {
				return err
			}
			if savePath != "" {
				if err := svc.SaveModel(savePath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "model saved to %s\n", savePath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&savePath, "save", "", "Also write the tree as JSON to this file")
	return cmd
}

func newHistoryCmd(opts *cliOptions) *cobra.Command {
	var (
		limit    int
		clearAll bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear recorded diagnoses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			defer svc.Close()

			out := cmd.OutOrStdout()
			if clearAll {
				if err := svc.ClearHistory(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "history cleared")
				return err
			}
			rows, err := svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				_, err := fmt.Fprintln(out, "no diagnoses recorded")
				return err
			}
			for _, d := range rows {
				if _, err := fmt.Fprintf(out, "%s  %-20s %-20s %s\n",
					d.CreatedAt.Format("2006-01-02 15:04:05"), d.Disease, d.Medicine, strings.Join(d.Symptoms, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of diagnoses to show (0 for all)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every recorded diagnosis")
	return cmd
}
