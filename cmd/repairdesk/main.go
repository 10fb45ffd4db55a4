package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/zen-systems/repairdesk/pkg/config"
	"github.com/zen-systems/repairdesk/pkg/desk"
	"github.com/zen-systems/repairdesk/pkg/knowledge"
	"github.com/zen-systems/repairdesk/pkg/observability"
)

var (
	configFile string
	jsonOutput bool
	cfg        *config.Config
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "repairdesk",
		Short: "Equipment fault triage: classify, diagnose and find repair references",
		Long: `repairdesk turns a free-text fault description into a probable fault
	category, walks a yes/no diagnostic path to a named diagnosis with
	urgency and cost estimates, and ranks stored cases, repair notes and
	articles relevant to the problem.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := config.Read(v, configFile); err != nil {
				return err
			}
			loaded, err := config.Load(v)
			if err != nil {
				return err
			}
			cfg = loaded
			observability.InitializeLogger(cfg.Logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to repairdesk.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")

	rootCmd.AddCommand(classifyCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(consultCmd())
	rootCmd.AddCommand(diagnoseCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(graphCmd())
	rootCmd.AddCommand(modelsCmd())
	return rootCmd
}

// openDesk builds the desk for one command run.
func openDesk(cmd *cobra.Command) (*desk.Desk, func(), error) {
	logger := observability.GetLogger()
	d, closeFn, err := desk.Build(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return d, func() {
		if err := closeFn(); err != nil {
			logger.Warn("closing record store", zap.Error(err))
		}
	}, nil
}

func classifyCmd() *cobra.Command {
	var multi bool

	cmd := &cobra.Command{
		Use:   "classify [description]",
		Short: "Classify a fault description into a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			text := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			if multi {
				cands := d.Candidates(text, d.Catalog().Len())
				if jsonOutput {
					return writeJSON(out, cands)
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "CATEGORY\tCONFIDENCE\tKEYWORDS")
				for _, c := range cands {
					fmt.Fprintf(w, "%s\t%.2f\t%s\n", c.Category, c.Confidence, formatList(c.MatchedKeywords))
				}
				return w.Flush()
			}

			result := d.Classify(cmd.Context(), text)
			if jsonOutput {
				return writeJSON(out, result)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Category:\t%s\n", result.Category)
			fmt.Fprintf(w, "Confidence:\t%.2f\n", result.Confidence)
			fmt.Fprintf(w, "Method:\t%s\n", result.Method)
			fmt.Fprintf(w, "Reason:\t%s\n", result.Reason)
			if err := w.Flush(); err != nil {
				return err
			}
			printClarification(out, result.NeedsClarification, result.ClarificationQuestions)
			return nil
		},
	}

	cmd.Flags().BoolVar(&multi, "multi", false, "list every matching category")
	return cmd
}

func searchCmd() *cobra.Command {
	var topN int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank repair references for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			if topN <= 0 {
				topN = cfg.Knowledge.TopN
			}
			results, err := d.Search(cmd.Context(), strings.Join(args, " "), topN)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			printReferences(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().IntVar(&topN, "top", 0, "number of results (default knowledge.top_n)")
	return cmd
}

func consultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consult [description]",
		Short: "Classify a fault and list references in one step",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			c, err := d.Consult(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, c)
			}
			fmt.Fprintf(out, "Category: %s (%.0f%%, %s)\n", c.Classification.Category, c.Classification.Confidence*100, c.Classification.Method)
			printClarification(out, c.Classification.NeedsClarification, c.Classification.ClarificationQuestions)
			fmt.Fprintln(out)
			printReferences(out, c.References)
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List fault categories and their keywords",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			cats := d.Catalog().Categories()
			if jsonOutput {
				return writeJSON(cmd.OutOrStdout(), cats)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tDESCRIPTION\tKEYWORDS")
			for _, c := range cats {
				keywords := formatList(c.Keywords)
				if c.IsFallback() {
					keywords = "(fallback)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Description, keywords)
			}
			return w.Flush()
		},
	}
}

func graphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect diagnostic graphs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [category]",
		Short: "Report structural problems in a category's diagnostic graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, done, err := openDesk(cmd)
			if err != nil {
				return err
			}
			defer done()

			g, issues, err := d.ValidateGraph(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOutput {
				return writeJSON(out, issues)
			}
			if g.Empty() {
				fmt.Fprintf(out, "No diagnostic graph for %s\n", args[0])
				return nil
			}
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: %d nodes, no issues\n", args[0], g.Len())
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ISSUE\tNODE\tDETAIL")
			for _, issue := range issues {
				fmt.Fprintf(w, "%s\t%s\t%s\n", issue.Kind, issue.NodeID, issue.Message)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%s: %d issues", args[0], len(issues))
		},
	})
	return cmd
}

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List language model providers and whether they are usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases := cfg.Aliases()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODELS\tSTATUS")
			for _, provider := range aliases.ListProviders() {
				status := "no key"
				if cfg.HasAdapter(provider) {
					status = "ready"
				}
				if provider == cfg.LLM.Adapter {
					status += " (primary)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", provider, formatList(aliases.Providers[provider]), status)
			}

			names := make([]string, 0, len(aliases.Aliases))
			for name := range aliases.Aliases {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintln(w, "\nALIAS\tMODEL\tPROVIDER")
			for _, name := range names {
				fmt.Fprintf(w, "%s\t%s\t%s\n", name, aliases.Resolve(name), providerLabel(aliases, aliases.Resolve(name)))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if cfg.LLM.Enabled() {
				model := cfg.LLM.Model
				if aliases.IsAlias(model) {
					model = fmt.Sprintf("%s (%s)", aliases.Resolve(model), cfg.LLM.Model)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "\nPrimary: %s via %s\n", model, cfg.LLM.Adapter)
			}
			return nil
		},
	}
}

func printReferences(out io.Writer, results []knowledge.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No references found.")
		return
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. %s [%s, %s] score %.0f\n", i+1, r.Title, r.Category, r.SourceType, r.Score)
		if len(r.Costs) > 0 {
			fmt.Fprintf(out, "   costs: %s\n", formatList(r.Costs))
		}
		if len(r.Tools) > 0 {
			fmt.Fprintf(out, "   tools: %s\n", formatList(r.Tools))
		}
		for _, link := range r.Links {
			fmt.Fprintf(out, "   %s\n", link)
		}
	}
}

func printClarification(out io.Writer, needed bool, questions []string) {
	if !needed {
		return
	}
	fmt.Fprintln(out, "Not sure yet. It would help to know:")
	for _, q := range questions {
		fmt.Fprintf(out, "  - %s\n", q)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func providerLabel(aliases *config.ModelAliases, model string) string {
	if p := aliases.ProviderForModel(model); p != "" {
		return p
	}
	return "unlisted"
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}
