package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/mycin/pkg/mycin"
	"github.com/cognicore/mycin/pkg/mycin/config"
	"github.com/cognicore/mycin/pkg/mycin/oracle"
	"github.com/cognicore/mycin/pkg/mycin/report"
	"github.com/cognicore/mycin/pkg/mycin/store"
	"github.com/cognicore/mycin/pkg/mycin/store/memstore"
	"github.com/cognicore/mycin/pkg/mycin/store/sqlite"
)

func openStore(ctx context.Context, path string) (store.Store, error) {
	if path == "" {
		return memstore.New(), nil
	}
	return sqlite.OpenSQLite(ctx, path)
}

func (c *cli) consultCmd() *cobra.Command {
	var (
		kbPath, answersPath, dbPath, htmlPath string
		strict                                bool
		maxDepth                              int
	)
	cmd := &cobra.Command{
		Use:   "consult [context...]",
		Short: "Run a consultation",
		Long: `Builds one instance of each named context type, in order, and resolves its
initial and goal parameters. With no context types given, every context type
of the knowledge base is consulted in declaration order.

Questions are read from stdin unless --answers names a scripted answer file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			comp, err := (&config.Loader{KnowledgeBasePath: kbPath, AnswersPath: answersPath}).Load()
			if err != nil {
				return err
			}

			var o oracle.Oracle = oracle.NewConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			if answersPath != "" {
				o = comp.Oracle()
			}

			st, err := openStore(ctx, dbPath)
			if err != nil {
				return err
			}
			sh := mycin.New(mycin.Options{
				KB:           comp.KB,
				Oracle:       o,
				Store:        st,
				Logger:       c.logger,
				MaxDepth:     maxDepth,
				StrictParams: strict,
			})
			defer sh.Close()

			result, err := sh.Consult(ctx, args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := report.Text(out, result.Results()); err != nil {
				return err
			}
			fmt.Fprintf(out, "consultation %s\n", result.ID)

			if htmlPath != "" {
				return writeHTML(htmlPath, result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge base YAML file (required)")
	cmd.Flags().StringVar(&answersPath, "answers", "", "scripted answers YAML file")
	cmd.Flags().StringVar(&dbPath, "db", config.DBPath(), "SQLite database to save the consultation in")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write an HTML report to this file")
	cmd.Flags().BoolVar(&strict, "strict", config.StrictParams(), "fail on undeclared parameters")
	cmd.Flags().IntVar(&maxDepth, "max-depth", config.MaxDepth(), "maximum nested discoveries")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func writeHTML(path string, c store.Consultation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.HTML(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (c *cli) rulesCmd() *cobra.Command {
	var (
		kbPath string
		asYAML bool
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the rules of a knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := (&config.Loader{KnowledgeBasePath: kbPath}).Load()
			if err != nil {
				return err
			}
			if asYAML {
				return report.ExportRules(cmd.OutOrStdout(), comp.KB)
			}
			return report.Rules(cmd.OutOrStdout(), comp.KB)
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge base YAML file (required)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "export as YAML instead of rule text")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	var kbPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			comp, err := (&config.Loader{KnowledgeBasePath: kbPath, Validate: true}).Load()
			if err != nil {
				return err
			}
			k := comp.KB
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d context types, %d params, %d rules\n",
				len(k.ContextNames()), len(k.Params()), len(k.AllRules()))
			return nil
		},
	}
	cmd.Flags().StringVar(&kbPath, "kb", "", "knowledge base YAML file (required)")
	_ = cmd.MarkFlagRequired("kb")
	return cmd
}

func (c *cli) sessionsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List saved consultations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			list, err := st.ListConsultations(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range list {
				fmt.Fprintf(out, "%s  %s  %s\n", s.ID, s.StartedAt.Local().Format(time.DateTime), strings.Join(s.Contexts, ","))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", config.DBPath(), "SQLite database (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum consultations to list; 0 lists all")
	if config.DBPath() == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var dbPath, htmlPath string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved consultation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			result, err := st.GetConsultation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "consultation %s started %s (%d steps)\n",
				result.ID, result.StartedAt.Local().Format(time.DateTime), len(result.Steps))
			if err := report.Text(out, result.Results()); err != nil {
				return err
			}
			if htmlPath != "" {
				return writeHTML(htmlPath, result)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", config.DBPath(), "SQLite database (required)")
	cmd.Flags().StringVar(&htmlPath, "html", "", "also write an HTML report to this file")
	if config.DBPath() == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	return cmd
}
