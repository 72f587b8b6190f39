// cmd/tools/rulebook/commands.go
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"capability-explorer/internal/explorer/confidence"
	"capability-explorer/internal/explorer/matcher"
	"capability-explorer/internal/models"
	"capability-explorer/pkg/rulebook"

	"github.com/spf13/cobra"
)

// =============================================================================
// ROOT COMMAND
// =============================================================================

type options struct {
	path string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "rulebook",
		Short:         "Inspect and check explorer rulebooks",
		Long:          `Validates rulebook files, reports taxonomy coverage and runs single matches offline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.path, "path", "", "Rulebook YAML file (defaults to the embedded rulebook)")

	root.AddCommand(newValidateCmd(opts), newCoverageCmd(opts), newMatchCmd(opts))
	return root
}

func (o *options) load() (*rulebook.Rulebook, error) {
	if o.path == "" {
		return rulebook.Default()
	}
	return rulebook.Load(o.path)
}

func (o *options) engine() (*matcher.Engine, *rulebook.Rulebook, error) {
	rb, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	e, err := matcher.NewEngine(rb)
	if err != nil {
		return nil, nil, err
	}
	return e, rb, nil
}

// =============================================================================
// VALIDATE
// =============================================================================

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check structure, monotonic confidence and exhaustive coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, rb, err := opts.engine()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rulebook %s OK: %d industries, %d roles, %d pain points, %d rules\n",
				rb.Version, len(rb.Industries), len(rb.Roles), len(rb.PainPoints), len(rb.Rules))
			return nil
		},
	}
}

// =============================================================================
// COVERAGE
// =============================================================================

type coverageReport struct {
	Version        string  `json:"version"`
	Total          int     `json:"total"`
	Exact          int     `json:"exact"`
	Template       int     `json:"template"`
	Generic        int     `json:"generic"`
	NoMatch        int     `json:"noMatch"`
	BelowThreshold int     `json:"belowThreshold"`
	Threshold      float64 `json:"threshold"`
}

func newCoverageCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage",
		Short: "Count triples by specificity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, rb, err := opts.engine()
			if err != nil {
				return err
			}
			c, err := e.Coverage()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), coverageReport{
				Version:        rb.Version,
				Total:          c.Total(),
				Exact:          c.Exact,
				Template:       c.Template,
				Generic:        c.Generic,
				NoMatch:        c.NoMatch,
				BelowThreshold: c.BelowCut,
				Threshold:      confidence.Threshold,
			})
		},
	}
}

// =============================================================================
// MATCH
// =============================================================================

func newMatchCmd(opts *options) *cobra.Command {
	var in models.ExplorerInput

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run one industry/role/pain point triple through the engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, _, err := opts.engine()
			if err != nil {
				return err
			}
			res, err := e.Match(in)
			if err != nil {
				return fmt.Errorf("%s/%s/%s: %w", in.Industry, in.Role, in.PainPoint, err)
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&in.Industry, "industry", "", "Industry id")
	cmd.Flags().StringVar(&in.Role, "role", "", "Role id")
	cmd.Flags().StringVar(&in.PainPoint, "pain-point", "", "Pain point id")
	_ = cmd.MarkFlagRequired("industry")
	_ = cmd.MarkFlagRequired("role")
	_ = cmd.MarkFlagRequired("pain-point")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
