package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/toolgate/internal/adapter/outbound/policyfile"
	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
)

var checkCmd = &cobra.Command{
	Use:   "check --policy FILE TOOL...",
	Short: "Show the policy decision for tool names",
	Long: `Load a policy and print the decision toolgate would take for each tool
name, without running a backend. A malformed policy fails with the same
error the proxy would report at startup.

Example:
  toolgate check --policy policy.yaml --service github github_delete_repo`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("service", "", "explicit service name (default: derived from each tool name)")
	checkCmd.Flags().String("policy", "", "policy file (YAML or JSON)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.RequirePolicy(); err != nil {
		_ = cmd.Usage()
		return err
	}

	table, err := policyfile.Load(cfg.Policy)
	if err != nil {
		return err
	}
	return writeDecisions(cmd.OutOrStdout(), newLexicon(cfg), table, cfg.Service, args)
}

// writeDecisions prints one row per tool with the decision the proxy would
// take and the rule that produced it.
func writeDecisions(w io.Writer, lexicon *operation.Lexicon, table *policy.Table, service string, tools []string) error {
	fmt.Fprintf(w, "policy %s (%d rules)\n", table.Version(), table.Len())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tSERVICE\tOPERATION\tDECISION\tRULE\tREASON")
	for _, tool := range tools {
		svc := lexicon.ResolveService(service, tool)
		op := lexicon.Classify(tool)
		d := table.Lookup(svc, op)

		decision := audit.DecisionAllowed
		if !d.Allowed() {
			decision = audit.DecisionDenied
		}
		rule := d.Rule
		if !d.Matched {
			rule = "default"
		}
		reason := d.Reason
		if reason == "" {
			reason = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", tool, svc, op, decision, rule, reason)
	}
	return tw.Flush()
}
