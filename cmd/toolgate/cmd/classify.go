package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
)

var classifyCmd = &cobra.Command{
	Use:   "classify TOOL...",
	Short: "Show how tool names are classified",
	Long: `Print the operation category and service toolgate derives for each tool
name, and the keyword that decided the category.

Example:
  toolgate classify github_delete_repo list_directory db_run_query`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().String("service", "", "explicit service name (default: derived from each tool name)")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return writeClassification(cmd.OutOrStdout(), newLexicon(cfg), cfg.Service, args)
}

// writeClassification prints one row per tool: tool, category, service and
// the matched keyword ("-" when the default category applied).
func writeClassification(w io.Writer, lexicon *operation.Lexicon, service string, tools []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TOOL\tOPERATION\tSERVICE\tKEYWORD")
	for _, tool := range tools {
		category, keyword := lexicon.Explain(tool)
		if keyword == "" {
			keyword = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tool, category, lexicon.ResolveService(service, tool), keyword)
	}
	return tw.Flush()
}
