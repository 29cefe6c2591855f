package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "formserver",
		Short: "Serve declarative forms over HTTP",
		Long: `formserver loads form descriptions from a directory or an S3 bucket and
serves them as htmx-friendly HTML dialogues under /forms/{name}.

Every setting can be given in a YAML config file or as a FORMTREE_*
environment variable, e.g. FORMTREE_FORMS_DIR or FORMTREE_SENTRY_DSN.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	root.PersistentFlags().String("forms-dir", "", "directory of form descriptions")
	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("i18n-dir", "", "directory of extra message catalogs ({lang}/{namespace}.yaml)")

	root.AddCommand(newServeCmd(&cfgFile), newCheckCmd(&cfgFile))
	return root
}
