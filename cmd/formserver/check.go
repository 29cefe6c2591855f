package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formtree/pkg/definitions"
	"github.com/dmitrymomot/formtree/pkg/i18n"
	"github.com/dmitrymomot/formtree/pkg/logger"
)

var errCheckFailed = errors.New("formserver: some forms are broken")

func newCheckCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check NAME...",
		Short: "Load, resolve and instantiate form definitions",
		Long: `check builds each named form the way the server would and reports
schema violations, unknown classes, id clashes and class cycles.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, names []string) error {
			v, err := newViper(*cfgFile)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(v, cmd.Flags())
			if err != nil {
				return err
			}
			cat, err := i18n.New(i18n.WithBuiltinMessages())
			if err != nil {
				return err
			}
			manager, err := newManager(cfg, cat, logger.NewNope())
			if err != nil {
				return err
			}
			defer manager.Close()
			return check(cmd.Context(), manager, names, cmd.OutOrStdout())
		},
	}
}

// check reports one line per form and fails when any form is broken.
func check(ctx context.Context, m *definitions.Manager, names []string, out io.Writer) error {
	failed := false
	for _, name := range names {
		f, err := m.NewForm(ctx, name)
		if err != nil {
			failed = true
			fmt.Fprintf(out, "FAIL %s: %v\n", name, err)
			continue
		}
		f.Release()
		fmt.Fprintf(out, "ok   %s\n", name)
	}
	if failed {
		return errCheckFailed
	}
	return nil
}
