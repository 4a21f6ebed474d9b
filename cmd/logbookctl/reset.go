package main

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	resetForce bool
	resetSeed  bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every season, log, template and material",
	Long: `Delete every season, log entry, hidden task, template, material and
usage counter. User accounts are kept. Asks for confirmation unless --force
is set; --seed loads the built-in template afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := setup(ctx, cmd)
		if err != nil {
			return err
		}
		defer e.close(ctx)

		out := cmd.OutOrStdout()
		if !resetForce {
			fmt.Fprintf(out, "This deletes all logbook data in the %s store. Type \"reset\" to continue: ", e.cfg.StoreDriver)
			line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(line) != "reset" {
				fmt.Fprintln(out, "Reset cancelled.")
				return nil
			}
		}

		if err := e.st.Reset(ctx); err != nil {
			return err
		}
		e.log.Info("store reset", "driver", e.cfg.StoreDriver)
		fmt.Fprintln(out, "All logbook data deleted.")

		if resetSeed {
			tpl, err := loadTemplate("")
			if err != nil {
				return err
			}
			if _, err := seedTemplate(ctx, e.st, tpl, false, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(out, "created template %q (%s)\n", tpl.Name, tpl.ID.Hex())
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "skip the confirmation prompt")
	resetCmd.Flags().BoolVar(&resetSeed, "seed", false, "load the built-in template after the reset")
	rootCmd.AddCommand(resetCmd)
}
