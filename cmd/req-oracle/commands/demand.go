package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var demandCmd = &cobra.Command{
	Use:   "demand <req-id>",
	Short: "Show global demand and the queueing penalty for a requisition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, _, err := newService(cfg)
		if err != nil {
			return err
		}
		rep, err := svc.Capacity(args[0])
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode capacity report: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return err
	},
}
