package cmd

import (
	"github.com/spf13/cobra"
)

func NewRoundTripCmd() *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Upload, verify and download a test object",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			runner, err := flags.newRunner(ctx, cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			return flags.finish(runner.RunRoundTrip(ctx))
		},
	}

	flags.addCredentials(cmd)
	flags.addRoundTrip(cmd)
	flags.addCommon(cmd)

	return cmd
}
