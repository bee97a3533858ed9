package cmd

import (
	"github.com/spf13/cobra"
)

func NewCheckCmd() *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run the full ambient credential checklist",
		Long: "Checks S3 access with ambient credentials, the instance metadata service,\n" +
			"the caller identity, and an upload/download round-trip against a bucket.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			runner, err := flags.newRunner(ctx, cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			return flags.finish(runner.Run(ctx))
		},
	}

	flags.addCredentials(cmd)
	flags.addRoundTrip(cmd)
	flags.addCommon(cmd)
	cmd.Flags().BoolVar(&flags.skipRoundTrip, "skip-roundtrip", false, "Skip the object round-trip")
	cmd.Flags().BoolVar(&flags.skipMetadata, "skip-metadata", false, "Skip the metadata service check")

	return cmd
}
