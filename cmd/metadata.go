package cmd

import (
	"github.com/spf13/cobra"

	awsmetadata "tasnim.dev/aws-probe/internal/aws/metadata"
	"tasnim.dev/aws-probe/internal/probe"
)

func NewMetadataCmd() *cobra.Command {
	var flags probeFlags

	cmd := &cobra.Command{
		Use:   "metadata",
		Short: "Check the instance metadata service (IMDSv2)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := flags.context(cmd)
			defer cancel()

			cfg, err := flags.loadConfig(cmd)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true

			// No AWS config is loaded here; off EC2 that would stall on region lookup.
			clients := probe.Clients{
				Metadata: awsmetadata.NewClient(cfg.Endpoint(), cfg.MetadataTimeout()),
			}
			runner := probe.NewRunner(clients, probe.Options{Hostname: hostname()}, cmd.OutOrStdout())

			return flags.finish(runner.RunMetadata(ctx))
		},
	}

	flags.addCommon(cmd)

	return cmd
}
