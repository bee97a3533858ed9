package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tasnim.dev/aws-probe/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "aws-probe",
		Short:         "Check that ambient AWS credentials work from inside a container",
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewCheckCmd())
	rootCmd.AddCommand(cmd.NewMetadataCmd())
	rootCmd.AddCommand(cmd.NewRoundTripCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
