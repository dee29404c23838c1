package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var cfgPath string
	root := &cobra.Command{
		Use:          "stockscout",
		Short:        "Research a market topic from live web sources",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config and .)")

	root.AddCommand(researchCMD(&cfgPath), serveCMD(&cfgPath), watchCMD(&cfgPath), tokenCMD(&cfgPath))
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
