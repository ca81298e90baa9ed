package commands

import (
	"github.com/racegate/racegate/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for racegate
var RootCmd = &cobra.Command{
	Use:              "racegate",
	Short:            "Race timing gates over a shared network",
	TraverseChildren: true,
}
