package cli

import (
	"github.com/spf13/cobra"

	internalcli "github.com/SmitUplenchwar2687/ps2emu/internal/cli"
)

// NewRootCmd creates the public ps2emu root command for embedding.
func NewRootCmd() *cobra.Command {
	return internalcli.NewRootCmd()
}
