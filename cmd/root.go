package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/ValentinKolb/dGrid/cmd/maps"
	"github.com/ValentinKolb/dGrid/cmd/query"
	"github.com/ValentinKolb/dGrid/cmd/serve"
	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dgrid",
		Short: "in-memory data grid",
		Long: fmt.Sprintf(`dGrid (v%s)

An in-memory data grid written in Go. Clients access named maps on a server
through a correlated request/response protocol and select entries with
SQL like filter expressions.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dGrid",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dGrid v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(maps.MapCommands)
	RootCmd.AddCommand(query.QueryCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use for packets (json, gob, binary)"))
	key = "codec"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("codec to use for keys, values and predicates (json, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
