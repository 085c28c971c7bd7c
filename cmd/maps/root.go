package maps

import (
	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/ValentinKolb/dGrid/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// MapCommands represents the map command group
	MapCommands = &cobra.Command{
		Use:                "map",
		Short:              "Perform operations on distributed maps",
		Long:               "Perform operations on distributed maps. Keys and values are given as JSON literals (e.g. 42, true, '\"text\"', '{\"age\": 30}'), anything else is taken as plain string.",
		PersistentPreRunE:  setupMapClient,
		PersistentPostRunE: closeMapClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the map command
	util.SetupRPCClientFlags(MapCommands)

	// Add subcommands
	MapCommands.AddCommand(getCmd)
	MapCommands.AddCommand(putCmd)
	MapCommands.AddCommand(putIfAbsentCmd)
	MapCommands.AddCommand(removeCmd)
	MapCommands.AddCommand(hasCmd)
	MapCommands.AddCommand(sizeCmd)
	MapCommands.AddCommand(keysCmd)
	MapCommands.AddCommand(destroyCmd)
	MapCommands.AddCommand(perfTestCmd)
}

// setupMapClient initializes the RPC client
func setupMapClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Create the client
	var err error
	rpcClient, err = util.NewClient()
	return err
}

// closeMapClient closes the RPC client after the command ran
func closeMapClient(_ *cobra.Command, _ []string) error {
	if rpcClient == nil {
		return nil
	}
	return rpcClient.Close()
}
