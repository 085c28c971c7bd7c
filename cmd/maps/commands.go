package maps

import (
	"fmt"

	"github.com/ValentinKolb/dGrid/cmd/util"
	"github.com/spf13/cobra"
)

var (
	getCmd = &cobra.Command{
		Use:   "get [map] [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := util.ParseValue(args[1])
			value, err := rpcClient.GetMap(args[0]).Get(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t, value=%s\n", util.FormatValue(key), value != nil, util.FormatValue(value))
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [map] [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			previous, err := rpcClient.GetMap(args[0]).Put(cmd.Context(), util.ParseValue(args[1]), util.ParseValue(args[2]))
			if err != nil {
				return err
			}
			fmt.Printf("put successfully, previous=%s\n", util.FormatValue(previous))
			return nil
		},
	}
	putIfAbsentCmd = &cobra.Command{
		Use:   "put-if-absent [map] [key] [value]",
		Short: "Sets the value for a key if the key is not already set",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := rpcClient.GetMap(args[0]).PutIfAbsent(cmd.Context(), util.ParseValue(args[1]), util.ParseValue(args[2]))
			if err != nil {
				return err
			}
			if existing == nil {
				fmt.Println("put successfully")
			} else {
				fmt.Printf("key already set, existing=%s\n", util.FormatValue(existing))
			}
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [map] [key]",
		Short: "Removes a key value pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			previous, err := rpcClient.GetMap(args[0]).Remove(cmd.Context(), util.ParseValue(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("remove successfully, previous=%s\n", util.FormatValue(previous))
			return nil
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [map] [key]",
		Short: "Checks if a key exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := util.ParseValue(args[1])
			found, err := rpcClient.GetMap(args[0]).ContainsKey(cmd.Context(), key)
			if err != nil {
				return err
			}
			fmt.Printf("key=%s, found=%t\n", util.FormatValue(key), found)
			return nil
		},
	}
	sizeCmd = &cobra.Command{
		Use:   "size [map]",
		Short: "Prints the number of entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := rpcClient.GetMap(args[0]).Size(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("map=%s, size=%d\n", args[0], size)
			return nil
		},
	}
	keysCmd = &cobra.Command{
		Use:   "keys [map]",
		Short: "Lists the keys, optionally only those whose entries match a filter",
		Long: `Lists the keys of a map. With --where only the keys of entries matching the filter are listed.
Filters use a SQL like syntax, e.g. "active AND age BETWEEN 18 AND 65" or "name IN ('alice', 'bob')".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := rpcClient.GetMap(args[0])

			var keys []any
			var err error
			if where, _ := cmd.Flags().GetString("where"); where != "" {
				keys, err = m.KeysWhere(cmd.Context(), where)
			} else {
				keys, err = m.Keys(cmd.Context(), nil)
			}
			if err != nil {
				return err
			}

			for _, key := range keys {
				fmt.Println(util.FormatValue(key))
			}
			fmt.Printf("(%d keys)\n", len(keys))
			return nil
		},
	}
	destroyCmd = &cobra.Command{
		Use:   "destroy [map]",
		Short: "Destroys a map with all of its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rpcClient.GetMap(args[0]).Destroy(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("destroy successfully")
			return nil
		},
	}
)

func init() {
	keysCmd.Flags().String("where", "", util.WrapString("Filter the entries have to match"))
}
