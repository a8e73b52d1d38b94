package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tbessias/modkit/internal/installables"
	"github.com/tbessias/modkit/internal/storefront"
)

var storeForceRefresh bool

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Browse and install from the community store",
}

var storeListCmd = &cobra.Command{
	Use:   "list <plugin|theme>",
	Short: "List store offerings of a kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := installables.Kind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown kind %q", args[0])
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.database.Close()

		entries, err := rt.front.FetchManifest(cmd.Context(), kind, storeForceRefresh)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("The store has no %ss.\n", kind)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCREATOR\tUPDATED\tDESCRIPTION")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Creator, e.DateUpdated, truncate(e.Description, 60))
		}
		return w.Flush()
	},
}

var storeInstallCmd = &cobra.Command{
	Use:   "install <plugin|theme> <name>",
	Short: "Install a store item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := installables.Kind(args[0])
		if !kind.Valid() {
			return fmt.Errorf("unknown kind %q", args[0])
		}

		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.database.Close()

		entries, err := rt.front.FetchManifest(cmd.Context(), kind, storeForceRefresh)
		if err != nil {
			return err
		}

		var entry *storefront.ManifestEntry
		for i := range entries {
			if entries[i].Name == args[1] {
				entry = &entries[i]
				break
			}
		}
		if entry == nil {
			return fmt.Errorf("the store has no %s named %q", kind, args[1])
		}

		item, err := rt.front.Install(cmd.Context(), kind, *entry)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s %q (id %s). It is enabled.\n", kind, item.Name, item.ID)
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	storeCmd.PersistentFlags().BoolVar(&storeForceRefresh, "refresh", false, "bypass the cached store manifest")
	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storeInstallCmd)
	rootCmd.AddCommand(storeCmd)
}
