package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/tbessias/modkit/internal/installables"
)

// newKindCommand builds the list/enable/disable/remove command tree for
// one installable kind. Plugins and themes share everything but the name.
func newKindCommand(kind installables.Kind) *cobra.Command {
	plural := string(kind) + "s"

	root := &cobra.Command{
		Use:   plural,
		Short: fmt.Sprintf("Manage installed %s", plural),
	}

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List installed %s", plural),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.database.Close()

			items, err := rt.store.List(cmd.Context(), kind)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Printf("No %s installed.\n", plural)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCREATOR\tENABLED\tUPDATED\tID")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
					item.Name, item.Creator, item.Enabled,
					item.UpdatedAt.Format("2006-01-02 15:04"), item.ID)
			}
			return w.Flush()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "enable <name|id>",
		Short: fmt.Sprintf("Enable a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE:  setEnabledRunE(kind, true),
	})

	root.AddCommand(&cobra.Command{
		Use:   "disable <name|id>",
		Short: fmt.Sprintf("Disable a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE:  setEnabledRunE(kind, false),
	})

	root.AddCommand(&cobra.Command{
		Use:   "remove <name|id>",
		Short: fmt.Sprintf("Remove a %s", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime()
			if err != nil {
				return err
			}
			defer rt.database.Close()

			item, err := resolveInstallable(cmd.Context(), rt, kind, args[0])
			if err != nil {
				return err
			}

			confirm := promptui.Prompt{
				Label:     fmt.Sprintf("Remove %s %q", kind, item.Name),
				IsConfirm: true,
			}
			if _, err := confirm.Run(); err != nil {
				fmt.Println("Aborted.")
				return nil
			}

			if err := rt.store.Delete(cmd.Context(), item.ID); err != nil {
				return err
			}
			fmt.Printf("Removed %s %q.\n", kind, item.Name)
			return nil
		},
	})

	return root
}

func setEnabledRunE(kind installables.Kind, enabled bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime()
		if err != nil {
			return err
		}
		defer rt.database.Close()

		item, err := resolveInstallable(cmd.Context(), rt, kind, args[0])
		if err != nil {
			return err
		}
		if err := rt.store.SetEnabled(cmd.Context(), item.ID, enabled); err != nil {
			return err
		}

		state := "disabled"
		if enabled {
			state = "enabled"
		}
		fmt.Printf("%s %q %s.\n", kindTitle(kind), item.Name, state)
		return nil
	}
}

// resolveInstallable accepts either a record id or a name. Names are
// matched within the kind; an ambiguous name is an error.
func resolveInstallable(ctx context.Context, rt *runtime, kind installables.Kind, ref string) (*installables.Installable, error) {
	if item, err := rt.store.Get(ctx, ref); err == nil && item.Kind == kind {
		return item, nil
	}

	items, err := rt.store.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	var match *installables.Installable
	for i := range items {
		if items[i].Name == ref {
			if match != nil {
				return nil, fmt.Errorf("%s name %q is ambiguous, use the id", kind, ref)
			}
			match = &items[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no %s named %q", kind, ref)
	}
	return match, nil
}

func kindTitle(kind installables.Kind) string {
	switch kind {
	case installables.KindPlugin:
		return "Plugin"
	case installables.KindTheme:
		return "Theme"
	default:
		return string(kind)
	}
}

// openRuntime is loadConfig + buildRuntime for the management commands.
func openRuntime() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return buildRuntime(cfg)
}

func init() {
	rootCmd.AddCommand(newKindCommand(installables.KindPlugin))
	rootCmd.AddCommand(newKindCommand(installables.KindTheme))
}
