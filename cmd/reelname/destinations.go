package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sentient-soup/reelname/internal/app"
	"github.com/sentient-soup/reelname/internal/library"
	"github.com/sentient-soup/reelname/internal/transfer"
)

func newDestinationsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "destinations",
		Aliases: []string{"destination", "dest"},
		Short:   "Manage transfer destinations",
	}
	cmd.AddCommand(newDestinationsListCommand(ctx))
	cmd.AddCommand(newDestinationsAddCommand(ctx))
	cmd.AddCommand(newDestinationsUpdateCommand(ctx))
	cmd.AddCommand(newDestinationsRemoveCommand(ctx))
	cmd.AddCommand(newDestinationsTestCommand(ctx))
	return cmd
}

// resolveDestination looks a destination up by ID or, failing that, by name.
func resolveDestination(store *library.Store, arg string) (*library.Destination, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		d, err := store.GetDestination(id)
		if err != nil {
			return nil, fmt.Errorf("destination %d: %w", id, err)
		}
		return d, nil
	}
	d, err := store.GetDestinationByName(arg)
	if err != nil {
		return nil, fmt.Errorf("destination %q: %w", arg, err)
	}
	return d, nil
}

func destinationTarget(d *library.Destination) string {
	if d.Type == library.DestinationSSH {
		return fmt.Sprintf("%s@%s:%d%s", orDash(d.SSHUser), orDash(d.SSHHost), d.Port(), d.BasePath)
	}
	return d.BasePath
}

func newDestinationsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List destinations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				dests, err := svc.Store.ListDestinations()
				if err != nil {
					return err
				}
				return ctx.output(cmd, dests, func(w io.Writer) error {
					if len(dests) == 0 {
						_, _ = fmt.Fprintln(w, "No destinations; add one with 'reelname destinations add'")
						return nil
					}
					rows := make([][]string, 0, len(dests))
					for _, d := range dests {
						rows = append(rows, []string{
							strconv.FormatInt(d.ID, 10),
							d.Name,
							string(d.Type),
							destinationTarget(d),
						})
					}
					_, _ = fmt.Fprintln(w, renderTable(
						[]string{"ID", "Name", "Type", "Target"},
						rows,
						[]columnAlignment{alignRight},
					))
					return nil
				})
			})
		},
	}
}

// destinationFlags are shared by add and update.
type destinationFlags struct {
	destType      string
	basePath      string
	host          string
	port          int
	user          string
	keyPath       string
	passphrase    string
	movieTemplate string
	tvTemplate    string
}

func (f *destinationFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.destType, "type", string(library.DestinationLocal), "local or ssh")
	fs.StringVar(&f.basePath, "path", "", "Base path on the destination")
	fs.StringVar(&f.host, "host", "", "SSH host")
	fs.IntVar(&f.port, "port", library.DefaultSSHPort, "SSH port")
	fs.StringVar(&f.user, "user", "", "SSH user")
	fs.StringVar(&f.keyPath, "key", "", "SSH private key path (agent or default keys when empty)")
	fs.StringVar(&f.passphrase, "passphrase", "", "SSH key passphrase")
	fs.StringVar(&f.movieTemplate, "movie-template", "", "Movie naming template override")
	fs.StringVar(&f.tvTemplate, "tv-template", "", "TV naming template override")
}

// apply copies every flag the user set onto d.
func (f *destinationFlags) apply(fs *pflag.FlagSet, d *library.Destination) {
	set := func(name string, dst **string, v string) {
		if fs.Changed(name) {
			if v == "" {
				*dst = nil
			} else {
				*dst = &v
			}
		}
	}
	if fs.Changed("type") || d.Type == "" {
		d.Type = library.DestinationType(f.destType)
	}
	if fs.Changed("path") {
		d.BasePath = f.basePath
	}
	if fs.Changed("port") {
		port := f.port
		d.SSHPort = &port
	}
	set("host", &d.SSHHost, f.host)
	set("user", &d.SSHUser, f.user)
	set("key", &d.SSHKeyPath, f.keyPath)
	set("passphrase", &d.SSHKeyPassphrase, f.passphrase)
	set("movie-template", &d.MovieTemplate, f.movieTemplate)
	set("tv-template", &d.TVTemplate, f.tvTemplate)
}

func newDestinationsAddCommand(ctx *commandContext) *cobra.Command {
	var flags destinationFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a destination",
		Example: `  reelname destinations add nas --path /mnt/media
  reelname destinations add seedbox --type ssh --host box.example --user media --path /srv/media`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := &library.Destination{Name: args[0]}
			flags.apply(cmd.Flags(), d)
			if err := d.Validate(); err != nil {
				return err
			}
			return ctx.withServices(cmd, func(svc *app.Services) error {
				if err := svc.Store.AddDestination(d); err != nil {
					return fmt.Errorf("add destination: %w", err)
				}
				return ctx.output(cmd, d, func(w io.Writer) error {
					_, _ = fmt.Fprintf(w, "Added destination %d (%s)\n", d.ID, d.Name)
					return nil
				})
			})
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

func newDestinationsUpdateCommand(ctx *commandContext) *cobra.Command {
	var (
		flags destinationFlags
		name  string
	)
	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Change a destination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				d, err := resolveDestination(svc.Store, args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					d.Name = name
				}
				flags.apply(cmd.Flags(), d)
				if err := d.Validate(); err != nil {
					return err
				}
				if err := svc.Store.UpdateDestination(d); err != nil {
					return fmt.Errorf("update destination: %w", err)
				}
				return ctx.output(cmd, d, func(w io.Writer) error {
					_, _ = fmt.Fprintf(w, "Updated destination %d (%s)\n", d.ID, d.Name)
					return nil
				})
			})
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&name, "name", "", "New name")
	return cmd
}

func newDestinationsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|name>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a destination",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				d, err := resolveDestination(svc.Store, args[0])
				if err != nil {
					return err
				}
				if err := svc.Store.DeleteDestination(d.ID); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed destination %d (%s)\n", d.ID, d.Name)
				return nil
			})
		},
	}
}

func newDestinationsTestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test <id|name>",
		Short: "Check that a destination is reachable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withServices(cmd, func(svc *app.Services) error {
				d, err := resolveDestination(svc.Store, args[0])
				if err != nil {
					return err
				}
				if err := transfer.TestConnection(cmd.Context(), d, nil); err != nil {
					return fmt.Errorf("%s unreachable: %w", d.Name, err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s OK (%s)\n", d.Name, destinationTarget(d))
				return nil
			})
		},
	}
}
