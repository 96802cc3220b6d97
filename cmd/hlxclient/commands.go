package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360/hlxmatrix/client"
	"github.com/c360/hlxmatrix/config"
	"github.com/c360/hlxmatrix/discovery"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
)

type operation func(*client.Application) (*exchange.Handle, error)

// oneShot connects, runs op, prints the result with show and disconnects.
func (c *cli) oneShot(ctx context.Context, w io.Writer, op operation, show func(io.Writer, *model.Model) error) error {
	s, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = s.close() }()

	if err := s.do(ctx, op); err != nil {
		return err
	}
	if show == nil {
		return nil
	}
	return s.read(ctx, func(m *model.Model) error { return show(w, m) })
}

func newQueryCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Print the current state of every zone and group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
				func(a *client.Application) (*exchange.Handle, error) { return a.Configuration().QueryCurrent() },
				printState)
		},
	}
}

func printState(w io.Writer, m *model.Model) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ZONE\tNAME\tVOLUME\tMUTE\tSOURCE\tBALANCE")
	for _, z := range m.Zones() {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%d\n",
			z.ID, z.Name, z.Volume, onOff(z.Mute), sourceName(m, z.Source), z.Balance)
	}
	_, _ = fmt.Fprintln(tw)
	_, _ = fmt.Fprintln(tw, "GROUP\tNAME\tVOLUME\tMUTE\tSOURCES\tMEMBERS")
	for _, g := range m.Groups() {
		if len(g.Members) == 0 {
			continue
		}
		sources := make([]string, 0, len(g.Sources))
		for _, id := range g.Sources {
			sources = append(sources, sourceName(m, id))
		}
		members := make([]string, 0, len(g.Members))
		for _, id := range g.Members {
			members = append(members, strconv.Itoa(int(id)))
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n",
			g.ID, g.Name, g.Volume, onOff(g.Mute), strings.Join(sources, ","), strings.Join(members, ","))
	}
	return tw.Flush()
}

func sourceName(m *model.Model, id model.SourceID) string {
	if s, err := m.Source(id); err == nil && s.Name != "" {
		return s.Name
	}
	return strconv.Itoa(int(id))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// parseID converts a decimal identifier argument.
func parseID(what, arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, errors.WrapInvalid(fmt.Errorf("%w: %s %q", errors.ErrInvalidArgument, what, arg), appName, "parseID", "parse "+what)
	}
	return id, nil
}

// parseMute reads on, off or toggle.
func parseMute(arg string) (mute, toggle bool, err error) {
	switch strings.ToLower(arg) {
	case "on", "true", "1":
		return true, false, nil
	case "off", "false", "0":
		return false, false, nil
	case "toggle":
		return false, true, nil
	}
	return false, false, errors.WrapInvalid(fmt.Errorf("%w: mute %q", errors.ErrInvalidArgument, arg), appName, "parseMute", "parse mute")
}

// parseArgs converts every argument with parseID.
func parseArgs(names []string, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, arg := range args {
		v, err := parseID(names[i], arg)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// zoneLine prints one attribute of a zone after a change.
func zoneLine(id model.ZoneID, attr string, value func(*model.Zone) any) func(io.Writer, *model.Model) error {
	return func(w io.Writer, m *model.Model) error {
		z, err := m.Zone(id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "zone %d %s %v\n", id, attr, value(z))
		return err
	}
}

// groupLine prints one attribute of a group after a change.
func groupLine(id model.GroupID, attr string, value func(*model.Group) any) func(io.Writer, *model.Model) error {
	return func(w io.Writer, m *model.Model) error {
		g, err := m.Group(id)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "group %d %s %v\n", id, attr, value(g))
		return err
	}
}

func newZoneCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "zone", Short: "Change zone settings"}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "volume <zone> <level>",
			Short: "Set the zone volume in dB",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseArgs([]string{"zone", "level"}, args)
				if err != nil {
					return err
				}
				id := model.ZoneID(v[0])
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) { return a.Zones().SetVolume(id, v[1]) },
					zoneLine(id, "volume", func(z *model.Zone) any { return z.Volume }))
			},
		},
		&cobra.Command{
			Use:   "mute <zone> <on|off|toggle>",
			Short: "Mute, unmute or toggle a zone",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseID("zone", args[0])
				if err != nil {
					return err
				}
				mute, toggle, err := parseMute(args[1])
				if err != nil {
					return err
				}
				id := model.ZoneID(v)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) {
						if toggle {
							return a.Zones().ToggleMute(id)
						}
						return a.Zones().SetMute(id, mute)
					},
					zoneLine(id, "mute", func(z *model.Zone) any { return onOff(z.Mute) }))
			},
		},
		&cobra.Command{
			Use:   "source <zone> <source>",
			Short: "Select the zone source",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseArgs([]string{"zone", "source"}, args)
				if err != nil {
					return err
				}
				id := model.ZoneID(v[0])
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) {
						return a.Zones().SetSource(id, model.SourceID(v[1]))
					},
					zoneLine(id, "source", func(z *model.Zone) any { return z.Source }))
			},
		},
		&cobra.Command{
			Use:   "balance <zone> <balance>",
			Short: "Set the zone balance, negative is left",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("zone", args[0])
				if err != nil {
					return err
				}
				balance, err := parseID("balance", args[1])
				if err != nil {
					return err
				}
				zone := model.ZoneID(id)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) { return a.Zones().SetBalance(zone, balance) },
					zoneLine(zone, "balance", func(z *model.Zone) any { return z.Balance }))
			},
		},
		&cobra.Command{
			Use:   "name <zone> <name>",
			Short: "Rename a zone",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseID("zone", args[0])
				if err != nil {
					return err
				}
				id := model.ZoneID(v)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) { return a.Zones().SetName(id, args[1]) },
					zoneLine(id, "name", func(z *model.Zone) any { return strconv.Quote(z.Name) }))
			},
		},
	)
	allowNegativeArgs(cmd)
	return cmd
}

func newGroupCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Change group settings and membership"}
	pair := func(use, what, short string, op func(*client.Groups, model.GroupID, int) (*exchange.Handle, error),
		attr string, value func(*model.Group) any) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("group", args[0])
				if err != nil {
					return err
				}
				arg, err := parseID(what, args[1])
				if err != nil {
					return err
				}
				group := model.GroupID(id)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) { return op(a.Groups(), group, arg) },
					groupLine(group, attr, value))
			},
		}
	}
	members := func(g *model.Group) any {
		ids := make([]int, len(g.Members))
		for i, z := range g.Members {
			ids[i] = int(z)
		}
		sort.Ints(ids)
		return ids
	}

	cmd.AddCommand(
		pair("volume <group> <level>", "level", "Set the volume of every zone in a group",
			func(g *client.Groups, id model.GroupID, level int) (*exchange.Handle, error) { return g.SetVolume(id, level) },
			"volume", func(g *model.Group) any { return g.Volume }),
		pair("source <group> <source>", "source", "Select the source of every zone in a group",
			func(g *client.Groups, id model.GroupID, source int) (*exchange.Handle, error) {
				return g.SetSource(id, model.SourceID(source))
			},
			"sources", func(g *model.Group) any { return g.Sources }),
		pair("add <group> <zone>", "zone", "Add a zone to a group",
			func(g *client.Groups, id model.GroupID, zone int) (*exchange.Handle, error) {
				return g.AddZone(id, model.ZoneID(zone))
			},
			"members", members),
		pair("remove <group> <zone>", "zone", "Remove a zone from a group",
			func(g *client.Groups, id model.GroupID, zone int) (*exchange.Handle, error) {
				return g.RemoveZone(id, model.ZoneID(zone))
			},
			"members", members),
		&cobra.Command{
			Use:   "mute <group> <on|off|toggle>",
			Short: "Mute, unmute or toggle every zone in a group",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseID("group", args[0])
				if err != nil {
					return err
				}
				mute, toggle, err := parseMute(args[1])
				if err != nil {
					return err
				}
				id := model.GroupID(v)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) {
						if toggle {
							return a.Groups().ToggleMute(id)
						}
						return a.Groups().SetMute(id, mute)
					},
					groupLine(id, "mute", func(g *model.Group) any { return onOff(g.Mute) }))
			},
		},
		&cobra.Command{
			Use:   "name <group> <name>",
			Short: "Rename a group",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := parseID("group", args[0])
				if err != nil {
					return err
				}
				id := model.GroupID(v)
				return c.oneShot(cmd.Context(), cmd.OutOrStdout(),
					func(a *client.Application) (*exchange.Handle, error) { return a.Groups().SetName(id, args[1]) },
					groupLine(id, "name", func(g *model.Group) any { return strconv.Quote(g.Name) }))
			},
		},
	)
	allowNegativeArgs(cmd)
	return cmd
}

// allowNegativeArgs stops flag parsing at the first positional argument
// so levels like -20 are not read as shorthand flags.
func allowNegativeArgs(parent *cobra.Command) {
	for _, sub := range parent.Commands() {
		sub.Flags().SetInterspersed(false)
	}
}

func newBackupCommand(c *cli, use, short string) *cobra.Command {
	ops := map[string]operation{
		"save":  func(a *client.Application) (*exchange.Handle, error) { return a.Configuration().SaveToBackup() },
		"load":  func(a *client.Application) (*exchange.Handle, error) { return a.Configuration().LoadFromBackup() },
		"reset": func(a *client.Application) (*exchange.Handle, error) { return a.Configuration().ResetToDefaults() },
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.oneShot(cmd.Context(), cmd.OutOrStdout(), ops[use], func(w io.Writer, _ *model.Model) error {
				_, err := fmt.Fprintf(w, "%s: ok\n", use)
				return err
			})
		},
	}
}

func newDiscoverCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List servers advertised on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wait := c.cfg.Discovery.BrowseTimeout
			if wait <= 0 {
				wait = config.DefaultBrowseTimeout
			}
			servers, err := discovery.Find(cmd.Context(), wait, c.logger)
			if err != nil {
				return err
			}
			return printServers(cmd.OutOrStdout(), servers)
		},
	}
}

func printServers(w io.Writer, servers []discovery.Server) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "INSTANCE\tADDRESS\tVERSION")
	for _, s := range servers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Instance, s.Addr(), s.Text["version"])
	}
	return tw.Flush()
}
