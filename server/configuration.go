package server

import (
	"context"
	"time"

	"github.com/c360/hlxmatrix/backup"
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/codec"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// DefaultBackupTimeout bounds one backup store call.
const DefaultBackupTimeout = 5 * time.Second

// Configuration answers whole-device requests: the state dump and the
// backup commands.
type Configuration struct {
	base

	store   backup.Store
	timeout time.Duration
	groups  *Groups
	domains []stateful
}

func (c *Configuration) register(t *dispatch.Table) {
	t.Register(grammar.ConfigurationQuery, func(grammar.Captures) error {
		return c.query(c.dump(), grammar.ConfigurationQuery.Format())
	})
	t.Register(grammar.ConfigurationSave, c.onSave)
	t.Register(grammar.ConfigurationLoad, c.onLoad)
	t.Register(grammar.ConfigurationReset, c.onReset)
}

// dump lists the state of every domain in domain order.
func (c *Configuration) dump() []event.Event {
	var out []event.Event
	for _, d := range c.domains {
		out = append(out, d.state()...)
	}
	return out
}

func (c *Configuration) backupContext() (context.Context, context.CancelFunc) {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultBackupTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (c *Configuration) onSave(grammar.Captures) error {
	if c.store == nil {
		return errors.WrapInvalid(errors.ErrNotInitialized, "server", "Save", "backup store check")
	}
	ctx, cancel := c.backupContext()
	defer cancel()
	if err := c.store.Save(ctx, c.model.Snapshot()); err != nil {
		return errors.Wrap(err, "server", "Save", "store backup")
	}
	c.logger.Info("Configuration saved")
	c.reply().Respond(grammar.ConfigurationSave.Format())
	return nil
}

func (c *Configuration) onLoad(grammar.Captures) error {
	if c.store == nil {
		return errors.WrapInvalid(errors.ErrNotInitialized, "server", "Load", "backup store check")
	}
	ctx, cancel := c.backupContext()
	defer cancel()
	snapshot, err := c.store.Load(ctx)
	if err != nil {
		return errors.Wrap(err, "server", "Load", "load backup")
	}
	err = c.replace(func() error { return c.model.Restore(snapshot) }, grammar.ConfigurationLoad.Format())
	if err == nil {
		c.logger.Info("Configuration loaded")
	}
	return err
}

func (c *Configuration) onReset(grammar.Captures) error {
	err := c.replace(func() error {
		c.model.Reset()
		return nil
	}, grammar.ConfigurationReset.Format())
	if err == nil {
		c.logger.Info("Configuration reset to defaults")
	}
	return err
}

// replace swaps the whole model via apply, broadcasts the resulting dump
// followed by echo, and publishes what differs from the previous state.
func (c *Configuration) replace(apply func() error, echo string) error {
	before := c.dump()
	aggregates := c.groups.aggregates()
	if err := apply(); err != nil {
		return err
	}

	r := c.reply()
	r.Publish(diff(before, c.dump())...)
	if err := c.groups.settleAll(aggregates); err != nil {
		return err
	}
	for _, e := range c.dump() {
		r.Broadcast(codec.MustEncode(e))
	}
	r.Broadcast(echo)
	return nil
}

// diff returns the events of after that were not in before, plus a
// GroupZoneRemoved for every membership that disappeared.
func diff(before, after []event.Event) []event.Event {
	seen := make(map[string]bool, len(before))
	for _, e := range before {
		seen[codec.MustEncode(e)] = true
	}
	kept := make(map[string]bool, len(after))
	var out []event.Event
	for _, e := range after {
		frame := codec.MustEncode(e)
		kept[frame] = true
		if !seen[frame] {
			out = append(out, e)
		}
	}
	for _, e := range before {
		added, ok := e.(event.GroupZoneAdded)
		if ok && !kept[codec.MustEncode(e)] {
			out = append(out, event.GroupZoneRemoved(added))
		}
	}
	return out
}

// aggregates captures the current state of every group.
func (g *Groups) aggregates() map[model.GroupID]model.Aggregate {
	out := make(map[model.GroupID]model.Aggregate, len(g.model.Groups()))
	for _, group := range g.model.Groups() {
		out[group.ID] = aggregateOf(group)
	}
	return out
}

// settleAll re-derives every group against the captured state.
func (g *Groups) settleAll(before map[model.GroupID]model.Aggregate) error {
	for _, group := range g.model.Groups() {
		if err := g.settle(group, before[group.ID]); err != nil {
			return err
		}
	}
	return nil
}
