package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Configuration drives whole-device operations: a full refresh, the state
// dump query, and the backup commands.
type Configuration struct {
	base

	domains []refresher
	groups  *Groups
}

// Refresh refreshes every domain, queued in domain order, and publishes
// RefreshComplete for the configuration domain once all of them finished.
func (c *Configuration) Refresh() error { return c.refreshThen(nil) }

func (c *Configuration) refreshThen(after func(error)) error {
	return c.runRefresh(len(c.domains), func(i int, done func(error)) error {
		return c.domains[i-1].refreshThen(done)
	}, after)
}

// QueryCurrent asks the server to dump its whole state.
func (c *Configuration) QueryCurrent() (*exchange.Handle, error) {
	return c.send(grammar.ConfigurationQuery.Format(), grammar.ConfigurationQuery, nil, nil, nil)
}

// SaveToBackup asks the server to store its state as the backup.
func (c *Configuration) SaveToBackup() (*exchange.Handle, error) {
	return c.send(grammar.ConfigurationSave.Format(), grammar.ConfigurationSave, nil, nil, nil)
}

// LoadFromBackup asks the server to restore its backup. The server dumps
// the restored state; group membership is then re-queried so members
// dropped by the restore disappear locally too.
func (c *Configuration) LoadFromBackup() (*exchange.Handle, error) {
	return c.send(grammar.ConfigurationLoad.Format(), grammar.ConfigurationLoad, nil, c.onRestored, nil)
}

// ResetToDefaults asks the server to restore factory defaults.
func (c *Configuration) ResetToDefaults() (*exchange.Handle, error) {
	return c.send(grammar.ConfigurationReset.Format(), grammar.ConfigurationReset, nil, c.onRestored, nil)
}

func (c *Configuration) onRestored(grammar.Captures) error {
	c.logger.Info("Server state restored, refreshing group membership")
	return c.groups.Refresh()
}

func (c *Configuration) register(t *dispatch.Table) {
	t.Register(grammar.ConfigurationLoad, c.onRestored)
	t.Register(grammar.ConfigurationReset, c.onRestored)
	ignore(t, c.logger, grammar.ConfigurationQuery, grammar.ConfigurationSave)
}
