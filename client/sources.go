package client

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/exchange"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Sources mirrors the input names.
type Sources struct {
	base
}

func (s *Sources) Max() int { return model.MaxSources }

func (s *Sources) Get(id model.SourceID) (*model.Source, error) { return s.model.Source(id) }

func (s *Sources) LookupByName(name string) (model.SourceID, error) { return s.model.SourceByName(name) }

func (s *Sources) Query(id model.SourceID) (*exchange.Handle, error) { return s.query(id, nil) }

func (s *Sources) query(id model.SourceID, after func(error)) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.send(grammar.SourceQuery.Format(int(id)), grammar.SourceQuery, acceptAt(0, int(id)), nil, after)
}

func (s *Sources) Refresh() error { return s.refreshThen(nil) }

func (s *Sources) refreshThen(after func(error)) error {
	return s.runRefresh(model.MaxSources, func(i int, done func(error)) error {
		_, err := s.query(model.SourceID(i), done)
		return err
	}, after)
}

// SetName renames a source.
func (s *Sources) SetName(id model.SourceID, name string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	return s.send(grammar.SourceName.Format(int(id), name), grammar.SourceName, acceptAt(0, int(id)),
		handler(grammar.SourceName, s.applyName), nil)
}

// HandleNameChange applies an observed source name.
func (s *Sources) HandleNameChange(id model.SourceID, name string) (model.Status, error) {
	source, err := s.model.Source(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := source.SetName(name)
	return s.publish(status, err, event.SourceName{Source: id, Name: name})
}

func (s *Sources) applyName(e event.SourceName) error {
	_, err := s.HandleNameChange(e.Source, e.Name)
	return err
}

func (s *Sources) register(t *dispatch.Table) {
	on(t, grammar.SourceName, s.applyName)
	ignore(t, s.logger, grammar.SourceQuery)
}

// Favorites mirrors the favorite names.
type Favorites struct {
	base
}

func (f *Favorites) Max() int { return model.MaxFavorites }

func (f *Favorites) Get(id model.FavoriteID) (*model.Favorite, error) { return f.model.Favorite(id) }

func (f *Favorites) LookupByName(name string) (model.FavoriteID, error) {
	return f.model.FavoriteByName(name)
}

func (f *Favorites) Query(id model.FavoriteID) (*exchange.Handle, error) { return f.query(id, nil) }

func (f *Favorites) query(id model.FavoriteID, after func(error)) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return f.send(grammar.FavoriteQuery.Format(int(id)), grammar.FavoriteQuery, acceptAt(0, int(id)), nil, after)
}

func (f *Favorites) Refresh() error { return f.refreshThen(nil) }

func (f *Favorites) refreshThen(after func(error)) error {
	return f.runRefresh(model.MaxFavorites, func(i int, done func(error)) error {
		_, err := f.query(model.FavoriteID(i), done)
		return err
	}, after)
}

// SetName renames a favorite.
func (f *Favorites) SetName(id model.FavoriteID, name string) (*exchange.Handle, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateName(name); err != nil {
		return nil, err
	}
	return f.send(grammar.FavoriteName.Format(int(id), name), grammar.FavoriteName, acceptAt(0, int(id)),
		handler(grammar.FavoriteName, f.applyName), nil)
}

// HandleNameChange applies an observed favorite name.
func (f *Favorites) HandleNameChange(id model.FavoriteID, name string) (model.Status, error) {
	favorite, err := f.model.Favorite(id)
	if err != nil {
		return model.Invalid, err
	}
	status, err := favorite.SetName(name)
	return f.publish(status, err, event.FavoriteName{Favorite: id, Name: name})
}

func (f *Favorites) applyName(e event.FavoriteName) error {
	_, err := f.HandleNameChange(e.Favorite, e.Name)
	return err
}

func (f *Favorites) register(t *dispatch.Table) {
	on(t, grammar.FavoriteName, f.applyName)
	ignore(t, f.logger, grammar.FavoriteQuery)
}
