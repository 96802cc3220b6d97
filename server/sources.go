package server

import (
	"github.com/c360/hlxmatrix/dispatch"
	"github.com/c360/hlxmatrix/event"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/protocol/grammar"
)

// Sources answers source name requests.
type Sources struct {
	base
}

func (s *Sources) register(t *dispatch.Table) {
	t.Register(grammar.SourceQuery, func(c grammar.Captures) error {
		v, err := c.Int(0)
		if err != nil {
			return err
		}
		source, err := s.model.Source(model.SourceID(v))
		if err != nil {
			return err
		}
		r := s.reply()
		r.state(event.SourceName{Source: source.ID, Name: source.Name})
		r.Respond(grammar.SourceQuery.Format(v))
		return nil
	})
	on(t, grammar.SourceName, func(e event.SourceName) error {
		source, err := s.model.Source(e.Source)
		if err != nil {
			return err
		}
		status, err := source.SetName(e.Name)
		return s.change(status, err, e)
	})
}

func (s *Sources) state() []event.Event {
	var out []event.Event
	for _, source := range s.model.Sources() {
		out = append(out, event.SourceName{Source: source.ID, Name: source.Name})
	}
	return out
}

// Favorites answers favorite name requests.
type Favorites struct {
	base
}

func (f *Favorites) register(t *dispatch.Table) {
	t.Register(grammar.FavoriteQuery, func(c grammar.Captures) error {
		v, err := c.Int(0)
		if err != nil {
			return err
		}
		favorite, err := f.model.Favorite(model.FavoriteID(v))
		if err != nil {
			return err
		}
		r := f.reply()
		r.state(event.FavoriteName{Favorite: favorite.ID, Name: favorite.Name})
		r.Respond(grammar.FavoriteQuery.Format(v))
		return nil
	})
	on(t, grammar.FavoriteName, func(e event.FavoriteName) error {
		favorite, err := f.model.Favorite(e.Favorite)
		if err != nil {
			return err
		}
		status, err := favorite.SetName(e.Name)
		return f.change(status, err, e)
	})
}

func (f *Favorites) state() []event.Event {
	var out []event.Event
	for _, favorite := range f.model.Favorites() {
		out = append(out, event.FavoriteName{Favorite: favorite.ID, Name: favorite.Name})
	}
	return out
}
