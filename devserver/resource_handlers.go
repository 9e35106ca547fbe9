package devserver

import (
	"net/http"

	"github.com/jrsteele09/go-visitas/internal/errors"
	"github.com/jrsteele09/go-visitas/resources"
	"github.com/jrsteele09/go-visitas/users"
)

// collection describes how one resource endpoint behaves.
type collection[T any, P row[T]] struct {
	route string
	table *Table[T, P]
	// adminWrites restricts POST, PUT and DELETE to administrators.
	adminWrites bool
	// owner points at the owning user id. Nil for shared reference data.
	owner func(P) *int64
	// references checks that ids pointing at other tables exist.
	references func(P) error
	// expand fills the nested records of a response; detach clears them
	// before the record is stored.
	expand func(P)
	detach func(P)
}

func (c collection[T, P]) visibleTo(user *users.User) func(P) bool {
	if c.owner == nil || user.IsAdmin {
		return nil
	}
	return func(p P) bool { return *c.owner(p) == user.ID }
}

func (c collection[T, P]) visible(user *users.User, p P) bool {
	keep := c.visibleTo(user)
	return keep == nil || keep(p)
}

func (c collection[T, P]) respond(w http.ResponseWriter, status int, p P) {
	if c.expand != nil {
		c.expand(p)
	}
	writeJSON(w, status, p)
}

// lookup loads the record named by the id path value, treating records owned
// by someone else as missing.
func (c collection[T, P]) lookup(r *http.Request) (P, error) {
	id, err := pathID(r)
	if err != nil {
		return nil, err
	}
	p, err := c.table.Get(id)
	if err != nil {
		return nil, err
	}
	if !c.visible(userFrom(r.Context()), p) {
		return nil, errors.Wrapf(errors.ErrNotFound, "id %d", id)
	}
	return p, nil
}

// decode reads and validates a record from the request body.
func (c collection[T, P]) decode(r *http.Request) (P, error) {
	p := P(new(T))
	if err := decodeJSON(r, p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if c.references != nil {
		if err := c.references(p); err != nil {
			return nil, err
		}
	}
	if c.detach != nil {
		c.detach(p)
	}
	return p, nil
}

func (c collection[T, P]) list(w http.ResponseWriter, r *http.Request) {
	records := c.table.List(c.visibleTo(userFrom(r.Context())))
	if c.expand != nil {
		for _, p := range records {
			c.expand(p)
		}
	}
	writeJSON(w, http.StatusOK, records)
}

func (c collection[T, P]) get(w http.ResponseWriter, r *http.Request) {
	p, err := c.lookup(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	c.respond(w, http.StatusOK, p)
}

func (c collection[T, P]) create(w http.ResponseWriter, r *http.Request) {
	p, err := c.decode(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if c.owner != nil {
		*c.owner(p) = userFrom(r.Context()).ID
	}
	c.respond(w, http.StatusCreated, c.table.Insert(p))
}

func (c collection[T, P]) update(w http.ResponseWriter, r *http.Request) {
	existing, err := c.lookup(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	p, err := c.decode(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if c.owner != nil {
		*c.owner(p) = *c.owner(existing)
	}
	updated, err := c.table.Update(existing.GetID(), p)
	if err != nil {
		writeFailure(w, err)
		return
	}
	c.respond(w, http.StatusOK, updated)
}

func (c collection[T, P]) remove(w http.ResponseWriter, r *http.Request) {
	existing, err := c.lookup(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := c.table.Delete(existing.GetID()); err != nil {
		writeFailure(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "deleted")
}

func registerCollection[T any, P row[T]](s *Server, c collection[T, P]) {
	base := RoutePrefix + c.route
	item := base + "/{id}"

	read := s.APIMiddleware(s.RequireAuth)
	write := read
	if c.adminWrites {
		write = s.APIMiddleware(s.RequireAuth, s.RequireAdmin)
	}

	s.RegisterRouteHandler("GET "+base, ChainMiddleware(c.list, read...))
	s.RegisterRouteHandler("GET "+item, ChainMiddleware(c.get, read...))
	s.RegisterRouteHandler("POST "+base, ChainMiddleware(c.create, write...))
	s.RegisterRouteHandler("PUT "+item, ChainMiddleware(c.update, write...))
	s.RegisterRouteHandler("DELETE "+item, ChainMiddleware(c.remove, write...))
}

func unknownReference(field string, id int64) error {
	return errors.Wrapf(errors.ErrInvalidRequest, "%s %d does not exist", field, id)
}

func (s *Server) registerResources() {
	d := s.data

	registerCollection(s, collection[resources.Potencia, *resources.Potencia]{
		route: RoutePotencias, table: d.potencias, adminWrites: true,
	})
	registerCollection(s, collection[resources.Rito, *resources.Rito]{
		route: RouteRitos, table: d.ritos, adminWrites: true,
	})
	registerCollection(s, collection[resources.Grau, *resources.Grau]{
		route: RouteGraus, table: d.graus, adminWrites: true,
	})
	registerCollection(s, collection[resources.Sessao, *resources.Sessao]{
		route: RouteSessoes, table: d.sessoes, adminWrites: true,
	})
	registerCollection(s, collection[resources.Oriente, *resources.Oriente]{
		route: RouteOrientes, table: d.orientes, adminWrites: true,
	})
	registerCollection(s, collection[resources.Loja, *resources.Loja]{
		route:       RouteLojas,
		table:       d.lojas,
		adminWrites: true,
		references: func(l *resources.Loja) error {
			if !d.potencias.Exists(l.PotenciaID) {
				return unknownReference("potencia_id", l.PotenciaID)
			}
			return nil
		},
		expand: d.expandLoja,
		detach: func(l *resources.Loja) { l.Potencia = nil },
	})
	registerCollection(s, collection[resources.Visita, *resources.Visita]{
		route:      RouteVisitas,
		table:      d.visitas,
		owner:      func(v *resources.Visita) *int64 { return &v.UserID },
		references: d.checkVisita,
		expand:     d.expandVisita,
		detach: func(v *resources.Visita) {
			v.Loja, v.Sessao, v.Grau, v.Rito, v.Potencia = nil, nil, nil, nil, nil
		},
	})
}

func (d *tables) expandLoja(l *resources.Loja) {
	l.Potencia, _ = d.potencias.Get(l.PotenciaID)
}

func (d *tables) checkVisita(v *resources.Visita) error {
	switch {
	case !d.lojas.Exists(v.LojaID):
		return unknownReference("loja_id", v.LojaID)
	case !d.sessoes.Exists(v.SessaoID):
		return unknownReference("sessao_id", v.SessaoID)
	case !d.graus.Exists(v.GrauID):
		return unknownReference("grau_id", v.GrauID)
	case !d.ritos.Exists(v.RitoID):
		return unknownReference("rito_id", v.RitoID)
	case !d.potencias.Exists(v.PotenciaID):
		return unknownReference("potencia_id", v.PotenciaID)
	}
	return nil
}

func (d *tables) expandVisita(v *resources.Visita) {
	v.Loja, _ = d.lojas.Get(v.LojaID)
	if v.Loja != nil {
		d.expandLoja(v.Loja)
	}
	v.Sessao, _ = d.sessoes.Get(v.SessaoID)
	v.Grau, _ = d.graus.Get(v.GrauID)
	v.Rito, _ = d.ritos.Get(v.RitoID)
	v.Potencia, _ = d.potencias.Get(v.PotenciaID)
}
