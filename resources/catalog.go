package resources

import (
	"fmt"
	"sort"

	"github.com/jrsteele09/go-visitas/apiclient"
)

// Endpoint paths, relative to the API base URL.
const (
	PotenciasPath = "/potencias"
	RitosPath     = "/ritos"
	GrausPath     = "/graus"
	LojasPath     = "/lojas"
	SessoesPath   = "/sessoes"
	VisitasPath   = "/visitas"
	OrientesPath  = "/orientes"
)

// Catalog holds one Resource per endpoint, all sharing one client.
type Catalog struct {
	Potencias *Resource[Potencia]
	Ritos     *Resource[Rito]
	Graus     *Resource[Grau]
	Lojas     *Resource[Loja]
	Sessoes   *Resource[Sessao]
	Visitas   *Resource[Visita]
	Orientes  *Resource[Oriente]
}

func NewCatalog(client *apiclient.Client) *Catalog {
	return &Catalog{
		Potencias: NewResource[Potencia](client, PotenciasPath),
		Ritos:     NewResource[Rito](client, RitosPath),
		Graus:     NewResource[Grau](client, GrausPath),
		Lojas:     NewResource[Loja](client, LojasPath),
		Sessoes:   NewResource[Sessao](client, SessoesPath),
		Visitas:   NewResource[Visita](client, VisitasPath),
		Orientes:  NewResource[Oriente](client, OrientesPath),
	}
}

func (c *Catalog) collections() map[string]Collection {
	return map[string]Collection{
		"potencias": c.Potencias,
		"ritos":     c.Ritos,
		"graus":     c.Graus,
		"lojas":     c.Lojas,
		"sessoes":   c.Sessoes,
		"visitas":   c.Visitas,
		"orientes":  c.Orientes,
	}
}

// Collection looks an endpoint up by name, e.g. "lojas".
func (c *Catalog) Collection(name string) (Collection, error) {
	col, ok := c.collections()[name]
	if !ok {
		return nil, fmt.Errorf("unknown resource %q (want one of %v)", name, c.Names())
	}
	return col, nil
}

func (c *Catalog) Names() []string {
	var names []string
	for name := range c.collections() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
