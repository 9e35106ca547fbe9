package resources

import (
	"github.com/jrsteele09/go-visitas/internal/errors"
)

// Entity is implemented by every record served by a CRUD endpoint.
type Entity interface {
	GetID() int64
	SetID(id int64)
	// Validate reports the first missing or malformed field.
	Validate() error
}

func required(field string, ok bool) error {
	if ok {
		return nil
	}
	return errors.Wrapf(errors.ErrMissingField, "%s", field)
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Potencia is a grand lodge or other masonic obedience.
type Potencia struct {
	ID    int64  `json:"id"`
	Nome  string `json:"nome"`
	Sigla string `json:"sigla"`
}

func (p *Potencia) GetID() int64   { return p.ID }
func (p *Potencia) SetID(id int64) { p.ID = id }

func (p *Potencia) Validate() error {
	if len(p.Sigla) > 10 {
		return errors.Wrapf(errors.ErrInvalidRequest, "sigla longer than 10 characters")
	}
	return firstError(required("nome", p.Nome != ""), required("sigla", p.Sigla != ""))
}

type Rito struct {
	ID        int64  `json:"id"`
	Nome      string `json:"nome"`
	Descricao string `json:"descricao,omitempty"`
}

func (r *Rito) GetID() int64   { return r.ID }
func (r *Rito) SetID(id int64) { r.ID = id }

func (r *Rito) Validate() error {
	return required("nome", r.Nome != "")
}

type Grau struct {
	ID        int64  `json:"id"`
	Numero    int    `json:"numero"`
	Descricao string `json:"descricao"`
}

func (g *Grau) GetID() int64   { return g.ID }
func (g *Grau) SetID(id int64) { g.ID = id }

func (g *Grau) Validate() error {
	return firstError(required("numero", g.Numero > 0), required("descricao", g.Descricao != ""))
}

// Sessao is a kind of lodge meeting.
type Sessao struct {
	ID        int64  `json:"id"`
	Descricao string `json:"descricao"`
}

func (s *Sessao) GetID() int64   { return s.ID }
func (s *Sessao) SetID(id int64) { s.ID = id }

func (s *Sessao) Validate() error {
	return required("descricao", s.Descricao != "")
}

// Oriente is the city a lodge works in.
type Oriente struct {
	ID     int64  `json:"id"`
	Nome   string `json:"nome"`
	Cidade string `json:"cidade,omitempty"`
	Estado string `json:"estado,omitempty"`
}

func (o *Oriente) GetID() int64   { return o.ID }
func (o *Oriente) SetID(id int64) { o.ID = id }

func (o *Oriente) Validate() error {
	if o.Estado != "" && len(o.Estado) != 2 {
		return errors.Wrapf(errors.ErrInvalidRequest, "estado must be a two letter code")
	}
	return required("nome", o.Nome != "")
}

type Loja struct {
	ID            int64     `json:"id"`
	Nome          string    `json:"nome"`
	PotenciaID    int64     `json:"potencia_id"`
	NomeOriente   string    `json:"nome_oriente"`
	CidadeOriente string    `json:"cidade_oriente"`
	EstadoOriente string    `json:"estado_oriente"`
	Potencia      *Potencia `json:"potencia,omitempty"`
}

func (l *Loja) GetID() int64   { return l.ID }
func (l *Loja) SetID(id int64) { l.ID = id }

func (l *Loja) Validate() error {
	if l.EstadoOriente != "" && len(l.EstadoOriente) != 2 {
		return errors.Wrapf(errors.ErrInvalidRequest, "estado_oriente must be a two letter code")
	}
	return firstError(
		required("nome", l.Nome != ""),
		required("potencia_id", l.PotenciaID != 0),
		required("nome_oriente", l.NomeOriente != ""),
		required("cidade_oriente", l.CidadeOriente != ""),
		required("estado_oriente", l.EstadoOriente != ""),
	)
}

// Visita records one visit by a member to another lodge.
type Visita struct {
	ID                     int64  `json:"id"`
	DataVisita             Date   `json:"data_visita"`
	LojaID                 int64  `json:"loja_id"`
	SessaoID               int64  `json:"sessao_id"`
	GrauID                 int64  `json:"grau_id"`
	RitoID                 int64  `json:"rito_id"`
	PotenciaID             int64  `json:"potencia_id"`
	PranchaPresenca        bool   `json:"prancha_presenca"`
	PossuiCertificado      bool   `json:"possui_certificado"`
	RegistroLoja           bool   `json:"registro_loja"`
	DataEntregaCertificado Date   `json:"data_entrega_certificado"`
	CertificadoScaniado    bool   `json:"certificado_scaniado"`
	Observacoes            string `json:"observacoes,omitempty"`
	UserID                 int64  `json:"user_id,omitempty"`

	Loja     *Loja     `json:"loja,omitempty"`
	Sessao   *Sessao   `json:"sessao,omitempty"`
	Grau     *Grau     `json:"grau,omitempty"`
	Rito     *Rito     `json:"rito,omitempty"`
	Potencia *Potencia `json:"potencia,omitempty"`
}

func (v *Visita) GetID() int64   { return v.ID }
func (v *Visita) SetID(id int64) { v.ID = id }

func (v *Visita) Validate() error {
	return firstError(
		required("data_visita", !v.DataVisita.IsZero()),
		required("loja_id", v.LojaID != 0),
		required("sessao_id", v.SessaoID != 0),
		required("grau_id", v.GrauID != 0),
		required("rito_id", v.RitoID != 0),
		required("potencia_id", v.PotenciaID != 0),
	)
}
