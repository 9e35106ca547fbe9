package devserver

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/jrsteele09/go-visitas/resources"
	"github.com/jrsteele09/go-visitas/users"
)

// InitialiseSystem creates the admin user and, when enabled, the reference data.
func (s *Server) InitialiseSystem() error {
	username := s.config.GetAdminUsername()
	generatedPassword, err := s.createAdmin(username, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[devserver InitialiseSystem] failed to bootstrap admin: %w", err)
	}
	if generatedPassword != "" {
		s.logger.Warn().
			Str("username", username).
			Str("password", generatedPassword).
			Msg("generated admin credentials, set ADMIN_PASSWORD to choose your own")
	}

	if s.seedData {
		s.seedReferenceData()
	}
	return nil
}

// createAdmin creates the admin user if it doesn't exist. It returns the
// password only when one had to be generated.
func (s *Server) createAdmin(username, password string) (generatedPassword string, err error) {
	if existing, err := s.users.GetByUsername(username); err == nil && existing != nil {
		if !existing.IsAdmin {
			return "", fmt.Errorf("[devserver createAdmin] user %q exists but is not an admin", username)
		}
		return "", nil
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("[devserver createAdmin] failed to generate password: %w", err)
		}
		// The suffix keeps the generated password within the strength rules.
		password = base64.RawURLEncoding.EncodeToString(passwordBytes) + "aA1!"
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("[devserver createAdmin] failed to hash password: %w", err)
	}
	admin := &users.User{
		Username:     username,
		Name:         "Administrador",
		Email:        username + "@visitas.local",
		IsAdmin:      true,
		PasswordHash: passwordHash,
		DateJoined:   time.Now().UTC(),
	}
	if err := s.users.Upsert(admin); err != nil {
		return "", fmt.Errorf("[devserver createAdmin] failed to create admin: %w", err)
	}
	return generatedPassword, nil
}

func (s *Server) seedReferenceData() {
	d := s.data
	for i, descricao := range []string{"Aprendiz", "Companheiro", "Mestre"} {
		d.graus.Insert(&resources.Grau{Numero: i + 1, Descricao: descricao})
	}
	for _, nome := range []string{"Rito Escocês Antigo e Aceito", "Rito de York", "Rito Moderno", "Rito Brasileiro"} {
		d.ritos.Insert(&resources.Rito{Nome: nome})
	}
	for _, descricao := range []string{"Ordinária", "Magna", "Iniciação", "Elevação", "Exaltação"} {
		d.sessoes.Insert(&resources.Sessao{Descricao: descricao})
	}
	d.potencias.Insert(&resources.Potencia{Nome: "Grande Oriente do Brasil", Sigla: "GOB"})
	d.potencias.Insert(&resources.Potencia{Nome: "Confederação da Maçonaria Simbólica do Brasil", Sigla: "CMSB"})
	d.potencias.Insert(&resources.Potencia{Nome: "Confederação Maçônica do Brasil", Sigla: "COMAB"})
	s.logger.Info().Msg("seeded reference data")
}
