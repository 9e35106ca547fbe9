// Package devserver is a reference visitas backend. It implements the /auth
// endpoints and the resource CRUD the client consumes, keeps everything in
// memory and exposes hooks that let tests expire or revoke tokens.
package devserver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/jrsteele09/go-visitas/internal/config"
	"github.com/jrsteele09/go-visitas/resources"
	"github.com/jrsteele09/go-visitas/token"
	"github.com/jrsteele09/go-visitas/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-visitas/token/refresh/repofake"
	"github.com/jrsteele09/go-visitas/users"
	fakeuserrepo "github.com/jrsteele09/go-visitas/users/repofake"
	"github.com/rs/zerolog"
)

const envDevelopment = "DEV"

type tables struct {
	potencias *Table[resources.Potencia, *resources.Potencia]
	ritos     *Table[resources.Rito, *resources.Rito]
	graus     *Table[resources.Grau, *resources.Grau]
	sessoes   *Table[resources.Sessao, *resources.Sessao]
	orientes  *Table[resources.Oriente, *resources.Oriente]
	lojas     *Table[resources.Loja, *resources.Loja]
	visitas   *Table[resources.Visita, *resources.Visita]
}

func newTables() *tables {
	return &tables{
		potencias: NewTable[resources.Potencia](),
		ritos:     NewTable[resources.Rito](),
		graus:     NewTable[resources.Grau](),
		sessoes:   NewTable[resources.Sessao](),
		orientes:  NewTable[resources.Oriente](),
		lojas:     NewTable[resources.Loja](),
		visitas:   NewTable[resources.Visita](),
	}
}

type Server struct {
	env      string // Environment (e.g., "DEV", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	logger   zerolog.Logger
	routeOut io.Writer

	users         users.UserRepo
	refreshTokens refresh.Repo
	tokens        *token.Manager
	refresh       *refresh.Manager
	accounts      *Accounts
	data          *tables
	seedData      bool

	countLock sync.Mutex
	counts    map[string]int
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithUserRepo replaces the in-memory user store.
func WithUserRepo(repo users.UserRepo) Option {
	return func(s *Server) {
		s.users = repo
	}
}

// WithRefreshTokenRepo replaces the in-memory refresh token store.
func WithRefreshTokenRepo(repo refresh.Repo) Option {
	return func(s *Server) {
		s.refreshTokens = repo
	}
}

// WithReferenceData seeds potencias, ritos, graus and sessoes at start up.
func WithReferenceData() Option {
	return func(s *Server) {
		s.seedData = true
	}
}

// WithRouteOutput sets where the route table and per request lines are printed
// in the DEV environment. Defaults to stdout.
func WithRouteOutput(w io.Writer) Option {
	return func(s *Server) {
		s.routeOut = w
	}
}

func New(cfg config.Config, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("[devserver New] config is required")
	}
	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		logger:   zerolog.Nop(),
		routeOut: os.Stdout,
		data:     newTables(),
		counts:   make(map[string]int),
	}
	for _, option := range options {
		option(s)
	}
	if s.users == nil {
		s.users = fakeuserrepo.NewFakeUserRepo()
	}
	if s.refreshTokens == nil {
		s.refreshTokens = refreshrepofake.NewFakeRefreshTokenRepo()
	}

	signer, err := token.NewHMACSigner(cfg.GetJWTSecret())
	if err != nil {
		return nil, fmt.Errorf("[devserver New] %w", err)
	}
	s.tokens, err = token.New(signer,
		token.WithIssuer(cfg.GetIssuer()),
		token.WithAccessTokenExpiry(cfg.GetAccessTokenExpiry()),
	)
	if err != nil {
		return nil, fmt.Errorf("[devserver New] failed to create token manager: %w", err)
	}
	s.refresh = refresh.NewManager(s.refreshTokens, cfg)
	s.accounts, err = NewAccounts(s.users, s.tokens, s.refresh)
	if err != nil {
		return nil, fmt.Errorf("[devserver New] %w", err)
	}

	if err := s.InitialiseSystem(); err != nil {
		return nil, fmt.Errorf("[devserver New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Accounts exposes the account service, mainly so tests can create users.
func (s *Server) Accounts() *Accounts {
	return s.accounts
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != envDevelopment {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	fmt.Fprintf(s.routeOut, "[%s] %s\n", methodColor(method).Sprint(paddedMethod), pathColor.Sprint(path))
}
