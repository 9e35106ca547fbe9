package config

import (
	"strconv"
	"strings"
	"time"
)

const (
	jwtSecretVar          = "JWT_SECRET"
	issuerVar             = "JWT_ISSUER"
	accessTokenExpiryVar  = "ACCESS_TOKEN_EXPIRY"
	refreshTokenExpiryVar = "REFRESH_TOKEN_EXPIRY"
	refreshTokenLengthVar = "REFRESH_TOKEN_LENGTH"
	allowedOriginsVar     = "ALLOWED_ORIGINS"
	adminUsernameVar      = "ADMIN_USERNAME"
	adminPasswordVar      = "ADMIN_PASSWORD"
)

type Server struct {
	lookup
}

var _ ServerConfig = Server{}

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	return strings.Join(origins, ", ")
}

func (s Server) GetJWTSecret() string {
	return s.get(jwtSecretVar, "dev-secret-change-me")
}

func (s Server) GetIssuer() string {
	return s.get(issuerVar, "visitas")
}

func (s Server) GetAccessTokenExpiry() time.Duration {
	return s.duration(accessTokenExpiryVar, 15*time.Minute)
}

func (s Server) GetRefreshTokenExpiry() time.Duration {
	return s.duration(refreshTokenExpiryVar, 7*24*time.Hour)
}

func (s Server) GetRefreshTokenLength() int {
	n, err := strconv.Atoi(s.get(refreshTokenLengthVar, ""))
	if err != nil || n < 16 {
		return 32 // 32 bytes = 256 bits
	}
	return n
}

// GetAllowedOrigins parses a comma separated ALLOWED_ORIGINS list.
func (s Server) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(s.get(allowedOriginsVar, "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (Server) GetAllowedMethods() string {
	return "GET, POST, PUT, DELETE"
}

func (Server) GetAllowedHeaders() string {
	return "Content-Type, Accept, Authorization"
}

func (s Server) GetAdminUsername() string {
	return s.get(adminUsernameVar, "admin")
}

// GetAdminPassword returns ADMIN_PASSWORD. When empty the server generates one
// at start up and logs it.
func (s Server) GetAdminPassword() string {
	return s.get(adminPasswordVar, "")
}
