package devserver

// RoutePrefix is where the API is mounted; clients use http://host/api as base URL.
const RoutePrefix = "/api"

// Route paths, relative to RoutePrefix.
const (
	// Auth routes
	RouteAuthLogin          = "/auth/login"
	RouteAuthRegister       = "/auth/register"
	RouteAuthRefresh        = "/auth/refresh"
	RouteAuthMe             = "/auth/me"
	RouteAuthVerify         = "/auth/verify"
	RouteAuthChangePassword = "/auth/change-password"
	RouteAuthLogout         = "/auth/logout"

	// Resource routes
	RoutePotencias = "/potencias"
	RouteRitos     = "/ritos"
	RouteGraus     = "/graus"
	RouteLojas     = "/lojas"
	RouteSessoes   = "/sessoes"
	RouteVisitas   = "/visitas"
	RouteOrientes  = "/orientes"

	RouteHealth = "/health"
)
