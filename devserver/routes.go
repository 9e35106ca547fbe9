package devserver

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RoutePrefix+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Public auth routes
	s.RegisterRouteHandler("POST "+RoutePrefix+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePrefix+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePrefix+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))

	// Auth routes requiring an access token
	s.RegisterRouteHandler("GET "+RoutePrefix+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("GET "+RoutePrefix+RouteAuthVerify, ChainMiddleware(s.VerifyHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("POST "+RoutePrefix+RouteAuthChangePassword, ChainMiddleware(s.ChangePasswordHandler(), s.APIMiddleware(s.RequireAuth)...))
	s.RegisterRouteHandler("POST "+RoutePrefix+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth)...))

	s.registerResources()

	// CORS preflight for every API route
	s.RegisterRouteHandler("OPTIONS "+RoutePrefix+"/", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))
}
