package devserver

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-visitas/internal/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, err)
			return
		}
		login := req.Username
		if login == "" {
			login = req.Email
		}
		session, err := s.accounts.Login(login, req.Password)
		if err != nil {
			if errors.Is(err, errors.ErrMissingField) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			s.logger.Info().Str("login", login).Msg("failed login")
			writeFailure(w, err)
			return
		}
		s.logger.Info().Int64("user_id", session.User.ID).Msg("user logged in")
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reg Registration
		if err := decodeJSON(r, &reg); err != nil {
			writeFailure(w, err)
			return
		}
		reg.IsAdmin = false
		user, err := s.accounts.Register(reg)
		if err != nil {
			if errors.Is(err, errors.ErrMissingField) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeFailure(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "user created",
			"user":    user,
		})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshHandler takes the refresh token as bearer, or as refresh_token in
// the body.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := bearerToken(r)
		if refreshToken == "" && r.ContentLength != 0 {
			var req refreshRequest
			if err := decodeJSON(r, &req); err == nil {
				refreshToken = req.RefreshToken
			}
		}
		session, err := s.accounts.Refresh(refreshToken)
		if err != nil {
			s.logger.Debug().Err(err).Msg("refresh rejected")
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, session)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFrom(r.Context()))
	}
}

func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{
			"valid": true,
			"user":  userFrom(r.Context()),
		}
		if claims := claimsFrom(r.Context()); claims != nil && claims.ExpiresAt != nil {
			body["expires_at"] = claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, body)
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeFailure(w, err)
			return
		}
		err := s.accounts.ChangePassword(userFrom(r.Context()).ID, req.CurrentPassword, req.NewPassword)
		switch {
		case err == nil:
			writeMessage(w, http.StatusOK, "password changed")
		case errors.Is(err, errors.ErrInvalidCredentials):
			// A 401 here would send the client into a token refresh.
			writeError(w, http.StatusBadRequest, "current password is incorrect")
		case errors.Is(err, errors.ErrMissingField):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeFailure(w, err)
		}
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if err := s.accounts.Logout(accessTokenFrom(r.Context()), user.ID); err != nil {
			writeFailure(w, err)
			return
		}
		s.logger.Info().Int64("user_id", user.ID).Msg("user logged out")
		writeMessage(w, http.StatusOK, "logged out")
	}
}

// PreflightHandler answers OPTIONS requests that carry no Origin; the CORS
// middleware answers the rest.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
