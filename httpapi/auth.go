package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tallpine/shopcore"
	"github.com/tallpine/shopcore/internal/audit"
	"github.com/tallpine/shopcore/internal/store"
	"github.com/tallpine/shopcore/token"
)

// ErrInvalidCredentials covers both unknown usernames and wrong passwords,
// so responses do not reveal which one failed.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", shopcore.ErrAuthentication)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request, _ []string) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		a.writeError(w, r, fmt.Errorf("%w: username and password are required", shopcore.ErrValidation))
		return
	}

	user, err := a.users.FindUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			a.loginFailure(w, r, req.Username)
			return
		}
		a.writeError(w, r, err)
		return
	}
	ok, err := a.passwords.Verify(req.Password, user.PasswordHash)
	if err != nil || !ok {
		a.loginFailure(w, r, req.Username)
		return
	}

	pair, err := a.issuePair(user)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, pair)
}

func (a *API) loginFailure(w http.ResponseWriter, r *http.Request, username string) {
	a.metrics.ObserveAuthFailure()
	a.emitAudit(r, audit.Event{
		EventType: audit.EventAuthFailure,
		Error:     "invalid credentials",
		Metadata:  map[string]string{"username": username},
	})
	a.writeError(w, r, ErrInvalidCredentials)
}

// handleRefresh exchanges a valid refresh token for a fresh access token.
// Identity claims are re-read from storage, so a role change takes effect
// on the next refresh.
func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request, _ []string) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		a.writeError(w, r, fmt.Errorf("%w: refresh_token is required", shopcore.ErrValidation))
		return
	}

	claims, err := a.tokens.Decode(req.RefreshToken)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if claims.TokenType != token.TypeRefresh {
		a.writeError(w, r, token.ErrWrongTokenType)
		return
	}
	subjectID, err := claims.SubjectID()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	user, err := a.users.FindUserByID(r.Context(), subjectID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			a.writeError(w, r, ErrInvalidCredentials)
			return
		}
		a.writeError(w, r, err)
		return
	}

	access, err := a.tokens.IssueAccess(user.ID, user.Username, user.Admin)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, tokenPair{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(a.tokens.AccessTTL().Seconds()),
	})
}

func (a *API) issuePair(user *store.User) (tokenPair, error) {
	access, err := a.tokens.IssueAccess(user.ID, user.Username, user.Admin)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := a.tokens.IssueRefresh(user.ID)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(a.tokens.AccessTTL().Seconds()),
	}, nil
}
