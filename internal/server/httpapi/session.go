package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/credkeeper/internal/server/services"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Pin:      req.Pin,
		Avatar:   req.Avatar,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens.RefreshToken)
	writeJSON(w, http.StatusCreated, registerResponse{
		ID:           res.ID,
		Username:     res.Username,
		Email:        res.Email,
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		PinVerified:  res.PinVerified,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens.RefreshToken)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:          res.ID,
		Username:    res.Username,
		Role:        "user",
		AccessToken: res.Tokens.AccessToken,
		PinVerified: res.PinVerified,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), bearerToken(r), refreshCookie(r)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Refresh takes the refresh token from the cookie, or from the body for
// clients that do not keep cookies.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshCookie(r)
	if token == "" {
		var req refreshRequest
		if err := h.decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	pair, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: pair.AccessToken, ExpiresAt: pair.AccessTokenExpiresAt})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := h.auth.Me(r.Context(), accountFrom(r.Context()))
	writeJSON(w, http.StatusOK, profileResponse{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		PendingEmail: p.PendingEmail,
		Verified:     p.Verified,
		IsActive:     p.IsActive,
		HasPin:       p.HasPin,
		PinVerified:  p.PinVerified,
		Avatar:       p.Avatar,
		CreatedAt:    p.CreatedAt,
	})
}
