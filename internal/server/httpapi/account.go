package httpapi

import "net/http"

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), accountFrom(r.Context()).ID, req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Password changed successfully")
}

// RequestPasswordReset answers the same way whether or not the email is
// known.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.auth.RequestPasswordReset(r.Context(), req.Email)
	writeMessage(w, "If that email exists, you'll get a link shortly.")
}

func (h *Handler) CheckPasswordReset(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.CheckPasswordReset(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Token is valid")
}

func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirmRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Password reset successful")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	res, err := h.auth.VerifyEmail(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if res.AlreadyVerified {
		writeMessage(w, "Email already verified.")
		return
	}
	writeMessage(w, "Email successfully verified.")
}

func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ResendVerification(r.Context(), accountFrom(r.Context()).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Verification email resent. Please check your inbox.")
}

func (h *Handler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req changeEmailRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.ChangeEmail(r.Context(), accountFrom(r.Context()).ID, req.NewEmail); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Verification email sent to your new address. Please click the link to confirm.")
}

func (h *Handler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.ConfirmEmailChange(r.Context(), r.URL.Query().Get("token")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Email successfully updated.")
}

func (h *Handler) CancelPendingEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.CancelPendingEmail(r.Context(), accountFrom(r.Context()).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Pending email change canceled.")
}

func (h *Handler) SetPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.SetPin(r.Context(), accountFrom(r.Context()).ID, req.Pin); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "PIN set successfully")
}

func (h *Handler) VerifyPin(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.VerifyPin(r.Context(), accountFrom(r.Context()).ID, req.Pin); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) ChangePin(w http.ResponseWriter, r *http.Request) {
	var req changePinRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.auth.ChangePin(r.Context(), accountFrom(r.Context()).ID, req.OldPin, req.NewPin); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "PIN changed successfully")
}
