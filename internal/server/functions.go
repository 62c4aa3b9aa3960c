package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/nt8816/bibliotecai-core/internal/invite"
)

// missingConfigMessage is returned when the handler has no provisioning
// service behind it.
const missingConfigMessage = "Configuração incompleta no servidor"

// functionsHandler serves the invite redemption endpoints. These predate the
// /api/v1 surface and keep their original envelope: {success, ...} with the
// error string rendered directly to the submitting form, so the messages are
// user-facing Portuguese.
type functionsHandler struct {
	invites *invite.Service
}

func newFunctionsHandler(invites *invite.Service) *functionsHandler {
	return &functionsHandler{invites: invites}
}

type redeemRequest struct {
	Token     string `json:"token"`
	Nome      string `json:"nome"`
	Email     string `json:"email"`
	Senha     string `json:"senha"`
	Matricula string `json:"matricula"`
}

type redeemResponse struct {
	Success      bool   `json:"success"`
	Role         string `json:"role,omitempty"`
	AuthEmail    string `json:"auth_email,omitempty"`
	AuthPassword string `json:"auth_password,omitempty"`
}

type adminRedeemResponse struct {
	Success         bool   `json:"success"`
	Email           string `json:"email,omitempty"`
	Role            string `json:"role,omitempty"`
	TenantSubdomain string `json:"tenant_subdomain,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *functionsHandler) redeemInvite(w http.ResponseWriter, r *http.Request) {
	if h.invites == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: missingConfigMessage})
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Requisição inválida"})
		return
	}

	res, err := h.invites.Redeem(r.Context(), invite.RedeemInput{
		Token:     req.Token,
		Name:      req.Nome,
		Email:     req.Email,
		Password:  req.Senha,
		Matricula: req.Matricula,
	})
	if err != nil {
		status, msg := redemptionError(err)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		Success:      true,
		Role:         string(res.Role),
		AuthEmail:    res.AuthEmail,
		AuthPassword: res.AuthPassword,
	})
}

func (h *functionsHandler) redeemAdminInvite(w http.ResponseWriter, r *http.Request) {
	if h.invites == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: missingConfigMessage})
		return
	}

	var req redeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Requisição inválida"})
		return
	}

	res, err := h.invites.RedeemAdmin(r.Context(), invite.AdminRedeemInput{
		Token:    req.Token,
		Name:     req.Nome,
		Email:    req.Email,
		Password: req.Senha,
	})
	if err != nil {
		status, msg := redemptionError(err)
		writeJSON(w, status, errorResponse{Error: msg})
		return
	}

	writeJSON(w, http.StatusOK, adminRedeemResponse{
		Success:         true,
		Email:           res.Email,
		Role:            string(res.Role),
		TenantSubdomain: res.TenantSubdomain,
	})
}

// redemptionError maps service errors to status and user-facing message.
// Validation and token problems are the caller's to fix (400); provisioning
// failures are ours (500).
func redemptionError(err error) (int, string) {
	switch {
	case errors.Is(err, invite.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, "Convite inválido ou expirado"
	case errors.Is(err, invite.ErrRoleNotAllowed):
		return http.StatusBadRequest, "Papel não permitido para este convite"
	case errors.Is(err, invite.ErrIncompleteCredentials):
		return http.StatusBadRequest, "Credenciais incompletas"
	case errors.Is(err, invite.ErrWeakCredential):
		return http.StatusBadRequest, "A credencial deve ter pelo menos 6 caracteres"
	case errors.Is(err, invite.ErrMatriculaAlreadyLinked):
		return http.StatusBadRequest, "Matrícula já vinculada a outra conta"
	case errors.Is(err, invite.ErrIdentityCreationFailed):
		return http.StatusInternalServerError, "Falha ao criar a conta de acesso"
	case errors.Is(err, invite.ErrRoleAssignmentFailed):
		return http.StatusInternalServerError, "Falha ao atribuir o papel"
	case errors.Is(err, invite.ErrProfileProvisioningFailed):
		return http.StatusInternalServerError, "Falha ao provisionar o perfil"
	default:
		log.Error().Err(err).Msg("functions: unexpected redemption error")
		return http.StatusInternalServerError, "Erro inesperado"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("functions: write response")
	}
}
