package user

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// Handler agrupa os métodos de Handler de usuários e autenticação.
type Handler struct {
	Service domain.UserService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler de usuários.
func NewHandler(svc domain.UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// loginRequest é o payload de POST /v1/login.
type loginRequest struct {
	Email    string `json:"email" example:"admin@catalogo.com"`
	Password string `json:"password" example:"senha-forte"`
}

// loginResponse carrega o token emitido em caso de sucesso.
type loginResponse struct {
	State bool   `json:"state" example:"true"`
	Token string `json:"token" example:"eyJhbGciOiJIUzI1NiJ9..."`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"state":    false,
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria a conta com o hash da senha; o email deve ser único.
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Dados de registro"
// @Success 201 {object} domain.APIResponse "Usuário criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Email já em uso"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var registration domain.UserRegistration
	if err := json.NewDecoder(r.Body).Decode(&registration); err != nil {
		h.writeError(w, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	newUser, err := h.Service.Register(r.Context(), registration)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.Logger.Info("Novo usuário registrado.", map[string]interface{}{"user_id": newUser.ID, "email": newUser.Email})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(domain.APIResponse{State: true, Data: newUser})
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário
// @Description Valida email e senha e emite um token bearer com validade de 30 minutos.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Credenciais"
// @Success 200 {object} loginResponse "Token emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais incorretas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."))
		return
	}

	token, err := h.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(loginResponse{State: true, Token: token})
}
