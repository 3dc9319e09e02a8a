package product

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service domain.ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
	}
}

// --- Funções Auxiliares ---

// handleServiceResponse processa erros de serviço e envia respostas no
// envelope padrão da API: todo corpo carrega o indicador booleano `state`.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	w.Header().Set("Content-Type", "application/json")

	if err == nil {
		w.WriteHeader(successStatus)
		if encodeErr := json.NewEncoder(w).Encode(domain.APIResponse{State: true, Data: data}); encodeErr != nil {
			h.Logger.Error("Falha ao codificar JSON de resposta", encodeErr)
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	// Apenas falhas de servidor são operacionais; o resto é desfecho esperado.
	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"state":    false,
		"code":     status,
		"category": category,
		"message":  message,
	})
}

// productIDFromPath extrai o identificador numérico do último segmento da URL.
func productIDFromPath(path string) (int64, error) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	last := segments[len(segments)-1]
	if last == "" {
		return 0, fmt.Errorf("ID ausente")
	}

	id, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ID não numérico: %q", last)
	}
	return id, nil
}

// logAuthenticatedCaller registra quem está executando a mutação.
func (h *Handler) logAuthenticatedCaller(r *http.Request, operation string) {
	if claims, ok := middleware.GetUserClaimsFromContext(r.Context()); ok {
		h.Logger.Debug("Operação autenticada de produto.", map[string]interface{}{
			"operation": operation,
			"user_id":   claims.UserID,
			"role":      claims.Role,
		})
	}
}

// --- Handlers de Produto ---

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista todos os produtos
// @Description Retorna todos os produtos armazenados, de todas as categorias.
// @Tags products
// @Produce json
// @Success 200 {object} domain.APIResponse "Lista de produtos"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := h.Service.ListProducts(r.Context())
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Busca um produto pelo ID
// @Description Retorna o produto com o identificador numérico informado.
// @Tags products
// @Produce json
// @Param id path int true "ID numérico do produto"
// @Success 200 {object} domain.APIResponse "Produto encontrado"
// @Failure 400 {object} domain.ErrorResponse "ID inválido"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := productIDFromPath(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID do produto deve ser um inteiro."), http.StatusOK)
		return
	}

	product, svcErr := h.Service.GetProductByID(r.Context(), id)
	h.handleServiceResponse(w, r, product, svcErr, http.StatusOK)
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um novo produto
// @Description Cria um produto de uma das quatro categorias (1=eletrônicos, 2=alimentos, 3=automotivos, 4=vestuário), validando os campos obrigatórios da variante.
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.Product true "Payload do produto (campos da variante conforme numberCategory)"
// @Success 201 {object} domain.APIResponse "Produto criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido ou campos de variante ausentes"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Failure 409 {object} domain.ErrorResponse "ID de produto já existente"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logAuthenticatedCaller(r, "create")

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	newProduct, err := h.Service.CreateProduct(r.Context(), product)
	h.handleServiceResponse(w, r, newProduct, err, http.StatusCreated)
}

// UpdateProductHandler lida com a requisição PUT /v1/products/{id}.
// @Summary Atualiza um produto existente
// @Description Substitui integralmente os campos do produto pela nova instância resolvida do payload (replace, não merge).
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "ID numérico do produto"
// @Param product body domain.Product true "Novo payload do produto"
// @Success 201 {object} domain.APIResponse "Produto atualizado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logAuthenticatedCaller(r, "update")

	id, err := productIDFromPath(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID do produto deve ser um inteiro."), http.StatusCreated)
		return
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	updated, svcErr := h.Service.UpdateProduct(r.Context(), id, product)
	h.handleServiceResponse(w, r, updated, svcErr, http.StatusCreated)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Exclui um produto
// @Description Remove o produto e retorna o reconhecimento com a contagem de registros removidos.
// @Tags products
// @Produce json
// @Param id path int true "ID numérico do produto"
// @Success 200 {object} domain.APIResponse "Produto excluído"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logAuthenticatedCaller(r, "delete")

	id, err := productIDFromPath(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID do produto deve ser um inteiro."), http.StatusOK)
		return
	}

	result, svcErr := h.Service.DeleteProduct(r.Context(), id)
	h.handleServiceResponse(w, r, result, svcErr, http.StatusOK)
}

// RestockProductHandler lida com a requisição PUT /v1/products/provider/{id}.
// @Summary Repõe o estoque de um produto
// @Description Soma nStock ao estoque do produto em uma única operação atômica no banco.
// @Tags stock
// @Accept json
// @Produce json
// @Param id path int true "ID numérico do produto"
// @Param adjustment body domain.RestockRequest true "Quantidade a repor (nStock > 0)"
// @Success 201 {object} domain.APIResponse "Estoque atualizado"
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products/provider/{id} [put]
func (h *Handler) RestockProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logAuthenticatedCaller(r, "restock")

	id, err := productIDFromPath(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID do produto deve ser um inteiro."), http.StatusCreated)
		return
	}

	var req domain.RestockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	product, svcErr := h.Service.RestockProduct(r.Context(), id, req.NStock)
	h.handleServiceResponse(w, r, product, svcErr, http.StatusCreated)
}

// SellProductHandler lida com a requisição PUT /v1/products/sell/{id}.
// @Summary Vende unidades de um produto
// @Description Subtrai sStock do estoque respeitando o piso mínimo de 5 unidades; a checagem e a escrita são atômicas no banco.
// @Tags stock
// @Accept json
// @Produce json
// @Param id path int true "ID numérico do produto"
// @Param sale body domain.SellRequest true "Quantidade a vender (sStock > 0)"
// @Success 201 {object} domain.APIResponse "Venda aplicada"
// @Failure 400 {object} domain.ErrorResponse "Quantidade inválida ou estoque resultante abaixo do piso"
// @Failure 401 {object} domain.ErrorResponse "Não autorizado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /products/sell/{id} [put]
func (h *Handler) SellProductHandler(w http.ResponseWriter, r *http.Request) {
	h.logAuthenticatedCaller(r, "sell")

	id, err := productIDFromPath(r.URL.Path)
	if err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("O ID do produto deve ser um inteiro."), http.StatusCreated)
		return
	}

	var req domain.SellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), http.StatusCreated)
		return
	}

	product, svcErr := h.Service.SellProduct(r.Context(), id, req.SStock)
	h.handleServiceResponse(w, r, product, svcErr, http.StatusCreated)
}
