package router

import (
	"encoding/json"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"gocatalog/config"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/user"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/middleware"
)

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências.
//
// Usamos o ServeMux padrão do net/http. As leituras de produto são
// públicas; toda mutação exige um token bearer válido, então o
// despacho por método acontece aqui, antes do middleware de auth.
func NewRouter(productHandler *product.Handler, userHandler *user.Handler, tokenSvc middleware.TokenService, cacheClient cache.Client, cfg *config.Config) http.Handler {

	mux := http.NewServeMux()
	requireAuth := middleware.NewAuthMiddleware(tokenSvc)

	// --- 1. Rotas de Health Check ---
	mux.HandleFunc("/ping", PingHandler)

	// --- 2. Rotas de Autenticação (v1) ---
	mux.HandleFunc("/v1/register", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		userHandler.RegisterUserHandler(w, r)
	})

	mux.HandleFunc("/v1/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeMethodNotAllowed(w)
			return
		}
		userHandler.LoginUserHandler(w, r)
	})

	// --- 3. Rotas do Módulo de Produtos (v1) ---

	// Coleção: GET é público, POST exige token.
	mux.HandleFunc("/v1/products", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			productHandler.ListProductsHandler(w, r)
		case http.MethodPost:
			requireAuth(productHandler.CreateProductHandler)(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	})

	// Ajustes de estoque. O ServeMux casa pelo prefixo mais longo, então
	// provider/ e sell/ vencem o registro genérico de /v1/products/.
	mux.HandleFunc("/v1/products/provider/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		requireAuth(productHandler.RestockProductHandler)(w, r)
	})

	mux.HandleFunc("/v1/products/sell/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			writeMethodNotAllowed(w)
			return
		}
		requireAuth(productHandler.SellProductHandler)(w, r)
	})

	// Item individual: GET é público, PUT e DELETE exigem token.
	mux.HandleFunc("/v1/products/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			productHandler.GetProductByIDHandler(w, r)
		case http.MethodPut:
			requireAuth(productHandler.UpdateProductHandler)(w, r)
		case http.MethodDelete:
			requireAuth(productHandler.DeleteProductHandler)(w, r)
		default:
			writeMethodNotAllowed(w)
		}
	})

	// --- 4. Documentação (Swagger UI) ---
	mux.Handle("/swagger/", httpSwagger.Handler())

	// --- 5. Middlewares Globais ---
	rateLimited := middleware.RateLimiter(cacheClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod)(mux)

	return rateLimited
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}

// writeMethodNotAllowed responde 405 no envelope padrão da API.
func writeMethodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"state":    false,
		"code":     http.StatusMethodNotAllowed,
		"category": "METHOD_NOT_ALLOWED",
		"message":  "Método não permitido para esta rota.",
	})
}
