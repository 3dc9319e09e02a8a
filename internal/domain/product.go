package domain

import (
	"context"
	"time"
)

// Códigos numéricos de categoria que discriminam a variante de um produto.
const (
	CategoryElectronics = 1
	CategoryFood        = 2
	CategoryAutomotive  = 3
	CategoryClothing    = 4
)

// Valores padrão aplicados quando o payload omite campos opcionais.
const (
	DefaultDescription    = "no description"
	DefaultStock          = 50
	DefaultWarrantyYears  = 2
	DefaultExpirationDays = 30
	DefaultFlavor         = "Original"
)

// MinStockLevel é o piso de estoque: uma venda nunca pode deixar o estoque
// abaixo deste valor.
const MinStockLevel = 5

// Product representa um item do catálogo (a Entidade).
// Os campos base são comuns a todas as categorias; os campos de variante são
// preenchidos conforme o NumberCategory (exatamente uma variante por produto,
// garantida pelo resolvedor no serviço).
type Product struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	NumberCategory int       `json:"numberCategory"`
	Price          float64   `json:"price"`
	Stock          int       `json:"stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Eletrônicos (1)
	Features []string `json:"features,omitempty"`

	// WarrantyYears é compartilhado por Eletrônicos (1) e Automotivo (3).
	WarrantyYears int `json:"warrantyYears,omitempty"`

	// Alimentos (2)
	Ingredients    []string `json:"ingredients,omitempty"`
	WeightOrVolume string   `json:"weightOrVolume,omitempty"`
	Flavors        []string `json:"flavors,omitempty"`
	ExpirationDays int      `json:"expirationDays,omitempty"`

	// Automotivo (3)
	Specs     map[string]string `json:"specs,omitempty"`
	ModelYear int               `json:"modelYear,omitempty"`

	// Vestuário (4)
	SizesAvailable []string `json:"sizesAvailable,omitempty"`
	Colors         []string `json:"colors,omitempty"`
	Material       string   `json:"material,omitempty"`
}

// RestockRequest é o payload de PUT /v1/products/provider/{id}.
type RestockRequest struct {
	NStock int `json:"nStock"`
}

// SellRequest é o payload de PUT /v1/products/sell/{id}.
type SellRequest struct {
	SStock int `json:"sStock"`
}

// DeletionResult é o retorno da exclusão de um produto.
type DeletionResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// --- Interfaces de Contrato ---

// ProductService define o que a camada de API pode pedir à camada de Serviço.
type ProductService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProductByID(ctx context.Context, id int64) (Product, error)
	CreateProduct(ctx context.Context, product Product) (Product, error)
	UpdateProduct(ctx context.Context, id int64, product Product) (Product, error)
	DeleteProduct(ctx context.Context, id int64) (DeletionResult, error)
	RestockProduct(ctx context.Context, id int64, quantity int) (Product, error)
	SellProduct(ctx context.Context, id int64, quantity int) (Product, error)
}

// ProductRepository define o que a camada de Serviço pode pedir à Persistência.
// As operações de estoque são condicionais e atômicas no próprio banco: o
// serviço nunca faz read-then-write de estoque em código de aplicação.
type ProductRepository interface {
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	FindAll(ctx context.Context) ([]Product, error)
	Replace(ctx context.Context, product Product) (Product, error)
	Delete(ctx context.Context, id int64) (int64, error)
	IncrementStock(ctx context.Context, id int64, quantity int) (Product, error)
	DecrementStockIfAbove(ctx context.Context, id int64, quantity, floor int) (Product, error)
}
