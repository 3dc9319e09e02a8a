package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"gocatalog/internal/domain"
	"gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
)

// Código de erro do PostgreSQL para violação de chave única.
const uniqueViolationCode = "23505"

// Chave de cache para produtos (cache-aside com TTL).
const productCacheKey = "product:%d"

// productColumns é a lista canônica de colunas, na ordem usada por scanProduct.
const productColumns = `id, name, description, category, number_category, price, stock,
       features, warranty_years, ingredients, weight_or_volume, flavors, expiration_days,
       specs, model_year, sizes_available, colors, material, created_at, updated_at`

// ProductRepository implementa a interface domain.ProductRepository.
// Contém as conexões necessárias para acessar dados (PostgreSQL + Redis).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
		logger:    log,
	}
}

// rowScanner cobre *sql.Row e *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProduct mapeia uma linha da tabela products para a struct de domínio.
// Colunas de lista são TEXT[] (pq.Array lida com NULL) e specs é JSONB.
func scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	var specsRaw []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category, &p.NumberCategory, &p.Price, &p.Stock,
		pq.Array(&p.Features), &p.WarrantyYears, pq.Array(&p.Ingredients), &p.WeightOrVolume,
		pq.Array(&p.Flavors), &p.ExpirationDays, &specsRaw, &p.ModelYear,
		pq.Array(&p.SizesAvailable), pq.Array(&p.Colors), &p.Material,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}

	if len(specsRaw) > 0 {
		if err := json.Unmarshal(specsRaw, &p.Specs); err != nil {
			return domain.Product{}, fmt.Errorf("falha ao desserializar specs do produto %d: %w", p.ID, err)
		}
	}

	return p, nil
}

// specsValue serializa o mapa de specs para a coluna JSONB (NULL quando vazio).
func specsValue(specs map[string]string) (interface{}, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	return json.Marshal(specs)
}

// invalidate remove a entrada do produto no cache após qualquer mutação.
func (r *ProductRepository) invalidate(ctx context.Context, id int64) {
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}

// Save persiste um novo Produto no banco de dados.
// Violação da chave única (ID já existente) vira um ConflictError.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Save de produto no repositório.", map[string]interface{}{"product_id": product.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	specs, err := specsValue(product.Specs)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("Falha ao serializar specs do produto.", err)
	}

	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`

	_, err = r.DB.ExecContext(ctxTimeout, query,
		product.ID, product.Name, product.Description, product.Category,
		product.NumberCategory, product.Price, product.Stock,
		pq.Array(product.Features), product.WarrantyYears, pq.Array(product.Ingredients),
		product.WeightOrVolume, pq.Array(product.Flavors), product.ExpirationDays,
		specs, product.ModelYear, pq.Array(product.SizesAvailable), pq.Array(product.Colors),
		product.Material, product.CreatedAt, product.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolationCode {
			r.logger.Warn("Tentativa de criar produto com ID duplicado.", map[string]interface{}{"product_id": product.ID})
			return domain.Product{}, errors.NewConflictError(fmt.Sprintf("Produto com ID %d já existe.", product.ID))
		}
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao criar produto", err)
	}

	r.logger.Info("Produto salvo com sucesso no repositório.", map[string]interface{}{"product_id": product.ID})
	return product, nil
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			// Cache HIT
			return product, nil
		}
		// Se a desserialização falhar, seguimos para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (conexão perdida): logamos e seguimos para o DB.
		r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err = scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado.", map[string]interface{}{"product_id": id})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %d não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Popula o cache para futuras requisições (com TTL)
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

// FindAll busca todos os produtos, na ordem de armazenamento.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	r.logger.Debug("Iniciando FindAll de produtos no repositório.", nil)

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `SELECT ` + productColumns + ` FROM products`

	rows, err := r.DB.QueryContext(ctxTimeout, query)
	if err != nil {
		r.logger.Error("Falha ao executar FindAll de produtos.", err)
		return nil, errors.NewDBError("Falha ao buscar todos os produtos", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("Falha ao mapear produto na iteração de FindAll.", err)
			return nil, errors.NewDBError("Falha ao mapear produtos do DB", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de produtos.", err)
		return nil, errors.NewDBError("Erro após iteração de produtos", err)
	}

	r.logger.Info("FindAll concluído com sucesso.", map[string]interface{}{"total_products": len(products)})
	return products, nil
}

// Replace sobrescreve todos os campos de um produto existente (substituição
// completa, não merge). ID e created_at são preservados.
func (r *ProductRepository) Replace(ctx context.Context, product domain.Product) (domain.Product, error) {
	r.logger.Debug("Iniciando Replace de produto no repositório.", map[string]interface{}{"product_id": product.ID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	product.UpdatedAt = time.Now().UTC()

	specs, err := specsValue(product.Specs)
	if err != nil {
		return domain.Product{}, errors.NewInternalError("Falha ao serializar specs do produto.", err)
	}

	query := `
        UPDATE products
        SET name = $2, description = $3, category = $4, number_category = $5,
            price = $6, stock = $7, features = $8, warranty_years = $9,
            ingredients = $10, weight_or_volume = $11, flavors = $12,
            expiration_days = $13, specs = $14, model_year = $15,
            sizes_available = $16, colors = $17, material = $18, updated_at = $19
        WHERE id = $1
        RETURNING ` + productColumns

	updated, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query,
		product.ID, product.Name, product.Description, product.Category,
		product.NumberCategory, product.Price, product.Stock,
		pq.Array(product.Features), product.WarrantyYears, pq.Array(product.Ingredients),
		product.WeightOrVolume, pq.Array(product.Flavors), product.ExpirationDays,
		specs, product.ModelYear, pq.Array(product.SizesAvailable), pq.Array(product.Colors),
		product.Material, product.UpdatedAt,
	))

	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado para atualização.", map[string]interface{}{"product_id": product.ID})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado para atualização.", product.ID))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao atualizar produto", err)
	}

	r.invalidate(ctxTimeout, product.ID)
	r.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"product_id": product.ID})
	return updated, nil
}

// Delete remove um produto pelo ID e retorna o número de registros removidos (0 ou 1).
func (r *ProductRepository) Delete(ctx context.Context, id int64) (int64, error) {
	r.logger.Debug("Iniciando Delete de produto no repositório.", map[string]interface{}{"product_id": id})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto do DB.", err)
		return 0, errors.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após Delete.", err)
		return 0, errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}

	if rowsAffected == 0 {
		r.logger.Info("Produto não encontrado para exclusão.", map[string]interface{}{"product_id": id})
		return 0, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado para exclusão.", id))
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"product_id": id})
	return rowsAffected, nil
}

// IncrementStock soma quantity ao estoque do produto em um único UPDATE atômico.
func (r *ProductRepository) IncrementStock(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	r.logger.Debug("Iniciando IncrementStock no repositório.", map[string]interface{}{"product_id": id, "quantity": quantity})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE products
        SET stock = stock + $2, updated_at = $3
        WHERE id = $1
        RETURNING ` + productColumns

	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id, quantity, time.Now().UTC()))
	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado para reposição de estoque.", map[string]interface{}{"product_id": id})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado para reposição.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao incrementar estoque no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao repor estoque", err)
	}

	r.invalidate(ctxTimeout, id)
	r.logger.Info("Estoque reposto com sucesso.", map[string]interface{}{"product_id": id, "new_stock": product.Stock})
	return product, nil
}

// DecrementStockIfAbove subtrai quantity do estoque somente se o resultado não
// ficar abaixo de floor. A checagem do piso e a escrita acontecem em um único
// UPDATE condicional: sob vendas concorrentes no mesmo produto não há lost
// update nem violação do piso.
func (r *ProductRepository) DecrementStockIfAbove(ctx context.Context, id int64, quantity, floor int) (domain.Product, error) {
	r.logger.Debug("Iniciando DecrementStockIfAbove no repositório.", map[string]interface{}{
		"product_id": id, "quantity": quantity, "floor": floor,
	})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE products
        SET stock = stock - $2, updated_at = $3
        WHERE id = $1 AND stock - $2 >= $4
        RETURNING ` + productColumns

	product, err := scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id, quantity, time.Now().UTC(), floor))
	if err == nil {
		r.invalidate(ctxTimeout, id)
		r.logger.Info("Venda aplicada com sucesso.", map[string]interface{}{"product_id": id, "new_stock": product.Stock})
		return product, nil
	}
	if err != sql.ErrNoRows {
		r.logger.Error("Falha ao decrementar estoque no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao vender produto", err)
	}

	// Nenhuma linha afetada: ou o produto não existe, ou a venda violaria o
	// piso. A consulta abaixo apenas classifica o erro; a decisão em si já foi
	// tomada atomicamente pelo UPDATE condicional.
	var currentStock int
	err = r.DB.QueryRowContext(ctxTimeout, `SELECT stock FROM products WHERE id = $1`, id).Scan(&currentStock)
	if err == sql.ErrNoRows {
		r.logger.Info("Produto não encontrado para venda.", map[string]interface{}{"product_id": id})
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado para venda.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao consultar estoque atual.", err)
		return domain.Product{}, errors.NewDBError("Falha ao consultar estoque", err)
	}

	r.logger.Warn("Venda rejeitada pelo piso de estoque.", map[string]interface{}{
		"product_id": id, "current_stock": currentStock, "quantity": quantity,
	})
	return domain.Product{}, errors.NewStockFloorError(
		fmt.Sprintf("O estoque resultante seria inferior a %d (estoque atual: %d, quantidade: %d).", floor, currentStock, quantity),
	)
}
