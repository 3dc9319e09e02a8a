package productservice

import (
	"context"
	"errors"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// Service é a estrutura que implementa a interface domain.ProductService.
// Orquestra resolução de variante -> mutação -> persistência para as seis
// operações de produto.
type Service struct {
	repo   domain.ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo domain.ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// ListProducts retorna todos os produtos armazenados, de todas as variantes.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar produtos no repositório.", err)
		if isAppError(err) {
			return nil, err
		}
		return nil, apperror.NewInternalError("Falha interna ao buscar produtos.", err)
	}

	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

// GetProductByID busca um produto pelo seu identificador numérico.
// ID inexistente resulta em NotFoundError (404), nunca em sucesso com corpo nulo.
func (s *Service) GetProductByID(ctx context.Context, id int64) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		// Erros do repositório já são NotFoundError ou DBError
		return domain.Product{}, err
	}

	return product, nil
}

// CreateProduct resolve a variante do payload via registro de tipos e persiste.
func (s *Service) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{
		"product_id":      product.ID,
		"number_category": product.NumberCategory,
	})

	resolved, err := ResolveVariant(product)
	if err != nil {
		s.logger.Warn("Payload de produto rejeitado pelo registro de variantes.", map[string]interface{}{
			"product_id": product.ID,
			"error":      err.Error(),
		})
		return domain.Product{}, err
	}

	created, err := s.repo.Save(ctx, resolved)
	if err != nil {
		// ConflictError (ID duplicado) e DBError já vêm tipados do repositório.
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{
		"product_id":      created.ID,
		"number_category": created.NumberCategory,
	})
	return created, nil
}

// UpdateProduct carrega o produto existente e, se presente, o substitui
// integralmente pela nova instância resolvida do payload (replace, não merge).
func (s *Service) UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	s.logger.Debug("Iniciando atualização de produto no serviço.", map[string]interface{}{"product_id": id})

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	// A nova instância é resolvida exatamente como em create; o ID do registro
	// existente prevalece sobre qualquer ID vindo no payload.
	product.ID = existing.ID
	resolved, err := ResolveVariant(product)
	if err != nil {
		s.logger.Warn("Payload de atualização rejeitado pelo registro de variantes.", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		return domain.Product{}, err
	}
	resolved.CreatedAt = existing.CreatedAt

	updated, err := s.repo.Replace(ctx, resolved)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"product_id": updated.ID})
	return updated, nil
}

// DeleteProduct remove um produto e retorna o reconhecimento com a contagem
// de registros removidos.
func (s *Service) DeleteProduct(ctx context.Context, id int64) (domain.DeletionResult, error) {
	s.logger.Debug("Iniciando exclusão de produto no serviço.", map[string]interface{}{"product_id": id})

	if id <= 0 {
		return domain.DeletionResult{}, apperror.NewValidationError("O ID do produto deve ser um inteiro positivo.")
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return domain.DeletionResult{}, err
	}

	s.logger.Info("Produto excluído com sucesso.", map[string]interface{}{"product_id": id, "deleted_count": deleted})
	return domain.DeletionResult{Acknowledged: true, DeletedCount: deleted}, nil
}

// RestockProduct soma quantity ao estoque do produto. Quantidades não
// positivas são rejeitadas (mesma regra da venda, fechando a assimetria).
func (s *Service) RestockProduct(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	s.logger.Debug("Iniciando reposição de estoque no serviço.", map[string]interface{}{"product_id": id, "quantity": quantity})

	if quantity <= 0 {
		return domain.Product{}, apperror.NewValidationError("A quantidade de reposição (nStock) deve ser positiva.")
	}

	product, err := s.repo.IncrementStock(ctx, id, quantity)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.Info("Estoque reposto com sucesso.", map[string]interface{}{"product_id": id, "new_stock": product.Stock})
	return product, nil
}

// SellProduct subtrai quantity do estoque respeitando o piso mínimo. A
// decisão (piso) e a escrita são um único passo atômico no repositório: o
// serviço nunca lê o estoque para depois escrever.
func (s *Service) SellProduct(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	s.logger.Debug("Iniciando venda no serviço.", map[string]interface{}{"product_id": id, "quantity": quantity})

	if quantity <= 0 {
		return domain.Product{}, apperror.NewValidationError("A quantidade de venda (sStock) deve ser positiva.")
	}

	product, err := s.repo.DecrementStockIfAbove(ctx, id, quantity, domain.MinStockLevel)
	if err != nil {
		var floorErr *apperror.StockFloorError
		if errors.As(err, &floorErr) {
			s.logger.Warn("Venda rejeitada: piso de estoque.", map[string]interface{}{
				"product_id": id,
				"quantity":   quantity,
			})
		}
		return domain.Product{}, err
	}

	s.logger.Info("Venda concluída com sucesso.", map[string]interface{}{"product_id": id, "new_stock": product.Stock})
	return product, nil
}

// isAppError informa se o erro já está tipado na hierarquia AppError.
func isAppError(err error) bool {
	var appErr apperror.AppError
	return errors.As(err, &appErr)
}
