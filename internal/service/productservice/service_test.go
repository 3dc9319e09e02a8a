package productservice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/service/productservice"
)

// MockProductRepository é uma implementação mock da interface domain.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductRepository) Replace(ctx context.Context, product domain.Product) (domain.Product, error) {
	args := m.Called(ctx, product)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStockIfAbove(ctx context.Context, id int64, quantity, floor int) (domain.Product, error) {
	args := m.Called(ctx, id, quantity, floor)
	return args.Get(0).(domain.Product), args.Error(1)
}

func newTestService(repo domain.ProductRepository) *productservice.Service {
	return productservice.NewService(repo, logger.NewLogger("error"))
}

// --- CRUD ---

// TestCreateProduct_Success testa a criação passando pelo registro de variantes.
func TestCreateProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	input := validElectronics()
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).
		Return(input, nil)

	created, err := svc.CreateProduct(context.Background(), input)

	assert.NoError(t, err)
	assert.Equal(t, input.ID, created.ID)
	mockRepo.AssertExpectations(t)
}

// TestCreateProduct_InvalidVariant verifica que o repositório nunca é chamado
// quando o payload falha na resolução de variante.
func TestCreateProduct_InvalidVariant(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	input := validElectronics()
	input.Features = nil // obrigatório para a categoria 1

	_, err := svc.CreateProduct(context.Background(), input)

	assert.Error(t, err)
	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// TestCreateProduct_DuplicateID verifica a propagação do conflito de chave.
func TestCreateProduct_DuplicateID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	input := validFood()
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Product")).
		Return(domain.Product{}, apperror.NewConflictError("O produto com ID 2 já existe."))

	_, err := svc.CreateProduct(context.Background(), input)

	var conflictErr *apperror.ConflictError
	assert.ErrorAs(t, err, &conflictErr)
}

// TestGetProductByID_NotFound garante 404 tipado, nunca sucesso com corpo nulo.
func TestGetProductByID_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, int64(42)).
		Return(domain.Product{}, apperror.NewNotFoundError("Produto com ID 42 não encontrado."))

	_, err := svc.GetProductByID(context.Background(), 42)

	var notFoundErr *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
}

// TestGetProductByID_InvalidID rejeita IDs não positivos antes de tocar o repositório.
func TestGetProductByID_InvalidID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	_, err := svc.GetProductByID(context.Background(), 0)

	var validationErr *apperror.ValidationError
	assert.ErrorAs(t, err, &validationErr)
	mockRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

// TestListProducts_EmptyIsNotError verifica que catálogo vazio responde
// sucesso com lista vazia.
func TestListProducts_EmptyIsNotError(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("FindAll", mock.Anything).Return([]domain.Product{}, nil)

	products, err := svc.ListProducts(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, products)
	assert.Len(t, products, 0)
}

// TestUpdateProduct_ReplacesVariant verifica a substituição integral: o
// produto pode inclusive trocar de categoria na atualização.
func TestUpdateProduct_ReplacesVariant(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	existing := validElectronics()
	payload := validFood()
	payload.ID = 999 // o ID do payload não prevalece sobre o do registro

	mockRepo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	mockRepo.On("Replace", mock.Anything, mock.MatchedBy(func(p domain.Product) bool {
		return p.ID == existing.ID &&
			p.NumberCategory == domain.CategoryFood &&
			len(p.Features) == 0 // campo de eletrônicos não sobrevive à troca
	})).Return(payload, nil)

	_, err := svc.UpdateProduct(context.Background(), existing.ID, payload)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// TestUpdateProduct_NotFound verifica que atualizar ID inexistente é 404.
func TestUpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, int64(77)).
		Return(domain.Product{}, apperror.NewNotFoundError("Produto com ID 77 não encontrado."))

	_, err := svc.UpdateProduct(context.Background(), 77, validFood())

	var notFoundErr *apperror.NotFoundError
	assert.ErrorAs(t, err, &notFoundErr)
	mockRepo.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
}

// TestDeleteProduct_Success verifica o reconhecimento da exclusão.
func TestDeleteProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("Delete", mock.Anything, int64(4)).Return(int64(1), nil)

	result, err := svc.DeleteProduct(context.Background(), 4)

	assert.NoError(t, err)
	assert.True(t, result.Acknowledged)
	assert.Equal(t, int64(1), result.DeletedCount)
}

// --- Estoque ---

// TestRestockProduct_RejectsNonPositive rejeita quantidades <= 0 na reposição.
func TestRestockProduct_RejectsNonPositive(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	for _, qty := range []int{0, -3} {
		_, err := svc.RestockProduct(context.Background(), 1, qty)

		var validationErr *apperror.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}
	mockRepo.AssertNotCalled(t, "IncrementStock", mock.Anything, mock.Anything, mock.Anything)
}

// TestSellProduct_RejectsNonPositive rejeita quantidades <= 0 na venda.
func TestSellProduct_RejectsNonPositive(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	for _, qty := range []int{0, -1} {
		_, err := svc.SellProduct(context.Background(), 1, qty)

		var validationErr *apperror.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	}
	mockRepo.AssertNotCalled(t, "DecrementStockIfAbove", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestSellProduct_FloorViolation verifica cenário clássico: estoque 10,
// vender 6 deixaria 4 (< 5), então a venda inteira é rejeitada sem mutação.
func TestSellProduct_FloorViolation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("DecrementStockIfAbove", mock.Anything, int64(1), 6, domain.MinStockLevel).
		Return(domain.Product{}, apperror.NewStockFloorError("O estoque resultante seria inferior a 5 (estoque atual: 10, quantidade: 6)."))

	_, err := svc.SellProduct(context.Background(), 1, 6)

	var floorErr *apperror.StockFloorError
	assert.ErrorAs(t, err, &floorErr)
}

// TestSellProduct_Success verifica a venda dentro do piso: estoque 10,
// vender 3 resulta em 7.
func TestSellProduct_Success(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	sold := validElectronics()
	sold.Stock = 7

	mockRepo.On("DecrementStockIfAbove", mock.Anything, int64(1), 3, domain.MinStockLevel).
		Return(sold, nil)

	result, err := svc.SellProduct(context.Background(), 1, 3)

	assert.NoError(t, err)
	assert.Equal(t, 7, result.Stock)
	mockRepo.AssertExpectations(t)
}

// TestSellProduct_ExactFloorAllowed verifica que chegar exatamente ao piso é permitido.
func TestSellProduct_ExactFloorAllowed(t *testing.T) {
	mockRepo := new(MockProductRepository)
	svc := newTestService(mockRepo)

	atFloor := validElectronics()
	atFloor.Stock = domain.MinStockLevel

	mockRepo.On("DecrementStockIfAbove", mock.Anything, int64(1), 5, domain.MinStockLevel).
		Return(atFloor, nil)

	result, err := svc.SellProduct(context.Background(), 1, 5)

	assert.NoError(t, err)
	assert.Equal(t, domain.MinStockLevel, result.Stock)
}

// --- Concorrência ---

// fakeStockRepo simula o comportamento atômico do banco para o decremento
// condicional: a checagem do piso e a escrita acontecem sob o mesmo lock.
type fakeStockRepo struct {
	mu    sync.Mutex
	stock map[int64]int
}

func (f *fakeStockRepo) Save(ctx context.Context, p domain.Product) (domain.Product, error) {
	return p, nil
}

func (f *fakeStockRepo) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stock, ok := f.stock[id]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado.", id))
	}
	return domain.Product{ID: id, Stock: stock}, nil
}

func (f *fakeStockRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	return nil, errors.New("não usado")
}

func (f *fakeStockRepo) Replace(ctx context.Context, p domain.Product) (domain.Product, error) {
	return p, nil
}

func (f *fakeStockRepo) Delete(ctx context.Context, id int64) (int64, error) {
	return 0, errors.New("não usado")
}

func (f *fakeStockRepo) IncrementStock(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock[id] += quantity
	return domain.Product{ID: id, Stock: f.stock[id]}, nil
}

func (f *fakeStockRepo) DecrementStockIfAbove(ctx context.Context, id int64, quantity, floor int) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.stock[id]
	if !ok {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %d não encontrado.", id))
	}
	if current-quantity < floor {
		return domain.Product{}, apperror.NewStockFloorError(
			fmt.Sprintf("O estoque resultante seria inferior a %d (estoque atual: %d, quantidade: %d).", floor, current, quantity))
	}
	f.stock[id] = current - quantity
	return domain.Product{ID: id, Stock: f.stock[id]}, nil
}

// TestSellProduct_ConcurrentSales dispara vendas concorrentes e verifica que
// o estoque final reflete exatamente as vendas aceitas e nunca cruza o piso.
func TestSellProduct_ConcurrentSales(t *testing.T) {
	const (
		productID    = int64(1)
		initialStock = 100
		sellers      = 40
		perSale      = 3
	)

	repo := &fakeStockRepo{stock: map[int64]int{productID: initialStock}}
	svc := newTestService(repo)

	var wg sync.WaitGroup
	var accepted int
	var mu sync.Mutex

	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SellProduct(context.Background(), productID, perSale)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				var floorErr *apperror.StockFloorError
				assert.ErrorAs(t, err, &floorErr)
			}
		}()
	}
	wg.Wait()

	final := repo.stock[productID]

	// Estoque final corresponde exatamente às vendas aceitas.
	assert.Equal(t, initialStock-accepted*perSale, final)
	// E o piso nunca foi cruzado.
	assert.GreaterOrEqual(t, final, domain.MinStockLevel)
}

// TestRestockThenSell_RoundTrip verifica o ciclo reposição -> venda no fake.
func TestRestockThenSell_RoundTrip(t *testing.T) {
	repo := &fakeStockRepo{stock: map[int64]int{1: 10}}
	svc := newTestService(repo)

	restocked, err := svc.RestockProduct(context.Background(), 1, 15)
	assert.NoError(t, err)
	assert.Equal(t, 25, restocked.Stock)

	sold, err := svc.SellProduct(context.Background(), 1, 20)
	assert.NoError(t, err)
	assert.Equal(t, 5, sold.Stock)

	// A próxima venda violaria o piso.
	_, err = svc.SellProduct(context.Background(), 1, 1)
	var floorErr *apperror.StockFloorError
	assert.ErrorAs(t, err, &floorErr)
}
