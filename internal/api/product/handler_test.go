package product_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gocatalog/internal/api/product"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// MockProductService é uma implementação mock da interface domain.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Product), args.Error(1)
}

func (m *MockProductService) GetProductByID(ctx context.Context, id int64) (domain.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) UpdateProduct(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) DeleteProduct(ctx context.Context, id int64) (domain.DeletionResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.DeletionResult), args.Error(1)
}

func (m *MockProductService) RestockProduct(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductService) SellProduct(ctx context.Context, id int64, quantity int) (domain.Product, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(domain.Product), args.Error(1)
}

func newTestHandler(svc domain.ProductService) *product.Handler {
	return product.NewHandler(svc, logger.NewLogger("error"))
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// TestListProductsHandler_Envelope verifica o envelope de sucesso: state true e data.
func TestListProductsHandler_Envelope(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	mockSvc.On("ListProducts", mock.Anything).Return([]domain.Product{{ID: 1, Name: "Café"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	rec := httptest.NewRecorder()

	h.ListProductsHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["state"])
	assert.NotNil(t, body["data"])
}

// TestGetProductByIDHandler_BadID verifica 400 para ID não numérico no caminho.
func TestGetProductByIDHandler_BadID(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/v1/products/abc", nil)
	rec := httptest.NewRecorder()

	h.GetProductByIDHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["state"])
	assert.Equal(t, "VALIDATION_ERROR", body["category"])
	mockSvc.AssertNotCalled(t, "GetProductByID", mock.Anything, mock.Anything)
}

// TestGetProductByIDHandler_NotFound verifica o envelope de erro 404.
func TestGetProductByIDHandler_NotFound(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	mockSvc.On("GetProductByID", mock.Anything, int64(9)).
		Return(domain.Product{}, apperror.NewNotFoundError("Produto com ID 9 não encontrado."))

	req := httptest.NewRequest(http.MethodGet, "/v1/products/9", nil)
	rec := httptest.NewRecorder()

	h.GetProductByIDHandler(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["state"])
	assert.Equal(t, "NOT_FOUND", body["category"])
}

// TestCreateProductHandler_Created verifica 201 com o produto criado no envelope.
func TestCreateProductHandler_Created(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	created := domain.Product{ID: 1, Name: "Notebook", NumberCategory: domain.CategoryElectronics}
	mockSvc.On("CreateProduct", mock.Anything, mock.AnythingOfType("domain.Product")).
		Return(created, nil)

	payload := `{"id":1,"name":"Notebook","numberCategory":1,"price":10,"features":["x"]}`
	req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader(payload))
	rec := httptest.NewRecorder()

	h.CreateProductHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["state"])
}

// TestCreateProductHandler_BadJSON verifica 400 para corpo não decodificável.
func TestCreateProductHandler_BadJSON(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/v1/products", strings.NewReader("{nem json"))
	rec := httptest.NewRecorder()

	h.CreateProductHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	mockSvc.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

// TestSellProductHandler_FloorViolation verifica a categoria STOCK_FLOOR em 400.
func TestSellProductHandler_FloorViolation(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	mockSvc.On("SellProduct", mock.Anything, int64(1), 6).
		Return(domain.Product{}, apperror.NewStockFloorError("O estoque resultante seria inferior a 5 (estoque atual: 10, quantidade: 6)."))

	req := httptest.NewRequest(http.MethodPut, "/v1/products/sell/1", strings.NewReader(`{"sStock":6}`))
	rec := httptest.NewRecorder()

	h.SellProductHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["state"])
	assert.Equal(t, "STOCK_FLOOR", body["category"])
}

// TestRestockProductHandler_Success verifica 201 com o estoque atualizado.
func TestRestockProductHandler_Success(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	mockSvc.On("RestockProduct", mock.Anything, int64(2), 15).
		Return(domain.Product{ID: 2, Stock: 25}, nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/products/provider/2", strings.NewReader(`{"nStock":15}`))
	rec := httptest.NewRecorder()

	h.RestockProductHandler(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["state"])
}

// TestDeleteProductHandler_Acknowledged verifica o corpo de reconhecimento da exclusão.
func TestDeleteProductHandler_Acknowledged(t *testing.T) {
	mockSvc := new(MockProductService)
	h := newTestHandler(mockSvc)

	mockSvc.On("DeleteProduct", mock.Anything, int64(3)).
		Return(domain.DeletionResult{Acknowledged: true, DeletedCount: 1}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/v1/products/3", nil)
	rec := httptest.NewRecorder()

	h.DeleteProductHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["state"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["acknowledged"])
}
