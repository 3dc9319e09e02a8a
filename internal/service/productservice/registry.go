package productservice

import (
	"fmt"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// ResolveVariant é o registro de tipos de produto: mapeia o código numérico de
// categoria para exatamente uma das quatro variantes, valida os campos
// obrigatórios da variante, aplica os valores padrão e zera os campos que
// pertencem às demais variantes. É uma função pura, usada identicamente por
// create e update.
//
// Um código fora de 1–4 é rejeitado: nenhum produto degrada para a forma base.
func ResolveVariant(p domain.Product) (domain.Product, error) {
	if err := validateBase(p); err != nil {
		return domain.Product{}, err
	}

	// Forma base normalizada: campos comuns + defaults.
	out := domain.Product{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		NumberCategory: p.NumberCategory,
		Price:          p.Price,
		Stock:          p.Stock,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if out.Description == "" {
		out.Description = domain.DefaultDescription
	}
	if out.Stock == 0 {
		out.Stock = domain.DefaultStock
	}

	switch p.NumberCategory {
	case domain.CategoryElectronics:
		if len(p.Features) == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'features' é obrigatório para eletrônicos (categoria 1).")
		}
		out.Features = p.Features
		out.WarrantyYears = p.WarrantyYears
		if out.WarrantyYears == 0 {
			out.WarrantyYears = domain.DefaultWarrantyYears
		}

	case domain.CategoryFood:
		if len(p.Ingredients) == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'ingredients' é obrigatório para alimentos (categoria 2).")
		}
		if p.WeightOrVolume == "" {
			return domain.Product{}, apperror.NewValidationError("O campo 'weightOrVolume' é obrigatório para alimentos (categoria 2).")
		}
		out.Ingredients = p.Ingredients
		out.WeightOrVolume = p.WeightOrVolume
		out.Flavors = p.Flavors
		if len(out.Flavors) == 0 {
			out.Flavors = []string{domain.DefaultFlavor}
		}
		out.ExpirationDays = p.ExpirationDays
		if out.ExpirationDays == 0 {
			out.ExpirationDays = domain.DefaultExpirationDays
		}

	case domain.CategoryAutomotive:
		if len(p.Specs) == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'specs' é obrigatório para automotivos (categoria 3).")
		}
		if p.ModelYear == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'modelYear' é obrigatório para automotivos (categoria 3).")
		}
		out.Specs = p.Specs
		out.ModelYear = p.ModelYear
		out.WarrantyYears = p.WarrantyYears
		if out.WarrantyYears == 0 {
			out.WarrantyYears = domain.DefaultWarrantyYears
		}

	case domain.CategoryClothing:
		if len(p.SizesAvailable) == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'sizesAvailable' é obrigatório para vestuário (categoria 4).")
		}
		if len(p.Colors) == 0 {
			return domain.Product{}, apperror.NewValidationError("O campo 'colors' é obrigatório para vestuário (categoria 4).")
		}
		if p.Material == "" {
			return domain.Product{}, apperror.NewValidationError("O campo 'material' é obrigatório para vestuário (categoria 4).")
		}
		out.SizesAvailable = p.SizesAvailable
		out.Colors = p.Colors
		out.Material = p.Material

	default:
		return domain.Product{}, apperror.NewValidationError(
			fmt.Sprintf("Categoria numérica desconhecida: %d. Os valores válidos são 1 (eletrônicos), 2 (alimentos), 3 (automotivos) e 4 (vestuário).", p.NumberCategory),
		)
	}

	return out, nil
}

// validateBase valida os campos comuns a todas as variantes.
func validateBase(p domain.Product) error {
	if p.ID <= 0 {
		return apperror.NewValidationError("O ID do produto é obrigatório e deve ser positivo.")
	}
	if p.Name == "" {
		return apperror.NewValidationError("O nome do produto é obrigatório.")
	}
	if p.Category == "" {
		return apperror.NewValidationError("O rótulo de categoria do produto é obrigatório.")
	}
	if p.Price <= 0 {
		return apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if p.Stock < 0 {
		return apperror.NewValidationError("O estoque do produto não pode ser negativo.")
	}
	return nil
}
