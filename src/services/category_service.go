// src/services/category_service.go
package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/username/spendlens/src/model"
	"github.com/username/spendlens/src/models"
	"github.com/username/spendlens/src/security/validation"
)

type categoryServiceImpl struct {
	db *sql.DB
}

func NewCategoryService(db *sql.DB) CategoryService {
	return &categoryServiceImpl{db: db}
}

func (s *categoryServiceImpl) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := model.ListCategories(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryServiceImpl) CreateCategory(ctx context.Context, in models.CategoryCreate) (*models.Category, error) {
	in.Name = validation.CleanUserText(in.Name)
	if err := validation.ValidateStringNotEmpty(in.Name, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(in.Name, validation.DefaultMaxStringLength, "name"); err != nil {
		return nil, err
	}
	if in.Color != nil {
		if err := validation.ValidateColor(*in.Color); err != nil {
			return nil, err
		}
	}
	if in.Icon != nil {
		icon := validation.CleanUserText(*in.Icon)
		in.Icon = &icon
	}

	id, err := model.CreateCategory(ctx, s.db, in)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: category %q already exists", ErrValidation, in.Name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &models.Category{ID: id, Name: in.Name, Source: "user", Color: in.Color, Icon: in.Icon, IsActive: true}, nil
}
