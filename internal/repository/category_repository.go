package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mobile-pos/internal/domain"
)

var ErrCategoryNotFound = fmt.Errorf("category %w", domain.ErrNotFound)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	List(ctx context.Context) ([]*domain.CategoryInfo, error)
	FindByName(ctx context.Context, name domain.Category) (*domain.CategoryInfo, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

// List retrieves all categories
func (r *categoryRepository) List(ctx context.Context) ([]*domain.CategoryInfo, error) {
	query := `
		SELECT id, name, display_name, serialized, created_at
		FROM categories
		ORDER BY name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.CategoryInfo{}
	for rows.Next() {
		category := &domain.CategoryInfo{}
		err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.DisplayName,
			&category.Serialized,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// FindByName retrieves a category by its machine name
func (r *categoryRepository) FindByName(ctx context.Context, name domain.Category) (*domain.CategoryInfo, error) {
	query := `
		SELECT id, name, display_name, serialized, created_at
		FROM categories
		WHERE name = $1
	`

	category := &domain.CategoryInfo{}
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&category.ID,
		&category.Name,
		&category.DisplayName,
		&category.Serialized,
		&category.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by name: %w", err)
	}

	return category, nil
}
