package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/shopverse/internal/model"
	"github.com/iliyamo/shopverse/internal/repository"
)

const (
	DefaultPageSize      = 12
	DefaultAdminPageSize = 100
	MaxPageSize          = 100

	maxNameLen        = 200
	maxDescriptionLen = 2000
	defaultRating     = 4.0
)

// ProductQuery filters and paginates the catalog.  Admin widens search
// to the category and raises the default page size.
type ProductQuery struct {
	Category string
	Search   string
	Page     int
	Limit    int
	Admin    bool
}

// ProductPage is one page of a filtered listing.
type ProductPage struct {
	Items []model.Product `json:"products"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Pages int             `json:"pages"`
}

// ProductInput carries the fields of a new product.  Pointer fields are
// optional and take their defaults when nil.
type ProductInput struct {
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Category     string           `json:"category"`
	Image        string           `json:"image"`
	Rating       *float64         `json:"rating"`
	NumReviews   *int             `json:"numReviews"`
	CountInStock *int             `json:"countInStock"`
}

// CatalogService reads and administers products.
type CatalogService struct {
	store repository.Store
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// List returns the products matching q, newest first.
func (s *CatalogService) List(ctx context.Context, q ProductQuery) (ProductPage, error) {
	all, err := s.store.ListProducts(ctx)
	if err != nil {
		return ProductPage{}, fmt.Errorf("list products: %w", err)
	}

	category := strings.TrimSpace(q.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	matched := make([]model.Product, 0, len(all))
	for _, p := range all {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" && !matchesSearch(p, search, q.Admin) {
			continue
		}
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page, limit := normalizePage(q)
	total := len(matched)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return ProductPage{
		Items: matched[start:end],
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	}, nil
}

func matchesSearch(p model.Product, needle string, admin bool) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	return admin && strings.Contains(strings.ToLower(p.Category), needle)
}

func normalizePage(q ProductQuery) (page, limit int) {
	page, limit = q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
		if q.Admin {
			limit = DefaultAdminPageSize
		}
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// Get returns a product or ErrProductNotFound.
func (s *CatalogService) Get(ctx context.Context, id string) (model.Product, error) {
	p, found, err := s.store.GetProductByID(ctx, id)
	if err != nil {
		return model.Product{}, fmt.Errorf("get product: %w", err)
	}
	if !found {
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Create validates in and inserts a product.
func (s *CatalogService) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	name := strings.TrimSpace(in.Name)
	category := strings.TrimSpace(in.Category)
	if name == "" || in.Price == nil || category == "" {
		return model.Product{}, invalid("product", "name, price and category are required")
	}
	p := model.Product{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		Currency:    model.Currency,
		Category:    category,
		Image:       strings.TrimSpace(in.Image),
		Rating:      defaultRating,
	}
	if in.Rating != nil {
		p.Rating = *in.Rating
	}
	if in.NumReviews != nil {
		p.NumReviews = *in.NumReviews
	}
	if in.CountInStock != nil {
		p.CountInStock = *in.CountInStock
	}
	if err := validateProduct(p); err != nil {
		return model.Product{}, err
	}
	created, err := s.store.CreateProduct(ctx, p)
	if err != nil {
		return model.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// Update applies patch to an existing product.
func (s *CatalogService) Update(ctx context.Context, id string, patch model.ProductPatch) (model.Product, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return model.Product{}, err
	}
	trimPatch(&patch)
	next := cur
	patch.Apply(&next)
	if err := validateProduct(next); err != nil {
		return model.Product{}, err
	}
	p, found, err := s.store.UpdateProduct(ctx, id, patch)
	if err != nil {
		return model.Product{}, fmt.Errorf("update product: %w", err)
	}
	if !found {
		return model.Product{}, ErrProductNotFound
	}
	return p, nil
}

func trimPatch(p *model.ProductPatch) {
	for _, f := range []*string{p.Name, p.Description, p.Category, p.Image} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

func validateProduct(p model.Product) error {
	switch {
	case p.Name == "":
		return invalid("name", "product name is required")
	case utf8.RuneCountInString(p.Name) > maxNameLen:
		return invalid("name", "product name cannot exceed %d characters", maxNameLen)
	case utf8.RuneCountInString(p.Description) > maxDescriptionLen:
		return invalid("description", "description cannot exceed %d characters", maxDescriptionLen)
	case p.Price.IsNegative():
		return invalid("price", "price cannot be negative")
	case !p.Price.Equal(p.Price.Round(2)):
		return invalid("price", "price cannot have more than 2 decimal places")
	case p.Category == "":
		return invalid("category", "category is required")
	case p.Rating < 0 || p.Rating > 5:
		return invalid("rating", "rating must be between 0 and 5")
	case p.NumReviews < 0:
		return invalid("numReviews", "numReviews cannot be negative")
	case p.CountInStock < 0:
		return invalid("countInStock", "countInStock cannot be negative")
	}
	return nil
}

// Delete removes a product.  Cart rows pointing at it become orphans
// and are dropped the next time the cart is read.
func (s *CatalogService) Delete(ctx context.Context, id string) (bool, error) {
	ok, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}
	return ok, nil
}

// AdjustStock changes a product's stock by delta in one store step.
func (s *CatalogService) AdjustStock(ctx context.Context, id string, delta int) (model.Product, error) {
	p, err := s.store.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Product{}, ErrProductNotFound
		}
		return model.Product{}, err
	}
	return p, nil
}

// Categories lists the distinct product categories, sorted.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	all, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range all {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}
