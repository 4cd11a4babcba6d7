package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/domain"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
)

// CatalogService is the slice of the catalog package the handlers need.
type CatalogService interface {
	CreateProduct(ctx context.Context, session domain.Session, product *domain.Product) error
	UpdateProduct(ctx context.Context, session domain.Session, product *domain.Product) error
	DeleteProduct(ctx context.Context, session domain.Session, id primitive.ObjectID) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, error)
	SetStocks(ctx context.Context, session domain.Session, id primitive.ObjectID, stocks []domain.StockEntry) error
	UploadImage(ctx context.Context, session domain.Session, id primitive.ObjectID, r io.Reader) (string, error)
	Like(ctx context.Context, session domain.Session, productID primitive.ObjectID) error
	Unlike(ctx context.Context, session domain.Session, productID primitive.ObjectID) error
	LikeCount(ctx context.Context, productID primitive.ObjectID) (int64, error)
	LikedProducts(ctx context.Context, session domain.Session) ([]domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type ProductRequestDTO struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	PriceCents  int64               `json:"price_cents"`
	Variations  []domain.Variation  `json:"variations"`
	Stocks      []domain.StockEntry `json:"stocks"`
}

type SetStocksRequestDTO struct {
	Stocks []domain.StockEntry `json:"stocks"`
}

func (dto ProductRequestDTO) toDomain() *domain.Product {
	return &domain.Product{
		Name:        dto.Name,
		Description: dto.Description,
		Category:    dto.Category,
		PriceCents:  dto.PriceCents,
		Variations:  dto.Variations,
		Stocks:      dto.Stocks,
	}
}

// POST /api/v1/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product := req.toDomain()
	if err := h.catalog.CreateProduct(r.Context(), session, product); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// PUT /api/v1/products/{product_id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	product := req.toDomain()
	product.ID = productID
	if err := h.catalog.UpdateProduct(r.Context(), session, product); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/v1/products/{product_id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), session, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// GET /api/v1/products?seller_id=&category=&limit=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repository.ProductFilter{
		SellerID: r.URL.Query().Get("seller_id"),
		Category: r.URL.Query().Get("category"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

// PUT /api/v1/products/{product_id}/stocks
func (h *ProductHandler) SetStocks(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	var req SetStocksRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.catalog.SetStocks(r.Context(), session, productID, req.Stocks); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// POST /api/v1/products/{product_id}/images
func (h *ProductHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	key, err := h.catalog.UploadImage(r.Context(), session, productID, r.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"key": key})
}

// POST /api/v1/products/{product_id}/like
func (h *ProductHandler) Like(w http.ResponseWriter, r *http.Request) {
	h.likeOp(w, r, h.catalog.Like)
}

// DELETE /api/v1/products/{product_id}/like
func (h *ProductHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.likeOp(w, r, h.catalog.Unlike)
}

func (h *ProductHandler) likeOp(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, domain.Session, primitive.ObjectID) error,
) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	productID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "product_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid object id")
		return
	}

	if err := op(r.Context(), session, productID); err != nil {
		handleServiceError(w, err)
		return
	}

	count, err := h.catalog.LikeCount(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"likes": count})
}

// GET /api/v1/products/liked
func (h *ProductHandler) Liked(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	products, err := h.catalog.LikedProducts(r.Context(), session)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, products)
}

// GET /api/v1/categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}

	respondJSON(w, http.StatusOK, categories)
}
