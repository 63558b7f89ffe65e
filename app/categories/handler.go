package categories

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopkeeper/retail-assistant/app/httpx"
	"github.com/shopkeeper/retail-assistant/models"
)

type CategoryResponse struct {
	ID           uint   `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	ProductCount int64  `json:"product_count"`
}

type CategoryProvider interface {
	GetAllCategories() ([]models.Category, error)
	CreateCategory(category *models.Category) error
	UpdateCategory(category *models.Category) error
	DeleteCategory(id uint) error
}

type CategoryHandler struct {
	repo   CategoryProvider
	logger *slog.Logger
}

func NewCategoryHandler(r CategoryProvider, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{repo: r, logger: logger}
}

type categoryInput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CategoryHandler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories()
	if err != nil {
		h.logger.Error("list categories failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = toResponse(c)
	}

	httpx.WriteJSON(w, http.StatusOK, response)
}

func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var input categoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	input.Code = strings.TrimSpace(input.Code)
	input.Name = strings.TrimSpace(input.Name)
	if input.Code == "" || input.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Missing code or name")
		return
	}

	category := &models.Category{
		Code:        input.Code,
		Name:        input.Name,
		Description: input.Description,
	}

	if err := h.repo.CreateCategory(category); err != nil {
		if errors.Is(err, models.ErrDuplicateCode) {
			httpx.WriteError(w, http.StatusConflict, "Category code already exists")
			return
		}
		h.logger.Error("create category failed", "code", input.Code, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toResponse(*category))
}

func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	var input categoryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Missing name")
		return
	}

	category := &models.Category{ID: id, Name: input.Name, Description: input.Description}
	if err := h.repo.UpdateCategory(category); err != nil {
		if errors.Is(err, models.ErrCategoryNotFound) {
			httpx.WriteError(w, http.StatusNotFound, "Category not found")
			return
		}
		h.logger.Error("update category failed", "id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to update category")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(r, "id")
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid category id")
		return
	}

	if err := h.repo.DeleteCategory(id); err != nil {
		switch {
		case errors.Is(err, models.ErrCategoryNotFound):
			httpx.WriteError(w, http.StatusNotFound, "Category not found")
		case errors.Is(err, models.ErrCategoryInUse):
			httpx.WriteError(w, http.StatusConflict, "Category still has goods")
		default:
			h.logger.Error("delete category failed", "id", id, "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "Failed to delete category")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toResponse(c models.Category) CategoryResponse {
	return CategoryResponse{
		ID:           c.ID,
		Code:         c.Code,
		Name:         c.Name,
		Description:  c.Description,
		ProductCount: c.ProductCount,
	}
}
