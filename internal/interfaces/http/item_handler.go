package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ligero/internal/application/dto"
	"github.com/jhoicas/almacen-ligero/internal/application/usecase"
	"github.com/jhoicas/almacen-ligero/internal/domain"
)

// ItemHandler maneja las peticiones HTTP del catálogo de productos.
type ItemHandler struct {
	uc       *usecase.ItemUseCase
	validate *validator.Validate
}

// NewItemHandler construye el handler.
func NewItemHandler(uc *usecase.ItemUseCase) *ItemHandler {
	return &ItemHandler{uc: uc, validate: validator.New()}
}

// List godoc
// @Summary      Lista de productos
// @Tags         items
// @Produce      json
// @Success      200  {array}  dto.ItemResponse
// @Router       /api/items [get]
func (h *ItemHandler) List(c *fiber.Ctx) error {
	return c.JSON(dto.ItemsFromEntities(h.uc.List()))
}

// GetByID godoc
// @Summary      Detalle de un producto
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "ID del item"
// @Success      200  {object}  dto.ItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [get]
func (h *ItemHandler) GetByID(c *fiber.Ctx) error {
	item, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ItemFromEntity(item))
}

// Create godoc
// @Summary      Alta de producto
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ItemRequest  true  "name, category, quantity, price, description, image_url, batch_number"
// @Success      201   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/items [post]
func (h *ItemHandler) Create(c *fiber.Ctx) error {
	var in dto.ItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	item, err := h.uc.Create(c.Context(), itemInput(in))
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ItemFromEntity(item))
}

// Update godoc
// @Summary      Edición de producto en sitio
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "ID del item"
// @Param        body  body      dto.ItemRequest  true  "campos editables"
// @Success      200   {object}  dto.ItemResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/items/{id} [put]
func (h *ItemHandler) Update(c *fiber.Ctx) error {
	var in dto.ItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.validate.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	item, err := h.uc.Update(c.Context(), c.Params("id"), itemInput(in))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ItemFromEntity(item))
}

// Delete godoc
// @Summary      Borrado de producto (sin cascada al historial)
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "ID del item"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/items/{id} [delete]
func (h *ItemHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "producto eliminado"})
}

func itemInput(in dto.ItemRequest) usecase.ItemInput {
	return usecase.ItemInput{
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Price:       in.Price,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		BatchNumber: in.BatchNumber,
	}
}

// mapError traduce errores de dominio a respuestas HTTP.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "ya existe un producto con ese nombre y lote"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "el almacenamiento no respondió; el cambio fue revertido"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
