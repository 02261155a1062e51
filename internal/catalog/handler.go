package catalog

import (
	"strings"

	"aligner-lab-backend/internal/database"
	"aligner-lab-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ProductResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsAligner bool   `json:"is_aligner"`
}

type CreateProductRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsAligner bool   `json:"is_aligner"`
}

func toResponse(p models.Product) ProductResponse {
	return ProductResponse{ID: p.ID, Name: p.Name, Type: p.Type, IsAligner: p.IsAligner}
}

// GET /api/products?aligner=true
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{})
		switch c.Query("aligner") {
		case "true":
			dbq = dbq.Where("is_aligner = ?", true)
		case "false":
			dbq = dbq.Where("is_aligner = ?", false)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível listar os produtos")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Dados inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Type = normalize(body.Type)
		if body.Name == "" || body.Type == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Nome e tipo são obrigatórios")
		}

		var existing models.Product
		if err := database.DB.Where("type = ?", body.Type).First(&existing).Error; err == nil {
			return fiber.NewError(fiber.StatusBadRequest, "Este tipo de produto já existe")
		}

		p := models.Product{Name: body.Name, Type: body.Type, IsAligner: body.IsAligner}
		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Não foi possível criar o produto")
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(p))
	}
}
