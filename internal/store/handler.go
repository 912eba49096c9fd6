package store

import (
	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type StoreResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CreateStoreRequest struct {
	Name            string `json:"name"`
	CopyFromStoreID *uint  `json:"copyFromStoreId"`
}

type RenameStoreRequest struct {
	Name string `json:"name"`
}

func toResponse(s *models.Store) StoreResponse {
	return StoreResponse{
		ID:        s.ID,
		Name:      s.Name,
		CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt: s.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func storeID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid store id")
	}
	return uint(id), nil
}

func ListStoresHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stores, err := r.List(c.UserContext())
		if err != nil {
			return err
		}

		res := make([]StoreResponse, 0, len(stores))
		for i := range stores {
			res = append(res, toResponse(&stores[i]))
		}
		return c.JSON(res)
	}
}

func CreateStoreHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateStoreRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		s, err := r.Create(c.UserContext(), body.Name, body.CopyFromStoreID)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toResponse(s))
	}
}

func RenameStoreHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := storeID(c)
		if err != nil {
			return err
		}

		var body RenameStoreRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		s, err := r.Rename(c.UserContext(), id, body.Name)
		if err != nil {
			return err
		}
		return c.JSON(toResponse(s))
	}
}

func DeleteStoreHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := storeID(c)
		if err != nil {
			return err
		}

		if _, err := r.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
