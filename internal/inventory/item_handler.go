package inventory

import (
	"inventory-backend/internal/apperr"
	"inventory-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ItemResponse struct {
	ID           uint   `json:"id"`
	StoreID      uint   `json:"store_id"`
	Brand        string `json:"brand"`
	Item         string `json:"item"`
	Location     string `json:"location"`
	CurrentCount int    `json:"currentCount"`
	TargetAmount int    `json:"targetAmount"`
	Extra        int    `json:"extra"`
	Active       bool   `json:"active"`
	Status       Status `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type CreateItemRequest struct {
	StoreID      *uint  `json:"store_id"`
	Brand        string `json:"brand"`
	Item         string `json:"item"`
	Location     string `json:"location"`
	CurrentCount *int   `json:"currentCount"`
	TargetAmount *int   `json:"targetAmount"`
	Extra        *int   `json:"extra"`
}

type UpdateItemRequest struct {
	Brand        string `json:"brand"`
	Item         string `json:"item"`
	Location     string `json:"location"`
	CurrentCount *int   `json:"currentCount"`
	TargetAmount *int   `json:"targetAmount"`
	Extra        *int   `json:"extra"`
}

type PatchQuantityRequest struct {
	CurrentCount *int `json:"currentCount"`
	TargetAmount *int `json:"targetAmount"`
}

type PatchExtraRequest struct {
	Extra *int `json:"extra"`
}

type RecordPurchaseRequest struct {
	Amount *int `json:"amount"`
}

type SetActiveRequest struct {
	Active *bool `json:"active"`
}

func toItemResponse(it *models.Item) ItemResponse {
	return ItemResponse{
		ID:           it.ID,
		StoreID:      it.StoreID,
		Brand:        it.Brand,
		Item:         it.Item,
		Location:     it.Location,
		CurrentCount: it.CurrentCount,
		TargetAmount: it.TargetAmount,
		Extra:        it.Extra,
		Active:       it.Active,
		Status:       Classify(it.CurrentCount, it.TargetAmount),
		CreatedAt:    it.CreatedAt.Format("2006-01-02 15:04:05"),
		UpdatedAt:    it.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}

func toItemResponses(items []models.Item) []ItemResponse {
	res := make([]ItemResponse, 0, len(items))
	for i := range items {
		res = append(res, toItemResponse(&items[i]))
	}
	return res
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// GET /api/inventory?store_id=1&location=Pantry
func ListInventoryHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		items, err := q.ListInventory(c.UserContext(), storeID, locationQuery(c))
		if err != nil {
			return err
		}
		return c.JSON(toItemResponses(items))
	}
}

// GET /api/inventory/location/:location?store_id=1
func ListInventoryByLocationHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		loc, err := locationParam(c)
		if err != nil {
			return err
		}

		items, err := q.ListInventory(c.UserContext(), storeID, &loc)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponses(items))
	}
}

// GET /api/inventory/inactive?store_id=1
func ListInactiveHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		items, err := q.ListInactive(c.UserContext(), storeID)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponses(items))
	}
}

// POST /api/inventory
func CreateItemHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		if body.StoreID != nil {
			storeID = *body.StoreID
		}

		it, err := r.CreateItem(c.UserContext(), storeID, ItemInput{
			Brand:        body.Brand,
			Item:         body.Item,
			Location:     body.Location,
			CurrentCount: intOr(body.CurrentCount, 0),
			TargetAmount: intOr(body.TargetAmount, 0),
			Extra:        intOr(body.Extra, 0),
		})
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(toItemResponse(it))
	}
}

// PUT /api/inventory/:id
func UpdateItemHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		var body UpdateItemRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.CurrentCount == nil || body.TargetAmount == nil {
			return apperr.Validation("currentCount and targetAmount are required")
		}

		it, err := r.UpdateItem(c.UserContext(), id, ItemInput{
			Brand:        body.Brand,
			Item:         body.Item,
			Location:     body.Location,
			CurrentCount: *body.CurrentCount,
			TargetAmount: *body.TargetAmount,
			Extra:        intOr(body.Extra, 0),
		})
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(it))
	}
}

// PATCH /api/inventory/:id/quantity
func PatchQuantityHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		var body PatchQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.CurrentCount == nil || body.TargetAmount == nil {
			return apperr.Validation("currentCount and targetAmount are required")
		}

		it, err := r.PatchQuantities(c.UserContext(), id, *body.CurrentCount, *body.TargetAmount)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(it))
	}
}

// PATCH /api/inventory/:id/extra
func PatchExtraHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		var body PatchExtraRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.Extra == nil {
			return apperr.Validation("extra is required")
		}

		it, err := r.PatchExtra(c.UserContext(), id, *body.Extra)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(it))
	}
}

// PATCH /api/inventory/:id/purchase
func RecordPurchaseHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		var body RecordPurchaseRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.Amount == nil {
			return apperr.Validation("amount is required")
		}

		it, err := r.RecordPurchase(c.UserContext(), id, *body.Amount)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(it))
	}
}

// PATCH /api/inventory/:id/active
func SetActiveHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		var body SetActiveRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}
		if body.Active == nil {
			return apperr.Validation("active is required")
		}

		it, err := r.SetActive(c.UserContext(), id, *body.Active)
		if err != nil {
			return err
		}
		return c.JSON(toItemResponse(it))
	}
}

// DELETE /api/inventory/:id
func DeleteItemHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := itemID(c)
		if err != nil {
			return err
		}

		if err := r.DeleteItem(c.UserContext(), id); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
