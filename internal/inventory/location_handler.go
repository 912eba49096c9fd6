package inventory

import (
	"inventory-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

type RenameLocationRequest struct {
	Name string `json:"name"`
}

type LocationBulkResponse struct {
	Location string `json:"location"`
	BulkResult
}

// GET /api/locations?store_id=1
func ListLocationsHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		locs, err := q.ListLocations(c.UserContext(), storeID)
		if err != nil {
			return err
		}
		return c.JSON(locs)
	}
}

// PUT /api/locations/:location?store_id=1
func RenameLocationHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		from, err := locationParam(c)
		if err != nil {
			return err
		}

		var body RenameLocationRequest
		if err := c.BodyParser(&body); err != nil {
			return apperr.Validation("invalid request body")
		}

		res, err := r.RenameLocation(c.UserContext(), storeID, from, body.Name)
		if err != nil {
			return err
		}
		return c.JSON(LocationBulkResponse{Location: body.Name, BulkResult: res})
	}
}

// DELETE /api/locations/:location?store_id=1
func DeleteLocationHandler(r *Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		loc, err := locationParam(c)
		if err != nil {
			return err
		}

		res, err := r.DeleteLocation(c.UserContext(), storeID, loc)
		if err != nil {
			return err
		}
		return c.JSON(LocationBulkResponse{Location: loc, BulkResult: res})
	}
}
