package inventory

import (
	"net/url"
	"strconv"
	"strings"

	"inventory-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// StoreIDFromQuery reads ?store_id=, falling back to DefaultStoreID.
func StoreIDFromQuery(c *fiber.Ctx) (uint, error) {
	v := strings.TrimSpace(c.Query("store_id"))
	if v == "" {
		return DefaultStoreID, nil
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.Validation("store_id must be a positive integer")
	}
	return uint(id), nil
}

func itemID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid item id")
	}
	return uint(id), nil
}

// locationParam decodes the :location path segment. Locations are free text
// and arrive percent-encoded.
func locationParam(c *fiber.Ctx) (string, error) {
	loc, err := url.PathUnescape(c.Params("location"))
	if err != nil || loc == "" {
		return "", apperr.Validation("invalid location")
	}
	return loc, nil
}

// locationQuery returns the optional ?location= filter.
func locationQuery(c *fiber.Ctx) *string {
	v := c.Query("location")
	if v == "" {
		return nil
	}
	return &v
}
