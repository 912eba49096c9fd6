package importer

import (
	"inventory-backend/internal/apperr"
	"inventory-backend/internal/inventory"

	"github.com/gofiber/fiber/v2"
)

// POST /api/inventory/import?store_id=1 (multipart, field "file")
func ImportHandler(repo *inventory.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := inventory.StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation("a .csv or .xlsx file is required in field \"file\"")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return apperr.Persistence("open upload", err)
		}
		defer file.Close()

		res, err := Import(c.UserContext(), repo, storeID, fileHeader.Filename, file)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}
