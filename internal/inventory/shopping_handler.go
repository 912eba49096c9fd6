package inventory

import (
	"bytes"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ShoppingResponse struct {
	ItemResponse
	Needed int `json:"needed"`
}

func toShoppingResponses(rows []ShoppingRow) []ShoppingResponse {
	res := make([]ShoppingResponse, 0, len(rows))
	for i := range rows {
		res = append(res, ShoppingResponse{
			ItemResponse: toItemResponse(&rows[i].Item),
			Needed:       rows[i].Needed,
		})
	}
	return res
}

// GET /api/shopping-list?store_id=1&location=Pantry
func ShoppingListHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		rows, err := q.ShoppingList(c.UserContext(), storeID, locationQuery(c))
		if err != nil {
			return err
		}
		return c.JSON(toShoppingResponses(rows))
	}
}

// GET /api/shopping-list/location/:location?store_id=1
func ShoppingListByLocationHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}
		loc, err := locationParam(c)
		if err != nil {
			return err
		}

		rows, err := q.ShoppingList(c.UserContext(), storeID, &loc)
		if err != nil {
			return err
		}
		return c.JSON(toShoppingResponses(rows))
	}
}

const shoppingSheet = "Shopping List"

var shoppingHeader = []any{"Brand", "Item", "Location", "Current", "Target", "Extra", "Needed"}

// WriteShoppingWorkbook renders rows as a single sheet workbook.
func WriteShoppingWorkbook(rows []ShoppingRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", shoppingSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(shoppingSheet, "A1", &shoppingHeader); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := []any{r.Brand, r.Item.Item, r.Location, r.CurrentCount, r.TargetAmount, r.Extra, r.Needed}
		if err := f.SetSheetRow(shoppingSheet, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(shoppingSheet, "A", "C", 24); err != nil {
		return nil, err
	}
	return f.WriteToBuffer()
}

// GET /api/shopping-list/export?store_id=1&location=Pantry
func ExportShoppingListHandler(q *Query) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := StoreIDFromQuery(c)
		if err != nil {
			return err
		}

		rows, err := q.ShoppingList(c.UserContext(), storeID, locationQuery(c))
		if err != nil {
			return err
		}

		buf, err := WriteShoppingWorkbook(rows)
		if err != nil {
			return fmt.Errorf("render shopping workbook: %w", err)
		}

		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment(fmt.Sprintf("shopping-list-store-%d.xlsx", storeID))
		return c.Send(buf.Bytes())
	}
}
