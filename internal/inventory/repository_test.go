package inventory

import (
	"context"
	"encoding/json"
	"testing"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/config"
	"inventory-backend/internal/database"
	"inventory-backend/internal/models"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*Repository, *Query, *gorm.DB) {
	t.Helper()
	l, _ := test.NewNullLogger()
	db, err := database.Open(&config.Config{DatabaseDriver: config.DriverSQLite, DatabaseDSN: ":memory:"}, l)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, l, "Default Store"))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewRepository(db, l, nil), NewQuery(db), db
}

func mustCreate(t *testing.T, r *Repository, storeID uint, in ItemInput) *models.Item {
	t.Helper()
	it, err := r.CreateItem(context.Background(), storeID, in)
	require.NoError(t, err)
	return it
}

func TestCreateItem(t *testing.T) {
	r, _, _ := setup(t)

	it := mustCreate(t, r, 1, ItemInput{Brand: " Acme ", Item: "Soap", Location: "Bath", CurrentCount: 1, TargetAmount: 3})
	assert.NotZero(t, it.ID)
	assert.Equal(t, "Acme", it.Brand)
	assert.True(t, it.Active)
	assert.Zero(t, it.Extra)
}

func TestCreateItemValidation(t *testing.T) {
	r, _, db := setup(t)
	ctx := context.Background()

	cases := []ItemInput{
		{Brand: "", Item: "Soap", Location: "Bath"},
		{Brand: "Acme", Item: "  ", Location: "Bath"},
		{Brand: "Acme", Item: "Soap", Location: ""},
		{Brand: "Acme", Item: "Soap", Location: "Bath", CurrentCount: -1},
		{Brand: "Acme", Item: "Soap", Location: "Bath", Extra: -2},
	}
	for _, in := range cases {
		_, err := r.CreateItem(ctx, 1, in)
		var verr *apperr.ValidationError
		assert.ErrorAs(t, err, &verr, "%+v", in)
	}

	_, err := r.CreateItem(ctx, 42, ItemInput{Brand: "Acme", Item: "Soap", Location: "Bath"})
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)

	var n int64
	require.NoError(t, db.Model(&models.Item{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestUpdateAndPatches(t *testing.T) {
	r, _, _ := setup(t)
	ctx := context.Background()
	it := mustCreate(t, r, 1, ItemInput{Brand: "Acme", Item: "Soap", Location: "Bath", CurrentCount: 1, TargetAmount: 3, Extra: 2})

	up, err := r.UpdateItem(ctx, it.ID, ItemInput{Brand: "Acme", Item: "Bar Soap", Location: "Shower", CurrentCount: 0, TargetAmount: 4})
	require.NoError(t, err)
	assert.Equal(t, "Bar Soap", up.Item)
	assert.Equal(t, "Shower", up.Location)
	assert.Zero(t, up.CurrentCount)
	assert.Equal(t, 4, up.TargetAmount)
	assert.Zero(t, up.Extra, "full replace resets extra")

	_, err = r.PatchExtra(ctx, it.ID, 5)
	require.NoError(t, err)

	q, err := r.PatchQuantities(ctx, it.ID, 2, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, q.CurrentCount)
	assert.Equal(t, 6, q.TargetAmount)
	assert.Equal(t, 5, q.Extra, "quantity patch keeps extra")
	assert.Equal(t, "Bar Soap", q.Item)

	_, err = r.PatchQuantities(ctx, 999, 1, 1)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = r.UpdateItem(ctx, 999, ItemInput{Brand: "a", Item: "b", Location: "c"})
	assert.ErrorAs(t, err, &nf)
}

func TestSetActiveAndDelete(t *testing.T) {
	r, q, _ := setup(t)
	ctx := context.Background()
	it := mustCreate(t, r, 1, ItemInput{Brand: "Acme", Item: "Soap", Location: "Bath"})

	off, err := r.SetActive(ctx, it.ID, false)
	require.NoError(t, err)
	assert.False(t, off.Active)

	active, err := q.ListInventory(ctx, 1, nil)
	require.NoError(t, err)
	assert.Empty(t, active)
	inactive, err := q.ListInactive(ctx, 1)
	require.NoError(t, err)
	require.Len(t, inactive, 1)

	on, err := r.SetActive(ctx, it.ID, true)
	require.NoError(t, err)
	assert.True(t, on.Active)

	require.NoError(t, r.DeleteItem(ctx, it.ID))
	err = r.DeleteItem(ctx, it.ID)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestItemMutationsAreAudited(t *testing.T) {
	r, _, db := setup(t)
	ctx := context.Background()
	it := mustCreate(t, r, 1, ItemInput{Brand: "Acme", Item: "Soap", Location: "Bath"})
	_, err := r.PatchQuantities(ctx, it.ID, 2, 3)
	require.NoError(t, err)
	require.NoError(t, r.DeleteItem(ctx, it.ID))

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_type = ? AND entity_id = ?", models.EntityItem, it.ID).Order("id").Find(&logs).Error)
	require.Len(t, logs, 3)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, "null", logs[0].BeforeData)
	assert.Equal(t, models.AuditActionUpdate, logs[1].Action)
	assert.Equal(t, models.AuditActionDelete, logs[2].Action)
	assert.Equal(t, "null", logs[2].AfterData)
	require.NotNil(t, logs[2].StoreID)
	assert.Equal(t, uint(1), *logs[2].StoreID)

	var image map[string]any
	require.NoError(t, json.Unmarshal([]byte(logs[1].AfterData), &image))
	assert.EqualValues(t, 2, image["currentCount"])
	assert.EqualValues(t, 3, image["targetAmount"])
	assert.EqualValues(t, 1, image["store_id"])
	assert.NotContains(t, image, "CurrentCount")
}

func TestRecordPurchase(t *testing.T) {
	r, _, db := setup(t)
	ctx := context.Background()
	it := mustCreate(t, r, 1, ItemInput{Brand: "Acme", Item: "Soap", Location: "Bath", CurrentCount: 1, TargetAmount: 4, Extra: 1})

	got, err := r.RecordPurchase(ctx, it.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentCount)
	assert.Equal(t, 4, got.TargetAmount)
	assert.Equal(t, 1, got.Extra)

	got, err = r.RecordPurchase(ctx, it.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 6, got.CurrentCount)

	for _, amount := range []int{0, -1} {
		_, err = r.RecordPurchase(ctx, it.ID, amount)
		var verr *apperr.ValidationError
		assert.ErrorAs(t, err, &verr, "amount %d", amount)
	}

	_, err = r.RecordPurchase(ctx, 999, 1)
	var nf *apperr.NotFoundError
	assert.ErrorAs(t, err, &nf)

	var logs []models.AuditLog
	require.NoError(t, db.Where("entity_id = ? AND action = ?", it.ID, models.AuditActionUpdate).Order("id").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Contains(t, logs[0].Description, "Bought 2")
}
