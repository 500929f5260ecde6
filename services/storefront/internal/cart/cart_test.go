package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawmart/storefront/services/storefront/internal/domain"
	"github.com/pawmart/storefront/services/storefront/internal/localstore"
	"github.com/pawmart/storefront/services/storefront/internal/notify"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCart(t *testing.T, store localstore.Store) (*Container, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	return New(context.Background(), store, rec, quietLogger()), rec
}

var bone = domain.Product{ID: "1", Name: "Bone", Price: 100}

type failingStore struct {
	*localstore.Memory
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("disk full")
}

// ---------------------------------------------------------------------------
// Add
// ---------------------------------------------------------------------------

func TestAdd_SameProductSumsQuantity(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())

	for _, q := range []int{1, 4, 2, 3} {
		require.NoError(t, c.Add(ctx, bone, q))
	}

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}

func TestAdd_CarriedQuantityWins(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	require.NoError(t, c.Add(ctx, bone, 1))

	withQty := bone
	withQty.Quantity = 5
	require.NoError(t, c.Add(ctx, withQty, 2))

	assert.Equal(t, 6, c.Items()[0].Quantity)
}

func TestAdd_OverwritesVariantWhenGiven(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())

	first := bone
	first.SelectedColor, first.SelectedSize = "red", "S"
	require.NoError(t, c.Add(ctx, first, 1))

	second := bone
	second.SelectedSize = "L"
	require.NoError(t, c.Add(ctx, second, 1))

	item := c.Items()[0]
	assert.Equal(t, "red", item.SelectedColor)
	assert.Equal(t, "L", item.SelectedSize)
}

func TestAddOne(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	require.NoError(t, c.AddOne(ctx, bone))
	require.NoError(t, c.AddOne(ctx, bone))
	assert.Equal(t, 2, c.Count())
}

// ---------------------------------------------------------------------------
// Remove / UpdateQuantity / Clear
// ---------------------------------------------------------------------------

func TestUpdateQuantity_BelowOneIsRemove(t *testing.T) {
	ctx := context.Background()
	for _, q := range []int{0, -1, -50} {
		viaUpdate, recU := newCart(t, localstore.NewMemory())
		viaRemove, recR := newCart(t, localstore.NewMemory())
		for _, c := range []*Container{viaUpdate, viaRemove} {
			require.NoError(t, c.Add(ctx, bone, 2))
			require.NoError(t, c.Add(ctx, domain.Product{ID: "2", Price: 5}, 1))
		}

		require.NoError(t, viaUpdate.UpdateQuantity(ctx, "1", q))
		require.NoError(t, viaRemove.Remove(ctx, "1"))

		assert.Equal(t, viaRemove.Items(), viaUpdate.Items())
		assert.Equal(t, recR.Entries(), recU.Entries())
	}
}

func TestUpdateQuantity_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	require.NoError(t, c.Add(ctx, bone, 2))
	require.NoError(t, c.Add(ctx, domain.Product{ID: "2", Price: 5}, 1))

	require.NoError(t, c.UpdateQuantity(ctx, "1", 7))

	items := c.Items()
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 7, items[0].Quantity)

	// Unknown product: nothing changes.
	require.NoError(t, c.UpdateQuantity(ctx, "missing", 3))
	assert.Len(t, c.Items(), 2)
}

func TestRemoveAndClear_Notify(t *testing.T) {
	ctx := context.Background()
	c, rec := newCart(t, localstore.NewMemory())
	require.NoError(t, c.Add(ctx, bone, 1))

	require.NoError(t, c.Remove(ctx, "1"))
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, []string{"Item removed from cart", "Cart cleared"}, rec.Messages(notify.LevelInfo))
	assert.Empty(t, c.Items())
}

func TestReset_IsSilent(t *testing.T) {
	ctx := context.Background()
	c, rec := newCart(t, localstore.NewMemory())
	require.NoError(t, c.Add(ctx, bone, 1))

	require.NoError(t, c.Reset(ctx))

	assert.Empty(t, c.Items())
	assert.Empty(t, rec.Entries())
}

// ---------------------------------------------------------------------------
// Totals
// ---------------------------------------------------------------------------

func TestTotal_TracksEveryChange(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	assert.Equal(t, int64(0), c.Total())

	require.NoError(t, c.Add(ctx, bone, 2))
	require.NoError(t, c.Add(ctx, domain.Product{ID: "2", Price: 250}, 3))
	assert.Equal(t, int64(2*100+3*250), c.Total())

	require.NoError(t, c.UpdateQuantity(ctx, "2", 1))
	assert.Equal(t, int64(450), c.Total())

	require.NoError(t, c.Remove(ctx, "1"))
	assert.Equal(t, int64(250), c.Total())

	var sum int64
	for _, item := range c.Items() {
		sum += item.Price * int64(item.Quantity)
	}
	assert.Equal(t, sum, c.Total())
}

func TestScenario_AddAddUpdateToZero(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	product := domain.Product{ID: "1", Price: 100}

	require.NoError(t, c.Add(ctx, product, 2))
	assert.Equal(t, int64(200), c.Total())

	require.NoError(t, c.Add(ctx, product, 3))
	require.Len(t, c.Items(), 1)
	assert.Equal(t, 5, c.Items()[0].Quantity)
	assert.Equal(t, int64(500), c.Total())

	require.NoError(t, c.UpdateQuantity(ctx, "1", 0))
	assert.Empty(t, c.Items())
	assert.Equal(t, int64(0), c.Total())
}

// ---------------------------------------------------------------------------
// Persistence
// ---------------------------------------------------------------------------

func TestPersistence_RestoredOnNew(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	c, _ := newCart(t, store)
	require.NoError(t, c.Add(ctx, bone, 3))

	restored, _ := newCart(t, store)
	assert.Equal(t, c.Items(), restored.Items())
	assert.Equal(t, int64(300), restored.Total())
}

func TestPersistence_LegacyArrayIsMigrated(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	require.NoError(t, store.Save(ctx, localstore.KeyCart, []byte(`[{"id":"1","name":"Bone","price":100,"quantity":2}]`)))

	c, _ := newCart(t, store)
	assert.Equal(t, int64(200), c.Total())

	require.NoError(t, c.AddOne(ctx, bone))
	data, err := store.Load(ctx, localstore.KeyCart)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":1`)
}

func TestPersistence_CorruptSnapshotStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := localstore.NewMemory()
	require.NoError(t, store.Save(ctx, localstore.KeyCart, []byte(`{"version":7,"items":[]}`)))

	c, _ := newCart(t, store)
	assert.Empty(t, c.Items())

	require.NoError(t, store.Save(ctx, localstore.KeyCart, []byte(`garbage`)))
	c, _ = newCart(t, store)
	assert.Empty(t, c.Items())
}

func TestPersistence_WriteFailureKeepsMemoryState(t *testing.T) {
	c, _ := newCart(t, failingStore{localstore.NewMemory()})

	err := c.Add(context.Background(), bone, 1)
	require.Error(t, err)
	assert.Len(t, c.Items(), 1)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	var seen []int
	stop := c.Subscribe(func(items []domain.CartItem) { seen = append(seen, domain.CartCount(items)) })

	require.NoError(t, c.Add(ctx, bone, 2))
	require.NoError(t, c.Add(ctx, bone, 1))
	stop()
	require.NoError(t, c.Clear(ctx))

	assert.Equal(t, []int{2, 3}, seen)
}

func TestItems_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c, _ := newCart(t, localstore.NewMemory())
	require.NoError(t, c.Add(ctx, bone, 1))

	items := c.Items()
	items[0].Quantity = 99
	assert.Equal(t, 1, c.Items()[0].Quantity)
	assert.True(t, c.Contains("1"))
	assert.False(t, c.Contains("2"))
}
