package search

import (
	"testing"
	"time"

	"example.com/backstage/services/picking/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestPickListDocument(t *testing.T) {
	wid := uuid.New()
	confirmed := time.Now()
	pl := &models.PickList{
		Base:        models.Base{ID: uuid.New(), CreatedAt: time.Now()},
		Route:       "R-North",
		Destination: "Oslo",
		WarehouseID: &wid,
		ConfirmedAt: &confirmed,
		Picks: []models.Pick{
			{Base: models.Base{ID: uuid.New()}, ProductID: uuid.New(), Amount: 3},
			{Base: models.Base{ID: uuid.New()}, ProductID: uuid.New(), Amount: 4},
		},
	}

	doc := PickListDocument(pl)
	require.Equal(t, pl.ID.String(), doc["id"])
	require.Equal(t, "R-North", doc["route"])
	require.Equal(t, 2, doc["pick_count"])
	require.Equal(t, 7, doc["total_amount"])
	require.Equal(t, wid.String(), doc["warehouse_id"])
	require.Contains(t, doc, "confirmed_at")
	require.NotContains(t, doc, "carrier_id")
	require.NotContains(t, doc, "finished_at")
}
