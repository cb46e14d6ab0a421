package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgevents "github.com/greencycle/ewaste-exchange/pkg/events"
)

func TestDecodeBidPlaced(t *testing.T) {
	bidID := uuid.New()
	bidderID := uuid.New()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	body, err := json.Marshal(pkgevents.BidPlacedPayload{
		BidID:     bidID.String(),
		ItemID:    uuid.New().String(),
		BidderID:  bidderID.String(),
		Amount:    "19.99",
		Timestamp: ts,
	})
	require.NoError(t, err)

	event, err := decodeBidPlaced(body)
	require.NoError(t, err)
	assert.Equal(t, bidID, event.EventID, "bid id doubles as the idempotency key")
	assert.Equal(t, bidderID, event.BidderID)
	assert.Equal(t, "19.99", event.Amount.String())
	assert.Equal(t, ts, event.Timestamp)
}

func TestDecodeBidPlaced_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `%%%`},
		{name: "bad bid id", body: `{"bidId":"nope","bidderId":"` + uuid.New().String() + `","amount":"1"}`},
		{name: "bad bidder id", body: `{"bidId":"` + uuid.New().String() + `","bidderId":"nope","amount":"1"}`},
		{name: "bad amount", body: `{"bidId":"` + uuid.New().String() + `","bidderId":"` + uuid.New().String() + `","amount":"a lot"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBidPlaced([]byte(tt.body))
			assert.Error(t, err)
		})
	}
}
