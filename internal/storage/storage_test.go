package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testTrade(orderID string) *types.Trade {
	return &types.Trade{
		ID:           "trade-" + orderID,
		Exchange:     "polymarket",
		VenueOrderID: orderID,
		MarketID:     "m1",
		TokenID:      "yes-tok",
		Outcome:      "YES",
		Side:         types.Buy,
		Price:        types.PriceFromFloat(0.48),
		Size:         types.WholeShares(20),
		Fee:          0.096,
		Timestamp:    time.Now(),
	}
}

func TestConsoleSinkRecords(t *testing.T) {
	sink := NewConsoleSink(zap.NewNop())
	defer sink.Close()

	err := sink.Record(context.Background(), testTrade("ord-1"))
	require.NoError(t, err)
}

func TestConsoleSinkIdempotent(t *testing.T) {
	sink := NewConsoleSink(zap.NewNop())
	defer sink.Close()

	ctx := context.Background()
	require.NoError(t, sink.Record(ctx, testTrade("ord-1")))
	// Replaying the same (exchange, venue_order_id) is a no-op.
	require.NoError(t, sink.Record(ctx, testTrade("ord-1")))
	require.NoError(t, sink.Record(ctx, testTrade("ord-2")))
}

func TestPostgresSinkInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSinkWithDB(db, zap.NewNop())
	trade := testTrade("ord-1")

	mock.ExpectExec("INSERT INTO trades").
		WithArgs(
			trade.ID,
			trade.Exchange,
			trade.VenueOrderID,
			trade.MarketID,
			trade.TokenID,
			trade.Outcome,
			string(trade.Side),
			trade.Price.Decimal(),
			trade.Size.Decimal(),
			trade.Fee,
			trade.Timestamp,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = sink.Record(context.Background(), trade)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ON CONFLICT DO NOTHING reports zero rows for a duplicate; Record treats
// that as success.
func TestPostgresSinkDuplicateIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSinkWithDB(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO trades").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = sink.Record(context.Background(), testTrade("ord-1"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sink := NewPostgresSinkWithDB(db, zap.NewNop())

	mock.ExpectExec("INSERT INTO trades").
		WillReturnError(assert.AnError)

	err = sink.Record(context.Background(), testTrade("ord-1"))
	require.Error(t, err)
}
