package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/types"
	"go.uber.org/zap"
)

// PostgresSink persists trades to Postgres. The unique index on
// (exchange, venue_order_id) plus ON CONFLICT DO NOTHING makes Record
// idempotent.
type PostgresSink struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds connection parameters.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
	id              TEXT PRIMARY KEY,
	exchange        TEXT NOT NULL,
	venue_order_id  TEXT NOT NULL,
	market_id       TEXT NOT NULL,
	token_id        TEXT NOT NULL,
	outcome         TEXT NOT NULL,
	side            TEXT NOT NULL,
	price           NUMERIC(10,6) NOT NULL,
	size            NUMERIC(14,4) NOT NULL,
	fee             NUMERIC(12,6) NOT NULL,
	executed_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (exchange, venue_order_id)
)`

const insertTrade = `
INSERT INTO trades (id, exchange, venue_order_id, market_id, token_id, outcome, side, price, size, fee, executed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (exchange, venue_order_id) DO NOTHING`

// NewPostgresSink opens the connection and ensures the schema exists.
func NewPostgresSink(cfg *PostgresConfig) (*PostgresSink, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	_, err = db.ExecContext(ctx, createTradesTable)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create trades table: %w", err)
	}

	cfg.Logger.Info("postgres-trade-sink-initialized",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresSink{db: db, logger: cfg.Logger}, nil
}

// NewPostgresSinkWithDB wraps an existing connection; used by tests.
func NewPostgresSinkWithDB(db *sql.DB, logger *zap.Logger) *PostgresSink {
	return &PostgresSink{db: db, logger: logger}
}

// Record inserts one trade leg, ignoring duplicates.
func (p *PostgresSink) Record(ctx context.Context, trade *types.Trade) error {
	res, err := p.db.ExecContext(ctx, insertTrade,
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
	)
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		p.logger.Debug("duplicate-trade-ignored",
			zap.String("exchange", trade.Exchange),
			zap.String("venue-order-id", trade.VenueOrderID))
		return nil
	}

	TradesRecordedTotal.WithLabelValues(trade.Exchange, string(trade.Side)).Inc()

	return nil
}

// Close closes the database connection.
func (p *PostgresSink) Close() error {
	p.logger.Info("closing-postgres-trade-sink")
	return p.db.Close()
}
