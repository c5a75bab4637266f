package leads

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	contractx "github.com/tanpawarit/chative-lead-qualifier/agent/contract"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type leadRow struct {
	bun.BaseModel `bun:"table:leads"`

	Timestamp  time.Time `bun:"timestamp,notnull"`
	ChatID     int64     `bun:"chat_id,notnull"`
	ClientName string    `bun:"client_name"`
	Contact    string    `bun:"contact"`
	Intent     string    `bun:"intent"`
	Notes      string    `bun:"notes"`
	Source     string    `bun:"source"`
	Status     string    `bun:"status"`
}

// PostgresBackend stores leads in the "leads" table, created on first write.
type PostgresBackend struct {
	db *bun.DB

	mu      sync.Mutex
	ensured bool
}

func NewPostgresBackend(dsn string) *PostgresBackend {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return NewPostgresBackendFromDB(sqldb)
}

func NewPostgresBackendFromDB(sqldb *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: bun.NewDB(sqldb, pgdialect.New())}
}

func (b *PostgresBackend) Name() string { return BackendPostgres }

func (b *PostgresBackend) Write(ctx context.Context, lead contractx.Lead) error {
	if err := b.ensureTable(ctx); err != nil {
		return err
	}

	row := leadRow{
		Timestamp:  lead.Timestamp.UTC(),
		ChatID:     lead.ChatID,
		ClientName: lead.ClientName,
		Contact:    lead.Contact,
		Intent:     lead.Intent,
		Notes:      lead.Notes,
		Source:     lead.Source,
		Status:     lead.Status,
	}
	if _, err := b.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert: %v", contractx.ErrLeadWrite, err)
	}
	return nil
}

func (b *PostgresBackend) Count(ctx context.Context) (int, error) {
	n, err := b.db.NewSelect().Model((*leadRow)(nil)).Count(ctx)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

func (b *PostgresBackend) ensureTable(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ensured {
		return nil
	}
	if _, err := b.db.NewCreateTable().Model((*leadRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("%w: create table: %v", contractx.ErrLeadWrite, err)
	}
	b.ensured = true
	return nil
}
