package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"policy-rag/internal/config"
	"policy-rag/internal/models"
)

// Item is one corpus row. The vector column's dimension is set by the DDL
// in InitDB, not by the model tag.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`
	ID            int       `bun:"id,pk"`
	Filename      string    `bun:"filename,notnull"`
	FileURL       string    `bun:"fileurl,notnull"`
	Page          string    `bun:"page,notnull"`
	DocType       string    `bun:"typedoc,notnull"`
	PageNumber    int       `bun:"pagenumber,notnull"`
	Chunk         int       `bun:"chunk,notnull"`
	Embedding     []float32 `bun:"embedding_3l"`
}

// ToPublic strips the embedding for client-facing use.
func (i Item) ToPublic() models.ItemPublic {
	return models.ItemPublic{
		ID:         i.ID,
		Filename:   i.Filename,
		FileURL:    i.FileURL,
		PageNumber: i.PageNumber,
		Chunk:      i.Chunk,
		Content:    i.Page,
		DocType:    i.DocType,
	}
}

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.DSN + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Password))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// itemsTableDDL renders the items table with the vector column sized to the
// configured embedding dimension.
func itemsTableDDL(dimension int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS items (
		id bigint PRIMARY KEY,
		filename text NOT NULL,
		fileurl text NOT NULL,
		page text NOT NULL,
		typedoc text NOT NULL,
		pagenumber bigint NOT NULL,
		chunk bigint NOT NULL,
		embedding_3l vector(%d)
	)`, dimension)
}

// InitDB creates the items table and the HNSW cosine index. The index
// operator must match the <=> operator used at query time.
func InitDB(ctx context.Context, db *bun.DB, dimension int) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, itemsTableDDL(dimension)); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS hnsw_index_for_cosine_items_embedding_3l
		ON items USING hnsw (embedding_3l vector_cosine_ops)
		WITH (m = 16, ef_construction = 64)`)
	return err
}

// StoreItems bulk-inserts the records of one ingestion run.
func StoreItems(ctx context.Context, db *bun.DB, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	items := make([]Item, len(records))
	for i, rec := range records {
		items[i] = Item{
			ID:         rec.ID,
			Filename:   rec.Filename,
			FileURL:    rec.FileURL,
			Page:       rec.Page,
			DocType:    rec.DocType,
			PageNumber: rec.PageNumber,
			Chunk:      rec.Chunk,
			Embedding:  rec.Embedding,
		}
	}
	_, err := db.NewInsert().Model(&items).Exec(ctx)
	return err
}

// DropItems removes the table; corpus replacement is a full re-ingestion.
func DropItems(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().Model((*Item)(nil)).IfExists().Exec(ctx)
	return err
}
