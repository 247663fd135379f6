package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aiguy110/pig-pen-harness/internal/model"
)

// BotRepo handles bot (uploaded strategy component) database operations.
type BotRepo struct {
	db *sql.DB
}

// NewBotRepo creates a BotRepo.
func NewBotRepo(db *sql.DB) *BotRepo {
	return &BotRepo{db: db}
}

// FindByHash looks up a bot by the SHA-256 hash of its component bytes.
// Returns nil, nil if no bot has that hash.
func (r *BotRepo) FindByHash(ctx context.Context, hash string) (*model.Bot, error) {
	var b model.Bot
	var description sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, wasm_hash, file_path, created_at
		 FROM bots WHERE wasm_hash = $1`,
		hash,
	).Scan(&b.ID, &b.Name, &description, &b.WasmHash, &b.FilePath, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bot by hash: %w", err)
	}
	b.Description = description.String
	return &b, nil
}

// FindByID looks up a bot by its UUID.
func (r *BotRepo) FindByID(ctx context.Context, id string) (*model.Bot, error) {
	var b model.Bot
	var description sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, wasm_hash, file_path, created_at
		 FROM bots WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &description, &b.WasmHash, &b.FilePath, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bot by id: %w", err)
	}
	b.Description = description.String
	return &b, nil
}

// Create inserts a new bot record. id is generated by the caller (uuid.New)
// so it can be embedded in the stored component's file path.
func (r *BotRepo) Create(ctx context.Context, id, name, description, hash, filePath string) (*model.Bot, error) {
	var b model.Bot
	var desc sql.NullString
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bots (id, name, description, wasm_hash, file_path)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, name, description, wasm_hash, file_path, created_at`,
		id, name, nullable(description), hash, filePath,
	).Scan(&b.ID, &b.Name, &desc, &b.WasmHash, &b.FilePath, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}
	b.Description = desc.String
	return &b, nil
}

// List returns all bots, most recently uploaded first.
func (r *BotRepo) List(ctx context.Context) ([]model.Bot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, wasm_hash, file_path, created_at
		 FROM bots ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	defer rows.Close()

	var bots []model.Bot
	for rows.Next() {
		var b model.Bot
		var description sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &description, &b.WasmHash, &b.FilePath, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bot: %w", err)
		}
		b.Description = description.String
		bots = append(bots, b)
	}
	return bots, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
