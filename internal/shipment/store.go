package shipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-kargo/internal/tariff"
)

// ErrShipmentNotFound is returned when a shipment id does not exist.
var ErrShipmentNotFound = errors.New("shipment not found")

// ListFilter narrows shipment listings.
type ListFilter struct {
	Status  *Status
	Page    int
	PerPage int
}

// ShipmentStore abstracts shipment persistence.
type ShipmentStore interface {
	Create(ctx context.Context, sh Shipment) (Shipment, error)
	Get(ctx context.Context, id uuid.UUID) (Shipment, error)
	List(ctx context.Context, filter ListFilter) ([]Shipment, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	Reprice(ctx context.Context, sh Shipment) (Shipment, error)
}

// Store persists shipments in postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs the postgres-backed shipment store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const shipmentColumns = `id, reference, status, total_cost::text, created_at, updated_at, repriced_at`

const itemColumns = `id, shipment_id, position, description, category, weight::text, quantity, declared_value::text, item_cost::text, tier_id, resolved`

// Create inserts a shipment and its items in one transaction.
func (s *Store) Create(ctx context.Context, sh Shipment) (Shipment, error) {
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Shipment{}, fmt.Errorf("begin shipment tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO shipments (id, reference, status, total_cost)
		VALUES ($1, $2, $3, $4)
		RETURNING `+shipmentColumns,
		sh.ID, sh.Reference, string(sh.Status), sh.TotalCost.String(),
	)
	created, err := scanShipment(row)
	if err != nil {
		return Shipment{}, fmt.Errorf("create shipment: %w", err)
	}
	if err := insertItems(ctx, tx, created.ID, sh.Items); err != nil {
		return Shipment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Shipment{}, fmt.Errorf("commit shipment tx: %w", err)
	}
	return s.Get(ctx, created.ID)
}

// Get fetches a shipment with its items.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Shipment, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+shipmentColumns+" FROM shipments WHERE id = $1", id)
	sh, err := scanShipment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Shipment{}, ErrShipmentNotFound
		}
		return Shipment{}, fmt.Errorf("get shipment: %w", err)
	}
	items, err := s.loadItems(ctx, id)
	if err != nil {
		return Shipment{}, err
	}
	sh.Items = items
	for _, item := range items {
		if !item.Resolved {
			sh.Unresolved++
		}
	}
	return sh, nil
}

// List returns shipments matching the filter, newest first, without items.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Shipment, int64, error) {
	where := "WHERE ($1::text IS NULL OR status = $1)"
	var statusArg any
	if filter.Status != nil {
		statusArg = string(*filter.Status)
	}

	var total int64
	if err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM shipments "+where, statusArg,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count shipments: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage < 1 {
		perPage = 20
	}
	rows, err := s.pool.Query(ctx,
		"SELECT "+shipmentColumns+" FROM shipments "+where+
			" ORDER BY created_at DESC LIMIT $2 OFFSET $3",
		statusArg, perPage, (page-1)*perPage,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list shipments: %w", err)
	}
	defer rows.Close()

	var shipments []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, 0, err
		}
		shipments = append(shipments, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan shipments: %w", err)
	}
	return shipments, total, nil
}

// UpdateStatus moves a shipment to a new lifecycle state.
func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE shipments SET status = $2, updated_at = now() WHERE id = $1",
		id, string(status))
	if err != nil {
		return fmt.Errorf("update shipment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrShipmentNotFound
	}
	return nil
}

// Reprice replaces a shipment's total and per-item pricing in one
// transaction. Items are matched by id; descriptions and weights never
// change on reprice.
func (s *Store) Reprice(ctx context.Context, sh Shipment) (Shipment, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Shipment{}, fmt.Errorf("begin reprice tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE shipments
		SET total_cost = $2, updated_at = now(), repriced_at = now()
		WHERE id = $1`,
		sh.ID, sh.TotalCost.String(),
	)
	if err != nil {
		return Shipment{}, fmt.Errorf("reprice shipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Shipment{}, ErrShipmentNotFound
	}
	for _, item := range sh.Items {
		var tierArg any
		if item.TierID != nil {
			tierArg = *item.TierID
		}
		if _, err := tx.Exec(ctx, `
			UPDATE shipment_items
			SET item_cost = $3, tier_id = $4, resolved = $5
			WHERE id = $1 AND shipment_id = $2`,
			item.ID, sh.ID, item.ItemCost.String(), tierArg, item.Resolved,
		); err != nil {
			return Shipment{}, fmt.Errorf("reprice shipment item: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Shipment{}, fmt.Errorf("commit reprice tx: %w", err)
	}
	return s.Get(ctx, sh.ID)
}

func (s *Store) loadItems(ctx context.Context, shipmentID uuid.UUID) ([]Item, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+itemColumns+" FROM shipment_items WHERE shipment_id = $1 ORDER BY position",
		shipmentID)
	if err != nil {
		return nil, fmt.Errorf("load shipment items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scan shipment items: %w", err)
	}
	return items, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, shipmentID uuid.UUID, items []Item) error {
	for i, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		var tierArg any
		if item.TierID != nil {
			tierArg = *item.TierID
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO shipment_items
				(id, shipment_id, position, description, category, weight, quantity, declared_value, item_cost, tier_id, resolved)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			item.ID, shipmentID, i, item.Description, string(item.Category),
			item.Weight.String(), item.Quantity, item.DeclaredValue.String(),
			item.ItemCost.String(), tierArg, item.Resolved,
		); err != nil {
			return fmt.Errorf("insert shipment item: %w", err)
		}
	}
	return nil
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		sh     Shipment
		status string
		total  string
	)
	if err := row.Scan(&sh.ID, &sh.Reference, &status, &total, &sh.CreatedAt, &sh.UpdatedAt, &sh.RepricedAt); err != nil {
		return Shipment{}, err
	}
	sh.Status = Status(status)
	var err error
	if sh.TotalCost, err = decimal.NewFromString(total); err != nil {
		return Shipment{}, fmt.Errorf("parse total_cost: %w", err)
	}
	return sh, nil
}

func scanItem(row pgx.Row) (Item, error) {
	var (
		item     Item
		category string
		weight   string
		declared string
		cost     string
	)
	if err := row.Scan(&item.ID, &item.ShipmentID, &item.Position, &item.Description, &category,
		&weight, &item.Quantity, &declared, &cost, &item.TierID, &item.Resolved); err != nil {
		return Item{}, err
	}
	item.Category = tariff.Category(category)
	var err error
	if item.Weight, err = decimal.NewFromString(weight); err != nil {
		return Item{}, fmt.Errorf("parse weight: %w", err)
	}
	if item.DeclaredValue, err = decimal.NewFromString(declared); err != nil {
		return Item{}, fmt.Errorf("parse declared_value: %w", err)
	}
	if item.ItemCost, err = decimal.NewFromString(cost); err != nil {
		return Item{}, fmt.Errorf("parse item_cost: %w", err)
	}
	return item, nil
}
