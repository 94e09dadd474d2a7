package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/herdpool/herdpool/internal/domain"
)

// ListingRepository implements usecase.LivestockCatalog over the local
// listings table. Catalog data is seeded through the CLI.
type ListingRepository struct {
	pool *pgxpool.Pool
}

// NewListingRepository creates a new ListingRepository.
func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{pool: pool}
}

// GetListing retrieves a listing by livestock ID.
func (r *ListingRepository) GetListing(ctx context.Context, livestockID string) (*domain.Listing, error) {
	query := `SELECT id, price, minimum_amount FROM listings WHERE id = $1`

	var (
		listing domain.Listing
		price   pgtype.Numeric
		minimum pgtype.Numeric
	)

	err := r.pool.QueryRow(ctx, query, livestockID).Scan(&listing.ID, &price, &minimum)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrListingNotFound
		}
		return nil, err
	}

	listing.Price = numericToDecimal(price)
	listing.MinimumAmount = numericToDecimal(minimum)

	return &listing, nil
}

// Upsert inserts or replaces a listing.
func (r *ListingRepository) Upsert(ctx context.Context, listing *domain.Listing) error {
	query := `
		INSERT INTO listings (id, price, minimum_amount, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET price = EXCLUDED.price, minimum_amount = EXCLUDED.minimum_amount
	`

	_, err := r.pool.Exec(ctx, query,
		listing.ID,
		decimalToNumeric(listing.Price),
		decimalToNumeric(listing.MinimumAmount),
		timeToPgTimestamptz(time.Now().UTC()),
	)

	return err
}
