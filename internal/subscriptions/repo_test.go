package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/danilompg/sitescope-backend/pkg/db/models"
	"github.com/danilompg/sitescope-backend/pkg/enums"
)

// Postgres owns id generation in the real schema, so the test table is
// declared by hand instead of auto-migrated.
const createSubscriptionsTable = `
CREATE TABLE subscriptions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	stripe_subscription_id TEXT NOT NULL UNIQUE,
	status TEXT NOT NULL,
	price_id TEXT,
	current_period_end DATETIME,
	created_at DATETIME,
	updated_at DATETIME
)`

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.Exec(createSubscriptionsTable).Error; err != nil {
		t.Fatalf("failed to create table: %v", err)
	}
	return conn
}

func TestUpsert_InsertsThenRefreshesSameProcessorID(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	first := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeSubscriptionID: "sub_upsert",
		Status:               enums.SubscriptionStatusActive,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	priceID := "price_annual"
	periodEnd := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	second := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               userID,
		StripeSubscriptionID: "sub_upsert",
		Status:               enums.SubscriptionStatusPastDue,
		PriceID:              &priceID,
		CurrentPeriodEnd:     &periodEnd,
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert must not trip the unique index: %v", err)
	}

	var count int64
	if err := repo.db.Model(&models.Subscription{}).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single row for the processor id, got %d", count)
	}

	got, err := repo.FindByStripeID(ctx, "sub_upsert")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got == nil {
		t.Fatal("expected a row")
	}
	if got.Status != enums.SubscriptionStatusPastDue {
		t.Fatalf("expected refreshed status, got %s", got.Status)
	}
	if got.PriceID == nil || *got.PriceID != priceID {
		t.Fatalf("expected refreshed price id, got %v", got.PriceID)
	}
	if got.ID != first.ID {
		t.Fatalf("expected the original row to survive, got id %s", got.ID)
	}
}

func TestUpdateStatusByStripeID_ReportsRowsAffected(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	ctx := context.Background()

	sub := &models.Subscription{
		ID:                   uuid.New(),
		UserID:               uuid.New(),
		StripeSubscriptionID: "sub_rows",
		Status:               enums.SubscriptionStatusActive,
	}
	if err := repo.Create(ctx, sub); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := repo.UpdateStatusByStripeID(ctx, "sub_rows", enums.SubscriptionStatusPastDue)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one row updated, got %d", rows)
	}

	rows, err = repo.UpdateStatusByStripeID(ctx, "sub_missing", enums.SubscriptionStatusActive)
	if err != nil {
		t.Fatalf("update missing: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected zero rows for unknown id, got %d", rows)
	}
}
