package integration

import (
	"context"
	"net/http"
	"os"
	"testing"

	"github.com/shopspring/decimal"

	adaptershttp "github.com/herdpool/herdpool/internal/adapter/http"
	"github.com/herdpool/herdpool/internal/adapter/http/handler"
	"github.com/herdpool/herdpool/internal/adapter/repository/postgres"
	redisrepo "github.com/herdpool/herdpool/internal/adapter/repository/redis"
	infraredis "github.com/herdpool/herdpool/internal/infrastructure/redis"
	"github.com/herdpool/herdpool/internal/usecase"
	"github.com/herdpool/herdpool/tests/testutil"
)

// fakeGateway stands in for the payment processor. Flows funded from wallets
// never reach it; external-funding tests set the hooks.
type fakeGateway struct {
	initializeFn func(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayCheckout, error)
	verifyFn     func(ctx context.Context, reference string) (*usecase.GatewayVerification, error)
}

func (g *fakeGateway) Initialize(ctx context.Context, email string, amount decimal.Decimal, callbackURL string) (*usecase.GatewayCheckout, error) {
	if g.initializeFn != nil {
		return g.initializeFn(ctx, email, amount, callbackURL)
	}
	return &usecase.GatewayCheckout{
		Reference:   "PS-" + testutil.GenerateID(),
		RedirectURL: "https://checkout.example.com/" + testutil.GenerateID(),
	}, nil
}

func (g *fakeGateway) Verify(ctx context.Context, reference string) (*usecase.GatewayVerification, error) {
	if g.verifyFn != nil {
		return g.verifyFn(ctx, reference)
	}
	return &usecase.GatewayVerification{Status: "success"}, nil
}

// testEnv wires the full stack against real Postgres and Redis.
type testEnv struct {
	Router     http.Handler
	Wallets    *usecase.WalletUseCase
	Payments   *usecase.PaymentUseCase
	Groups     *usecase.GroupUseCase
	Reaper     *usecase.ReaperUseCase
	OutboxRepo *postgres.OutboxRepository
	IntentRepo *postgres.IntentRepository
	GroupRepo  *postgres.GroupRepository
	Gateway    *fakeGateway
}

func newTestEnv(t *testing.T, testDB *testutil.TestDB) *testEnv {
	t.Helper()

	ctx := context.Background()
	pool := testDB.Pool

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	redisClient, err := infraredis.NewClient(ctx, redisURL)
	if err != nil {
		t.Fatalf("failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { _ = redisClient.Close() })

	txManager := postgres.NewTxManager(pool)
	walletRepo := postgres.NewWalletRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	groupRepo := postgres.NewGroupRepository(pool)
	participationRepo := postgres.NewParticipationRepository(pool)
	intentRepo := postgres.NewIntentRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	listingRepo := postgres.NewListingRepository(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier()

	cache := redisrepo.NewCache(redisClient)
	idempotencyStore := redisrepo.NewIdempotencyStore(redisClient)

	gateway := &fakeGateway{}

	walletUC := usecase.NewWalletUseCase(txManager, walletRepo, entryRepo, outboxRepo, auditRepo, idGen, retrier, nil)
	paymentUC := usecase.NewPaymentUseCase(intentRepo, gateway, idGen, nil)
	groupUC := usecase.NewGroupUseCase(txManager, groupRepo, participationRepo, outboxRepo, auditRepo,
		walletUC, paymentUC, listingRepo, cache, idGen, retrier, nil)
	reaperUC := usecase.NewReaperUseCase(intentRepo, groupRepo, nil)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		WalletHandler:    handler.NewWalletHandler(walletUC),
		GroupHandler:     handler.NewGroupHandler(groupUC, "https://herdpool.example.com/callback"),
		PaymentHandler:   handler.NewPaymentHandler(paymentUC, groupUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
	})

	return &testEnv{
		Router:     router,
		Wallets:    walletUC,
		Payments:   paymentUC,
		Groups:     groupUC,
		Reaper:     reaperUC,
		OutboxRepo: outboxRepo,
		IntentRepo: intentRepo,
		GroupRepo:  groupRepo,
		Gateway:    gateway,
	}
}
