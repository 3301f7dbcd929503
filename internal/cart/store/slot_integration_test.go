package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abgdnv/rocketcart/pkg/bootstrap"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "CART_SVC_SKIP_INTEGRATION_TESTS"

// SlotSuite runs the PostgreSQL and Redis slots against real servers.
type SlotSuite struct {
	suite.Suite
	pgContainer    *postgres.PostgresContainer
	redisContainer testcontainers.Container
	dbPool         *pgxpool.Pool
	redisClient    *redis.Client
	logger         *slog.Logger
	ctx            context.Context
}

func (s *SlotSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. PostgreSQL with the cart_snapshots table.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("cart"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.dbPool, err = bootstrap.NewDbPool(s.ctx, connStr, 30*time.Second)
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL")

	wd, _ := os.Getwd()
	require.NoError(s.T(), bootstrap.Migrate("file://"+filepath.Join(wd, "..", "migrations"), connStr), "Failed to apply migrations")

	// 2. Redis.
	s.redisContainer, err = testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(s.T(), err, "Failed to run Redis container")

	host, err := s.redisContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.redisContainer.MappedPort(s.ctx, "6379")
	require.NoError(s.T(), err)

	s.redisClient, err = bootstrap.NewRedisClient(s.ctx, fmt.Sprintf("%s:%s", host, port.Port()), "", 0, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to Redis")
}

func (s *SlotSuite) TearDownSuite() {
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate PostgreSQL container", "error", err)
		}
	}
	if s.redisContainer != nil {
		if err := s.redisContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate Redis container", "error", err)
		}
	}
}

func (s *SlotSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE cart_snapshots")
	require.NoError(s.T(), err)
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
}

func TestSlotIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(SlotSuite))
}

func (s *SlotSuite) slots() map[string]Slot {
	return map[string]Slot{
		"postgres": NewPgSlot(s.dbPool),
		"redis":    NewRedisSlot(s.redisClient),
	}
}

func (s *SlotSuite) Test_Slot_EmptyThenOverwrite() {
	for name, slot := range s.slots() {
		s.Run(name, func() {
			// given
			_, err := slot.Read(s.ctx, DefaultKey)
			assert.ErrorIs(s.T(), err, ErrSlotEmpty)

			// when
			s.Require().NoError(slot.Write(s.ctx, DefaultKey, []byte("[]")))
			s.Require().NoError(slot.Write(s.ctx, DefaultKey, []byte(`[{"id":1}]`)))
			got, err := slot.Read(s.ctx, DefaultKey)

			// then
			s.Require().NoError(err)
			assert.Equal(s.T(), `[{"id":1}]`, string(got))
		})
	}
}

func (s *SlotSuite) Test_SnapshotStore_RoundTrip() {
	for name, slot := range s.slots() {
		s.Run(name, func() {
			// given
			store := NewSnapshotStore(slot, "")
			s.Require().NoError(store.OnMutated(s.ctx, sampleCart()))

			// when
			c, err := store.Load(s.ctx)

			// then
			s.Require().NoError(err)
			assert.Equal(s.T(), sampleCart().Quantities(), c.Quantities())
		})
	}
}
