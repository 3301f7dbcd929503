package subscriber

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/rocketcart/pkg/config"
	"github.com/abgdnv/rocketcart/pkg/messaging"
	"github.com/abgdnv/rocketcart/pkg/messaging/events"
	pnats "github.com/abgdnv/rocketcart/pkg/nats"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/nats"
	"golang.org/x/sync/errgroup"
)

// skipIntegrationTests is the environment variable that controls whether to skip integration tests.
const skipIntegrationTests = "NOTIFICATION_SVC_SKIP_INTEGRATION_TESTS"
const natsImg = "nats:2.11.6-alpine"

// SubscriberSuite runs the consumer against a real JetStream server.
type SubscriberSuite struct {
	suite.Suite
	ctx           context.Context
	logger        *slog.Logger
	natsContainer *nats.NATSContainer
	nc            *natsgo.Conn
	js            jetstream.JetStream
}

func (s *SubscriberSuite) SetupSuite() {
	s.ctx = context.Background()
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var err error
	s.natsContainer, err = nats.Run(s.ctx, natsImg)
	require.NoError(s.T(), err, "Failed to run NATS container")

	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err)
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second)
	require.NoError(s.T(), err, "Failed to connect to NATS")

	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err, "Failed to get JetStream context")
}

func (s *SubscriberSuite) TearDownSuite() {
	if s.nc != nil {
		s.nc.Close()
	}
	if err := testcontainers.TerminateContainer(s.natsContainer); err != nil {
		s.logger.Error("Failed to terminate NATS container", "error", err)
	}
}

func TestSubscriberIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	suite.Run(t, new(SubscriberSuite))
}

type TestCaseConfig struct {
	name    string
	publish func(ctx context.Context, publisher messaging.Publisher, js jetstream.JetStream) error
	// acked is the stream sequence every message up to which must be acknowledged or terminated.
	acked uint64
}

func (s *SubscriberSuite) TestReceiveMessage() {
	testCases := []TestCaseConfig{
		{
			name: "cart notification and cart update",
			publish: func(ctx context.Context, publisher messaging.Publisher, _ jetstream.JetStream) error {
				if err := publisher.Publish(ctx, events.CartNotificationEvent{Message: "Erro na remoção do produto", Kind: "error", CreatedAt: time.Now()}); err != nil {
					return err
				}
				return publisher.Publish(ctx, events.CartUpdatedEvent{Operation: "remove", ProductID: 1, Lines: []events.CartLine{}, Total: "0", UpdatedAt: time.Now()})
			},
			acked: 2,
		},
		{
			name: "invalid payload does not stop the worker",
			publish: func(ctx context.Context, publisher messaging.Publisher, js jetstream.JetStream) error {
				if _, err := js.Publish(ctx, messaging.CartNotificationsSubject, []byte("invalid payload")); err != nil {
					return err
				}
				return publisher.Publish(ctx, events.CartNotificationEvent{Message: "ok", Kind: "error", CreatedAt: time.Now()})
			},
		},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.runTest(&tc)
		})
	}
}

func (s *SubscriberSuite) runTest(tc *TestCaseConfig) {
	// given
	streamName := "CART_" + uuid.NewString()
	consumerName := "CONSUMER_" + uuid.NewString()
	require.NoError(s.T(), pnats.EnsureStream(s.ctx, s.js, streamName, []string{"cart.>"}))
	s.T().Cleanup(func() { _ = s.js.DeleteStream(context.Background(), streamName) })

	testCtx, testCancel := context.WithTimeout(s.ctx, 10*time.Second)
	g, gCtx := errgroup.WithContext(testCtx)
	s.T().Cleanup(func() {
		testCancel()
		err := g.Wait()
		require.ErrorIs(s.T(), err, context.Canceled)
	})

	cfgSubscriber := config.SubscriberConfig{
		Stream:   streamName,
		Subject:  "cart.>",
		Consumer: consumerName,
		Batch:    5,
		Timeout:  200 * time.Millisecond,
		Interval: 200 * time.Millisecond,
		Workers:  1,
	}
	g.Go(func() error {
		return Start(gCtx, s.js, cfgSubscriber, s.logger)
	})

	// when
	require.NoError(s.T(), tc.publish(s.ctx, pnats.NewNatsPublisher(s.js), s.js))

	// then
	require.Eventually(s.T(), func() bool {
		consumer, err := s.js.Consumer(s.ctx, streamName, consumerName)
		if err != nil {
			return false
		}
		info, err := consumer.Info(s.ctx)
		if err != nil {
			return false
		}
		if tc.acked > 0 {
			return info.NumPending == 0 && info.NumAckPending == 0 && info.AckFloor.Stream == tc.acked
		}
		// the invalid message is redelivered after a nak, the valid one is acked
		return info.NumPending == 0 && info.Delivered.Stream == 2
	}, 8*time.Second, 100*time.Millisecond, "messages were not consumed in time")
}
