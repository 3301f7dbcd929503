package subscriber

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/abgdnv/rocketcart/pkg/messaging"
	"github.com/abgdnv/rocketcart/pkg/messaging/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel"
)

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Subject() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Nak() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

func newHandler(w io.Writer) *handler {
	return &handler{logger: slog.New(slog.NewJSONHandler(w, nil)), tracer: otel.Tracer("test")}
}

func Test_handleMessage(t *testing.T) {
	notification, _ := json.Marshal(events.CartNotificationEvent{
		Message:   "Quantidade solicitada fora de estoque",
		Kind:      "error",
		CreatedAt: time.Now(),
	})
	updated, _ := json.Marshal(events.CartUpdatedEvent{
		Operation: "add",
		ProductID: 1,
		Lines:     []events.CartLine{{ProductID: 1, Amount: 2}},
		Total:     "359.8",
		UpdatedAt: time.Now(),
	})
	testCases := []struct {
		name       string
		newMockMsg func() *mockAckableMsg
		expectLog  string
	}{
		{
			name: "valid notification",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.CartNotificationsSubject)
				msg.On("Data").Return(notification).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			expectLog: "Quantidade solicitada fora de estoque",
		},
		{
			name: "valid cart update",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.CartUpdatedSubject)
				msg.On("Data").Return(updated).Times(1)
				msg.On("Ack").Return(nil).Times(1)
				return msg
			},
			expectLog: `"total":"359.8"`,
		},
		{
			name: "invalid message",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return(messaging.CartNotificationsSubject)
				msg.On("Data").Return([]byte("invalid data")).Times(1)
				msg.On("Nak").Return(nil).Times(1)
				return msg
			},
			expectLog: "failed to unmarshal message",
		},
		{
			name: "unknown subject",
			newMockMsg: func() *mockAckableMsg {
				msg := new(mockAckableMsg)
				msg.On("Subject").Return("orders.created")
				msg.On("Term").Return(nil).Times(1)
				return msg
			},
			expectLog: "unexpected subject",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			var buf bytes.Buffer
			mockMsg := tc.newMockMsg()

			// when
			newHandler(&buf).handleMessage(context.Background(), mockMsg)

			// then
			mockMsg.AssertExpectations(t)
			assert.Contains(t, buf.String(), tc.expectLog)
		})
	}
}
