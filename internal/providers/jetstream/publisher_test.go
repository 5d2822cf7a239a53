package jetstream_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsjs "github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-editions/internal/logger"
	"github.com/feral-file/ff-editions/internal/mocks"
	"github.com/feral-file/ff-editions/internal/providers/jetstream"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

type testPublisherMocks struct {
	ctrl   *gomock.Controller
	natsJS *mocks.MockNatsJetStream
	conn   *mocks.MockNatsConn
	js     *mocks.MockJetStream
}

func setupTestPublisher(t *testing.T) *testPublisherMocks {
	ctrl := gomock.NewController(t)
	return &testPublisherMocks{
		ctrl:   ctrl,
		natsJS: mocks.NewMockNatsJetStream(ctrl),
		conn:   mocks.NewMockNatsConn(ctrl),
		js:     mocks.NewMockJetStream(ctrl),
	}
}

func testConfig() jetstream.Config {
	return jetstream.Config{
		URL:            "nats://localhost:4222",
		StreamName:     "EDITIONS",
		SubjectPrefix:  "editions",
		MaxReconnects:  10,
		ReconnectWait:  2 * time.Second,
		ConnectionName: "ff-editions-test",
	}
}

func TestNewPublisher_EnsuresStream(t *testing.T) {
	m := setupTestPublisher(t)
	defer m.ctrl.Finish()

	m.natsJS.EXPECT().
		Connect("nats://localhost:4222", gomock.Any()).
		Return(m.conn, m.js, nil)
	m.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cfg natsjs.StreamConfig) error {
			assert.Equal(t, "EDITIONS", cfg.Name)
			assert.Equal(t, []string{"editions.>"}, cfg.Subjects)
			assert.Equal(t, 2*time.Minute, cfg.Duplicates)
			return nil
		})
	m.conn.EXPECT().ConnectedUrl().Return("nats://localhost:4222").AnyTimes()
	m.conn.EXPECT().Close()

	publisher, err := jetstream.NewPublisher(context.Background(), testConfig(), m.natsJS)
	require.NoError(t, err)
	publisher.Close()
}

func TestNewPublisher_ConnectFailure(t *testing.T) {
	m := setupTestPublisher(t)
	defer m.ctrl.Finish()

	m.natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("no servers available"))

	_, err := jetstream.NewPublisher(context.Background(), testConfig(), m.natsJS)
	assert.Error(t, err)
}

func TestNewPublisher_StreamFailureClosesConnection(t *testing.T) {
	m := setupTestPublisher(t)
	defer m.ctrl.Finish()

	m.natsJS.EXPECT().
		Connect(gomock.Any(), gomock.Any()).
		Return(m.conn, m.js, nil)
	m.js.EXPECT().
		CreateOrUpdateStream(gomock.Any(), gomock.Any()).
		Return(errors.New("insufficient resources"))
	m.conn.EXPECT().Close()

	_, err := jetstream.NewPublisher(context.Background(), testConfig(), m.natsJS)
	assert.Error(t, err)
}

func TestPublisher_Publish(t *testing.T) {
	m := setupTestPublisher(t)
	defer m.ctrl.Finish()

	m.natsJS.EXPECT().Connect(gomock.Any(), gomock.Any()).Return(m.conn, m.js, nil)
	m.js.EXPECT().CreateOrUpdateStream(gomock.Any(), gomock.Any()).Return(nil)
	m.conn.EXPECT().ConnectedUrl().Return("nats://localhost:4222").AnyTimes()

	publisher, err := jetstream.NewPublisher(context.Background(), testConfig(), m.natsJS)
	require.NoError(t, err)

	// The message id travels as a publish option
	m.js.EXPECT().
		Publish(gomock.Any(), "editions.purchase.confirmed", []byte(`{"kind":"purchase.confirmed"}`), gomock.Len(1)).
		Return(&natsjs.PubAck{Stream: "EDITIONS", Sequence: 1}, nil)

	err = publisher.Publish(context.Background(), "editions.purchase.confirmed", []byte(`{"kind":"purchase.confirmed"}`), "dedupe-key")
	require.NoError(t, err)

	m.js.EXPECT().
		Publish(gomock.Any(), "editions.purchase.failed", gomock.Any(), gomock.Any()).
		Return(nil, errors.New("timeout"))

	err = publisher.Publish(context.Background(), "editions.purchase.failed", []byte(`{}`), "other-key")
	assert.Error(t, err)
}
