package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/config"
	"github.com/couchcryptid/aoaws-etl/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { <-t.done; return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connectErr   error
	publishErr   error
	pending      bool
	messages     []published
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token { return completedToken(c.connectErr) }

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	if c.pending {
		return &fakeToken{done: make(chan struct{})}
	}
	c.messages = append(c.messages, published{topic, qos, retained, payload.([]byte)})
	return completedToken(c.publishErr)
}

func testPublisher(c client) *Publisher {
	return &Publisher{client: c, prefix: "aoaws", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testObservations() []domain.Observation {
	return []domain.Observation{
		{StationName: "Taoyuan", Timestamp: "2024-01-01 08:00:00", Condition: domain.ConditionFog},
		{StationName: "Wang-an", Timestamp: "2024-01-01 08:00:00"},
	}
}

func TestPublisher_LoadBatch(t *testing.T) {
	fc := &fakeClient{}
	p := testPublisher(fc)

	require.NoError(t, p.LoadBatch(context.Background(), testObservations()))
	require.Len(t, fc.messages, 2)

	msg := fc.messages[0]
	assert.Equal(t, "aoaws/taoyuan/observation", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.payload, &decoded))
	assert.Equal(t, "Taoyuan", decoded["station"])
	assert.Equal(t, "fog", decoded["condition"])

	assert.Equal(t, "aoaws/wang-an/observation", fc.messages[1].topic)
}

func TestPublisher_LoadBatchError(t *testing.T) {
	fc := &fakeClient{publishErr: errors.New("not connected")}
	p := testPublisher(fc)

	err := p.LoadBatch(context.Background(), testObservations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aoaws/taoyuan/observation")
	assert.Contains(t, err.Error(), "aoaws/wang-an/observation")
}

func TestPublisher_LoadBatchCanceled(t *testing.T) {
	p := testPublisher(&fakeClient{pending: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.LoadBatch(ctx, testObservations()[:1])
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublisher_ConnectAndClose(t *testing.T) {
	fc := &fakeClient{}
	p := testPublisher(fc)

	require.NoError(t, p.Connect(context.Background()))
	require.NoError(t, p.Close())
	assert.True(t, fc.disconnected)

	fc.connectErr = errors.New("bad credentials")
	err := p.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt connect")
}

func TestNewPublisher_Topic(t *testing.T) {
	cfg := &config.Config{MQTTBroker: "tcp://localhost:1883", MQTTClientID: "test", MQTTTopicPrefix: "weather"}
	p := NewPublisher(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, "weather/hualien/observation", p.Topic("Hualien"))
}
