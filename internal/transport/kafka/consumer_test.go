package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"service-parcel-platform/internal/domain"
	"service-parcel-platform/internal/testutil/testlog"
)

type fakeSession struct {
	ctx context.Context

	mu     sync.Mutex
	marked int
}

func (s *fakeSession) Context() context.Context { return s.ctx }

func (s *fakeSession) MarkMessage(*sarama.ConsumerMessage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked++
}

func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) Commit()                                  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Claims() map[string][]int32               { return nil }
func (s *fakeSession) MemberID() string                         { return "" }
func (s *fakeSession) GenerationID() int32                      { return 0 }

func (s *fakeSession) MarkedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marked
}

type fakeClaim struct {
	ch chan *sarama.ConsumerMessage
}

func (c fakeClaim) Topic() string              { return "t" }
func (c fakeClaim) Partition() int32           { return 0 }
func (c fakeClaim) InitialOffset() int64       { return 0 }
func (c fakeClaim) HighWaterMarkOffset() int64 { return 0 }
func (c fakeClaim) Messages() <-chan *sarama.ConsumerMessage {
	return c.ch
}

func claimOf(values ...[]byte) fakeClaim {
	ch := make(chan *sarama.ConsumerMessage, len(values))
	for _, v := range values {
		ch <- &sarama.ConsumerMessage{Value: v}
	}
	close(ch)
	return fakeClaim{ch: ch}
}

func validMessage(t *testing.T) []byte {
	t.Helper()
	b, err := json.Marshal(FromDomain(domain.Notification{
		ID:           uuid.New(),
		Channel:      domain.ChannelSMS,
		To:           "+254700000001",
		Body:         "hi",
		TrackingCode: "TRK1",
	}))
	require.NoError(t, err)
	return b
}

func TestConsumeClaim_BadJSON_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, domain.Notification) error {
			t.Fatal("handler must not be called")
			return nil
		},
	}
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf([]byte("not-json")))
	require.NoError(t, err)
	require.Equal(t, 1, sess.MarkedCount())

	_, ok := rec.Find("kafka bad json")
	require.True(t, ok)
}

func TestConsumeClaim_InvalidNotification_Skips(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	calls := 0
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, domain.Notification) error {
			calls++
			return nil
		},
	}
	b, _ := json.Marshal(NotificationDTO{Channel: "pigeon", To: "x"})
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(b))
	require.NoError(t, err)
	require.Equal(t, 1, sess.MarkedCount())
	require.Equal(t, 0, calls)
}

func TestConsumeClaim_PermanentError_Marks(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	c := &Consumer{
		logger: rec.Logger(),
		handler: func(context.Context, domain.Notification) error {
			return Permanent(errors.New("retries exhausted"))
		},
	}
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(validMessage(t)))
	require.NoError(t, err)
	require.Equal(t, 1, sess.MarkedCount())

	_, ok := rec.Find("kafka handle failed, skipping message")
	require.True(t, ok)
}

func TestConsumeClaim_TransientError_ReturnsWithoutMark(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("ctx cancelled")
	c := &Consumer{
		logger:  testlog.New().Logger(),
		handler: func(context.Context, domain.Notification) error { return sentinel },
	}
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(validMessage(t)))
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 0, sess.MarkedCount())
}

func TestConsumeClaim_Success_Marks(t *testing.T) {
	t.Parallel()

	var got []domain.Notification
	c := &Consumer{
		logger: testlog.New().Logger(),
		handler: func(_ context.Context, n domain.Notification) error {
			got = append(got, n)
			return nil
		},
	}
	sess := &fakeSession{ctx: context.Background()}

	err := (&groupHandler{c: c}).ConsumeClaim(sess, claimOf(validMessage(t), validMessage(t)))
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "TRK1", got[0].TrackingCode)
	require.Equal(t, 2, sess.MarkedCount())
}

type fakeGroup struct {
	calls int
}

func (g *fakeGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	g.calls++
	return nil
}
func (g *fakeGroup) Errors() <-chan error {
	ch := make(chan error)
	close(ch)
	return ch
}
func (g *fakeGroup) Close() error               { return nil }
func (g *fakeGroup) Pause(map[string][]int32)  {}
func (g *fakeGroup) Resume(map[string][]int32) {}
func (g *fakeGroup) PauseAll()                 {}
func (g *fakeGroup) ResumeAll()                {}

func TestNewConsumer_SkipsWhenNoKafkaConfig(t *testing.T) {
	t.Parallel()

	rec := testlog.New()

	got, err := NewConsumer(rec.Logger(), nil, "gid", "topic", nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = NewConsumer(rec.Logger(), []string{"b:9092"}, "", "topic", nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = NewConsumer(rec.Logger(), []string{"b:9092"}, "gid", "   ", nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestNewConsumer_ReturnsErrorWhenSaramaFails(t *testing.T) {
	orig := newConsumerGroup
	t.Cleanup(func() { newConsumerGroup = orig })

	sentinel := errors.New("boom")
	newConsumerGroup = func(_ []string, _ string, _ *sarama.Config) (sarama.ConsumerGroup, error) {
		return nil, sentinel
	}

	got, err := NewConsumer(testlog.New().Logger(), []string{"b:9092"}, "gid", "topic", nil)
	require.ErrorIs(t, err, sentinel)
	require.Nil(t, got)
}

func TestConsumer_RunStopsOnCancel(t *testing.T) {
	g := &fakeGroup{}
	c := &Consumer{group: g, topic: "t", logger: testlog.New().Logger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, g.calls)
	require.NoError(t, c.Close())
}

func TestConsumer_NilIsNoop(t *testing.T) {
	var c *Consumer
	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, c.Close())
}

func TestPermanent(t *testing.T) {
	require.Nil(t, Permanent(nil))
	base := errors.New("x")
	err := Permanent(base)
	require.True(t, IsPermanent(err))
	require.ErrorIs(t, err, base)
	require.False(t, IsPermanent(base))
	require.Equal(t, "permanent error", PermanentError{}.Error())
}
