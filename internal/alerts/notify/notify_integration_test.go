//go:build integration

package notify_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"careflow/internal/alerts/notify"
	"careflow/pkg/testutil/containers"
)

type NotifierIntegrationSuite struct {
	suite.Suite
}

func TestNotifierIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(NotifierIntegrationSuite))
}

func notification() notify.Notification {
	return notify.Notification{
		AlertID:   "alert-1",
		PatientID: "patient-1",
		Severity:  "WARNING",
		Reason:    "risk level HIGH",
		CreatedAt: time.Now().UTC(),
	}
}

func (s *NotifierIntegrationSuite) TestRedisStream() {
	ctx := context.Background()
	redis := containers.GetManager().GetRedis(s.T())
	s.Require().NoError(redis.FlushAll(ctx))

	n := notify.NewRedisStreamNotifier(redis.Client, "test:notifications", 100)
	s.Require().NoError(n.Notify(ctx, notification()))

	entries, err := redis.Client.XRange(ctx, "test:notifications", "-", "+").Result()
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("alert-1", entries[0].Values["alert_id"])
	s.Equal("WARNING", entries[0].Values["severity"])
}

func (s *NotifierIntegrationSuite) TestKafkaTopic() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	redpanda := containers.GetManager().GetRedpanda(s.T())

	topic := "test.notifications"
	client, err := kgo.NewClient(
		kgo.SeedBrokers(redpanda.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer client.Close()

	s.Require().NoError(notify.EnsureTopic(ctx, client, topic, 1, 1))
	// second call is a no-op
	s.Require().NoError(notify.EnsureTopic(ctx, client, topic, 1, 1))

	s.Require().NoError(notify.NewKafkaNotifier(client, topic).Notify(ctx, notification()))

	fetches := client.PollRecords(ctx, 1)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().Len(records, 1)
	s.Equal([]byte("patient-1"), records[0].Key)
}
