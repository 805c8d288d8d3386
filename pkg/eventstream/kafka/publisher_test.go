package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/spool/pkg/eventstream"
)

type recordingWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		rec   *recordingWriter
		pub   *Publisher
		event *eventstream.GroupFlushedEvent
	)

	BeforeEach(func() {
		rec = &recordingWriter{}
		pub = newPublisher(rec, "spool.flushes", nil)
		event = eventstream.NewGroupFlushedEvent(eventstream.GroupMeta{
			Destination: "/tmp/history.json",
			Format:      "document",
			Mode:        "append",
		}, []string{"a", "b"}, time.Second, time.Unix(1735689600, 0))
	})

	Describe("NewPublisher", func() {
		It("requires brokers", func() {
			_, err := NewPublisher(Config{Topic: "t"})
			Expect(err).To(MatchError(ErrMissingBrokers))
		})

		It("requires a topic", func() {
			_, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
			Expect(err).To(MatchError(ErrMissingTopic))
		})

		It("builds a publisher without dialing", func() {
			p, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}, Topic: "t", ClientID: "spool"})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.topic).To(Equal("t"))
		})
	})

	It("rejects nil events", func() {
		Expect(pub.PublishFlush(context.Background(), nil)).To(MatchError(eventstream.ErrNilFlushEvent))
		Expect(rec.messages).To(BeEmpty())
	})

	It("writes one message keyed by destination", func() {
		Expect(pub.PublishFlush(context.Background(), event)).To(Succeed())
		Expect(rec.messages).To(HaveLen(1))

		msg := rec.messages[0]
		Expect(string(msg.Key)).To(Equal("/tmp/history.json"))
		Expect(msg.Time).To(Equal(event.EmittedAt))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeGroupFlushed)}))

		var decoded eventstream.GroupFlushedEvent
		Expect(json.Unmarshal(msg.Value, &decoded)).To(Succeed())
		Expect(decoded.EventID).To(Equal(event.EventID))
		Expect(decoded.JobIDs).To(Equal([]string{"a", "b"}))
	})

	It("wraps writer failures", func() {
		rec.err = errors.New("broker down")
		err := pub.PublishFlush(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(errors.Is(err, rec.err)).To(BeTrue())
	})

	It("closes the underlying writer", func() {
		Expect(pub.Close()).To(Succeed())
		Expect(rec.closed).To(BeTrue())
	})
})
