package eventstream_test

import (
	"time"

	"github.com/goccy/go-json"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/spool/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals GroupFlushedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0)
		event := eventstream.NewGroupFlushedEvent(eventstream.GroupMeta{
			Destination: "/var/spool/history.json",
			Format:      "document",
			Key:         []string{"runs"},
			Mode:        "append",
		}, []string{"job-1", "job-2"}, 1500*time.Millisecond, now)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("group"))
		Expect(got).To(HaveKeyWithValue("count", BeNumerically("==", 2)))
		Expect(got).To(HaveKeyWithValue("duration_ms", BeNumerically("==", 1500)))
	})

	It("stamps a unique ID and UTC time", func() {
		now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
		a := eventstream.NewGroupFlushedEvent(eventstream.GroupMeta{}, nil, 0, now)
		b := eventstream.NewGroupFlushedEvent(eventstream.GroupMeta{}, nil, 0, now)

		Expect(a.EventID).NotTo(Equal(b.EventID))
		Expect(a.EmittedAt.Location()).To(Equal(time.UTC))
		Expect(a.Count).To(Equal(0))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeGroupFlushed).To(Equal("spool.group.flushed"))
	})

	It("provides ErrNilFlushEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilFlushEvent).To(MatchError("nil flush event"))
	})
})
