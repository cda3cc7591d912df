package message_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/pkg/message"
)

var _ = Describe("DecodeReading", func() {
	It("should decode what NewReading encodes", func() {
		ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		body, err := json.Marshal(message.NewReading(4, ts, 22.5, 48))
		Expect(err).NotTo(HaveOccurred())

		r, err := message.DecodeReading(body)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.AssetID).To(Equal(uint(4)))
		Expect(r.Timestamp.Equal(ts)).To(BeTrue())
		Expect(*r.Temperature).To(Equal(22.5))
		Expect(*r.Humidity).To(Equal(48.0))
	})

	It("should normalize the timestamp to UTC", func() {
		r, err := message.DecodeReading([]byte(`{"asset_id":1,"timestamp":"2024-03-01T14:00:00+02:00","temperature":20,"humidity":40}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Timestamp).To(Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)))
	})

	It("should accept zero measurements", func() {
		r, err := message.DecodeReading([]byte(`{"asset_id":1,"timestamp":"2024-03-01T12:00:00Z","temperature":0,"humidity":0}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(*r.Temperature).To(BeZero())
	})

	DescribeTable("malformed payloads",
		func(body string) {
			_, err := message.DecodeReading([]byte(body))
			Expect(err).To(MatchError(message.ErrMalformed))
		},
		Entry("not json", `garbage`),
		Entry("unknown field", `{"asset_id":1,"timestamp":"2024-03-01T12:00:00Z","temperature":1,"humidity":1,"x":1}`),
		Entry("missing asset", `{"timestamp":"2024-03-01T12:00:00Z","temperature":1,"humidity":1}`),
		Entry("missing timestamp", `{"asset_id":1,"temperature":1,"humidity":1}`),
		Entry("missing temperature", `{"asset_id":1,"timestamp":"2024-03-01T12:00:00Z","humidity":1}`),
		Entry("missing humidity", `{"asset_id":1,"timestamp":"2024-03-01T12:00:00Z","temperature":1}`),
		Entry("wrong type", `{"asset_id":"one","timestamp":"2024-03-01T12:00:00Z","temperature":1,"humidity":1}`),
	)
})
