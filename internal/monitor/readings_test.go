package monitor_test

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
)

var _ = Describe("Readings", func() {
	var ts time.Time

	BeforeEach(func() {
		ts = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	})

	DescribeTable("ValidateReading",
		func(r monitor.Reading, field string) {
			err := monitor.ValidateReading(r)
			if field == "" {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			var verr *monitor.ValidationError
			Expect(err).To(BeAssignableToTypeOf(verr))
			Expect(err.(*monitor.ValidationError).Field).To(Equal(field))
		},
		Entry("valid", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Temperature: -5, Humidity: 0}, ""),
		Entry("humidity at 100", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Humidity: 100}, ""),
		Entry("missing asset", monitor.Reading{Timestamp: time.Unix(1, 0)}, "asset_id"),
		Entry("missing timestamp", monitor.Reading{AssetID: 1}, "timestamp"),
		Entry("NaN temperature", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Temperature: math.NaN()}, "temperature"),
		Entry("infinite temperature", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Temperature: math.Inf(1)}, "temperature"),
		Entry("humidity above 100", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Humidity: 100.5}, "humidity"),
		Entry("negative humidity", monitor.Reading{AssetID: 1, Timestamp: time.Unix(1, 0), Humidity: -1}, "humidity"),
	)

	Describe("Recorder", func() {
		var (
			ctx      context.Context
			store    *memStore
			recorder *monitor.Recorder
		)

		BeforeEach(func() {
			ctx = context.Background()
			store = newMemStore()
			store.addAsset(1, "AC-1", "Server room")
			store.addAsset(2, "AC-2", "Office")
			store.addRule(rule(1, "G", monitor.GlobalScope(), 18, 26, 30, 70))
			store.addRule(rule(2, "S1", monitor.SpecificScope(1), 20, 24, 40, 60))

			var err error
			recorder, err = monitor.NewRecorder(store, store)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should reject a nil writer", func() {
			_, err := monitor.NewRecorder(nil, store)
			Expect(err).To(MatchError("reading writer cannot be nil"))
		})

		It("should store the reading and report violations of the applicable rules", func() {
			checked, err := recorder.Record(ctx, monitor.Reading{AssetID: 1, Timestamp: ts, Temperature: 25, Humidity: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(checked.Reading.ID).NotTo(BeZero())
			Expect(store.readings).To(HaveLen(1))
			Expect(checked.HasAlert).To(BeTrue())
			Expect(checked.Violations).To(ConsistOf(monitor.Violation{
				RuleID:    2,
				RuleName:  "S1",
				Dimension: monitor.DimensionTemperature,
				Direction: monitor.DirectionAboveMax,
				Observed:  25,
				Bound:     24,
			}))
		})

		It("should only apply global rules to other assets", func() {
			checked, err := recorder.Record(ctx, monitor.Reading{AssetID: 2, Timestamp: ts, Temperature: 25, Humidity: 50})
			Expect(err).NotTo(HaveOccurred())
			Expect(checked.HasAlert).To(BeFalse())
			Expect(checked.Violations).NotTo(BeNil())
			Expect(checked.Violations).To(BeEmpty())
		})

		It("should not store invalid readings", func() {
			_, err := recorder.Record(ctx, monitor.Reading{AssetID: 1, Timestamp: ts, Humidity: 120})
			Expect(monitor.IsValidation(err)).To(BeTrue())
			Expect(store.calls["CreateReading"]).To(BeZero())
		})

		It("should report a missing asset as not found", func() {
			_, err := recorder.Record(ctx, monitor.Reading{AssetID: 9, Timestamp: ts, Humidity: 50})
			Expect(monitor.IsNotFound(err)).To(BeTrue())
		})

		It("should store nothing when the rules cannot be loaded", func() {
			store.failOn["RulesByScope"] = true
			_, err := recorder.Record(ctx, monitor.Reading{AssetID: 1, Timestamp: ts, Temperature: 25, Humidity: 50})
			Expect(monitor.IsStore(err)).To(BeTrue())
			Expect(store.readings).To(BeEmpty())
			Expect(store.calls["CreateReading"]).To(BeZero())
		})

		It("should wrap store failures", func() {
			store.failOn["CreateReading"] = true
			_, err := recorder.Record(ctx, monitor.Reading{AssetID: 1, Timestamp: ts, Humidity: 50})
			Expect(monitor.IsStore(err)).To(BeTrue())
		})
	})
})
