package monitor_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
)

var _ = Describe("Statistics", func() {
	var (
		ctx   context.Context
		store *memStore
		stats *monitor.Statistics
		now   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		store.addAsset(1, "AC-1", "Office")
		store.addAsset(2, "AC-2", "Office")
		store.addAsset(3, "AC-3", "Lab")
		store.addAsset(4, "AC-4", "Warehouse")
		store.addReading(1, 1, now, 20, 40)
		store.addReading(2, 1, now.Add(time.Minute), 22, 50)
		store.addReading(3, 2, now, 24, 60)
		store.addReading(4, 3, now, 18, 30)

		var err error
		stats, err = monitor.NewStatistics(store, store)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewStatistics", func() {
		It("should return error when a store is nil", func() {
			_, err := monitor.NewStatistics(nil, store)
			Expect(err).To(MatchError(ContainSubstring("reading store cannot be nil")))
			_, err = monitor.NewStatistics(store, nil)
			Expect(err).To(MatchError(ContainSubstring("asset store cannot be nil")))
		})
	})

	Describe("ForAsset", func() {
		It("should summarize the asset's readings", func() {
			summary, err := stats.ForAsset(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Count).To(Equal(int64(2)))
			Expect(summary.Temperature.Mean).To(Equal(21.0))
			Expect(summary.Humidity.Max).To(Equal(50.0))
		})

		It("should return the zero summary for an asset without readings", func() {
			summary, err := stats.ForAsset(ctx, 4)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary).To(Equal(monitor.StatisticsSummary{}))
		})

		It("should return NotFoundError for an unknown asset", func() {
			_, err := stats.ForAsset(ctx, 77)
			Expect(monitor.IsNotFound(err)).To(BeTrue())
		})

		It("should return StoreError when scanning fails", func() {
			store.failOn["ScanReadings"] = true
			summary, err := stats.ForAsset(ctx, 1)
			Expect(monitor.IsStore(err)).To(BeTrue())
			Expect(summary).To(Equal(monitor.StatisticsSummary{}))
		})
	})

	Describe("ForLocation", func() {
		It("should summarize the readings of every asset in the location", func() {
			result, err := stats.ForLocation(ctx, "Office")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Location).To(Equal("Office"))
			Expect(result.AssetCount).To(Equal(2))
			Expect(result.Summary.Count).To(Equal(int64(3)))
			Expect(result.Summary.Temperature.Mean).To(Equal(22.0))
		})

		It("should return a zero summary for an unknown location", func() {
			result, err := stats.ForLocation(ctx, "Roof")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.AssetCount).To(BeZero())
			Expect(result.Summary).To(Equal(monitor.StatisticsSummary{}))
		})

		It("should reject an empty location", func() {
			_, err := stats.ForLocation(ctx, "")
			Expect(monitor.IsValidation(err)).To(BeTrue())
		})
	})

	Describe("ByLocation", func() {
		It("should list only locations with readings, ordered by name", func() {
			result, err := stats.ByLocation(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(HaveLen(2))
			Expect(result[0].Location).To(Equal("Lab"))
			Expect(result[0].AssetCount).To(Equal(1))
			Expect(result[0].Summary.Count).To(Equal(int64(1)))
			Expect(result[1].Location).To(Equal("Office"))
			Expect(result[1].AssetCount).To(Equal(2))
			Expect(result[1].Summary.Count).To(Equal(int64(3)))
		})

		It("should return StoreError when listing assets fails", func() {
			store.failOn["ListAssets"] = true
			result, err := stats.ByLocation(ctx)
			Expect(monitor.IsStore(err)).To(BeTrue())
			Expect(result).To(BeNil())
		})
	})

	Describe("Global", func() {
		It("should summarize every reading", func() {
			result, err := stats.Global(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.TotalReadings).To(Equal(int64(4)))
			Expect(result.Summary.Count).To(Equal(int64(4)))
			Expect(result.Summary.Temperature.Min).To(Equal(18.0))
			Expect(result.Summary.Temperature.Max).To(Equal(24.0))
		})

		It("should return zeros for an empty store", func() {
			empty, err := monitor.NewStatistics(newMemStore(), newMemStore())
			Expect(err).NotTo(HaveOccurred())

			result, err := empty.Global(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(monitor.GlobalStatistics{}))
		})
	})
})
