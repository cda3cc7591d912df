package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
)

var _ = Describe("Aggregate", func() {
	It("should return the zero summary for no readings", func() {
		Expect(monitor.Aggregate(nil)).To(Equal(monitor.StatisticsSummary{}))
	})

	It("should report a zero standard deviation for a single reading", func() {
		summary := monitor.Aggregate([]monitor.Reading{{Temperature: 21.5, Humidity: 48}})
		Expect(summary.Count).To(Equal(int64(1)))
		Expect(summary.Temperature).To(Equal(monitor.DimensionStats{Mean: 21.5, Min: 21.5, Max: 21.5}))
		Expect(summary.Humidity.StdDev).To(BeZero())
	})

	It("should use the sample standard deviation", func() {
		summary := monitor.Aggregate([]monitor.Reading{
			{Temperature: 20, Humidity: 40},
			{Temperature: 22, Humidity: 50},
			{Temperature: 24, Humidity: 60},
		})
		Expect(summary.Count).To(Equal(int64(3)))
		Expect(summary.Temperature).To(Equal(monitor.DimensionStats{Mean: 22, Min: 20, Max: 24, StdDev: 2}))
		Expect(summary.Humidity).To(Equal(monitor.DimensionStats{Mean: 50, Min: 40, Max: 60, StdDev: 10}))
	})

	It("should round to two decimals", func() {
		summary := monitor.Aggregate([]monitor.Reading{
			{Temperature: 20.111, Humidity: 33.333},
			{Temperature: 20.116, Humidity: 33.336},
		})
		Expect(summary.Temperature.Mean).To(BeNumerically("~", 20.11, 1e-9))
		Expect(summary.Temperature.Max).To(BeNumerically("~", 20.12, 1e-9))
		Expect(summary.Humidity.Min).To(BeNumerically("~", 33.33, 1e-9))
	})

	It("should keep min <= mean <= max", func() {
		summary := monitor.Aggregate([]monitor.Reading{
			{Temperature: -5, Humidity: 10},
			{Temperature: 31, Humidity: 95},
			{Temperature: 7.25, Humidity: 12},
		})
		for _, d := range []monitor.DimensionStats{summary.Temperature, summary.Humidity} {
			Expect(d.Min).To(BeNumerically("<=", d.Mean))
			Expect(d.Mean).To(BeNumerically("<=", d.Max))
			Expect(d.StdDev).To(BeNumerically(">=", 0))
		}
	})
})

var _ = Describe("Accumulator", func() {
	It("should match Aggregate when fed in batches", func() {
		readings := []monitor.Reading{
			{Temperature: 19, Humidity: 41},
			{Temperature: 23.4, Humidity: 55},
			{Temperature: 21.1, Humidity: 47.5},
			{Temperature: 26, Humidity: 62},
		}
		var acc monitor.Accumulator
		acc.AddAll(readings[:1])
		acc.AddAll(readings[1:3])
		acc.Add(readings[3])

		Expect(acc.Count()).To(Equal(int64(4)))
		Expect(acc.Summary()).To(Equal(monitor.Aggregate(readings)))
	})

	It("should be usable as a zero value", func() {
		var acc monitor.Accumulator
		Expect(acc.Count()).To(BeZero())
		Expect(acc.Summary()).To(Equal(monitor.StatisticsSummary{}))
	})
})

var _ = Describe("GroupByLocation", func() {
	It("should group readings by asset location and drop unknown assets", func() {
		assets := []monitor.Asset{
			{ID: 1, Location: "Office"},
			{ID: 2, Location: "Office"},
			{ID: 3, Location: "Lab"},
		}
		readings := []monitor.Reading{
			{ID: 1, AssetID: 1},
			{ID: 2, AssetID: 2},
			{ID: 3, AssetID: 3},
			{ID: 4, AssetID: 9},
		}

		groups := monitor.GroupByLocation(assets, readings)
		Expect(groups).To(HaveLen(2))
		Expect(groups["Office"]).To(HaveLen(2))
		Expect(groups["Lab"]).To(HaveLen(1))
	})
})
