package producer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/producer"
	"procodus.dev/climate-monitor/pkg/generator"
	"procodus.dev/climate-monitor/pkg/message"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq/mock"
)

var _ = Describe("Producer", func() {
	var (
		client *mock.Client
		m      *metrics.GeneratorMetrics
		assets []monitor.Asset
		now    time.Time
	)

	BeforeEach(func() {
		client = mock.NewClient()
		m = metrics.NewGeneratorMetrics(prometheus.NewRegistry(), "test")
		assets = []monitor.Asset{
			{ID: 1, Name: "AC-1", Location: "Server room"},
			{ID: 2, Name: "AC-2", Location: "Office"},
		}
		now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	})

	newProducer := func(rate float64) *producer.Producer {
		p, err := producer.NewProducer(&producer.Config{
			Publisher: client,
			Generator: generator.New(11),
			Metrics:   m,
			Assets:    assets,
			Reading:   generator.ReadingConfig{ExcursionRate: rate},
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	Describe("NewProducer", func() {
		It("should reject a nil config", func() {
			_, err := producer.NewProducer(nil)
			Expect(err).To(MatchError("producer config cannot be nil"))
		})

		It("should require a publisher", func() {
			_, err := producer.NewProducer(&producer.Config{Generator: generator.New(1), Assets: assets})
			Expect(err).To(MatchError("publisher cannot be nil"))
		})

		It("should require assets", func() {
			_, err := producer.NewProducer(&producer.Config{Publisher: client, Generator: generator.New(1)})
			Expect(err).To(MatchError("at least one asset is required"))
		})

		It("should keep the asset order", func() {
			Expect(newProducer(0).AssetIDs()).To(Equal([]uint{1, 2}))
		})
	})

	Describe("PublishNext", func() {
		It("should publish decodable readings round-robin over the assets", func() {
			p := newProducer(0)
			for i := range 3 {
				Expect(p.PublishNext(context.Background(), now.Add(time.Duration(i)*time.Minute))).To(Succeed())
			}

			Expect(client.PublishedCount()).To(Equal(3))
			var ids []uint
			for _, body := range client.Published {
				r, err := message.DecodeReading(body)
				Expect(err).NotTo(HaveOccurred())
				ids = append(ids, r.AssetID)
			}
			Expect(ids).To(Equal([]uint{1, 2, 1}))
			Expect(testutil.ToFloat64(m.ReadingsGenerated.WithLabelValues("Server room"))).To(Equal(2.0))
			Expect(testutil.ToFloat64(m.ReadingsGenerated.WithLabelValues("Office"))).To(Equal(1.0))
		})

		It("should count excursions", func() {
			p := newProducer(1)
			Expect(p.PublishNext(context.Background(), now)).To(Succeed())
			Expect(testutil.ToFloat64(m.OutOfRangeReadings)).To(Equal(1.0))
		})

		It("should report publish failures", func() {
			client.PublishError = errors.New("broker down")
			p := newProducer(0)

			err := p.PublishNext(context.Background(), now)
			Expect(err).To(MatchError(ContainSubstring("broker down")))
			Expect(testutil.ToFloat64(m.GenerationFailures.WithLabelValues("publish"))).To(Equal(1.0))
		})
	})

	Describe("SeedAssets", func() {
		var logger *slog.Logger

		BeforeEach(func() {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		})

		It("should create assets up to the requested count", func() {
			catalog := &fakeCatalog{assets: assets}
			got, err := producer.SeedAssets(context.Background(), catalog, generator.New(5), 4, m, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(4))
			Expect(catalog.assets).To(HaveLen(4))
			Expect(testutil.ToFloat64(m.AssetsSeeded)).To(Equal(2.0))
			for _, a := range got {
				Expect(a.ID).NotTo(BeZero())
				Expect(a.Name).NotTo(BeEmpty())
			}
		})

		It("should reuse existing assets", func() {
			catalog := &fakeCatalog{assets: assets}
			got, err := producer.SeedAssets(context.Background(), catalog, generator.New(5), 1, nil, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(assets))
		})

		It("should fail when assets cannot be listed", func() {
			catalog := &fakeCatalog{failList: true}
			_, err := producer.SeedAssets(context.Background(), catalog, generator.New(5), 1, m, logger)
			Expect(err).To(MatchError(errCatalog))
		})

		It("should count seed failures", func() {
			catalog := &fakeCatalog{failWrite: true}
			_, err := producer.SeedAssets(context.Background(), catalog, generator.New(5), 1, m, logger)
			Expect(err).To(MatchError(errCatalog))
			Expect(testutil.ToFloat64(m.GenerationFailures.WithLabelValues("seed"))).To(Equal(1.0))
		})
	})
})
