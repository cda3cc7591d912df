package backend_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/backend"
	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/metrics"
	"procodus.dev/climate-monitor/pkg/mq/mock"
)

const validBody = `{"asset_id":3,"timestamp":"2024-05-01T10:00:00Z","temperature":22.5,"humidity":45}`

var _ = Describe("Consumer", func() {
	var (
		logger *slog.Logger
		store  *sink
		client *mock.Client
		m      *metrics.IngestMetrics
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		store = &sink{}
		client = mock.NewClient()
		m = metrics.NewIngestMetrics(prometheus.NewRegistry(), "test")
	})

	Describe("NewConsumer", func() {
		It("should create a consumer", func() {
			consumer, err := backend.NewConsumer(&backend.ConsumerConfig{
				Logger:     logger,
				Sink:       store,
				Subscriber: client,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(consumer).NotTo(BeNil())
		})

		DescribeTable("invalid configuration",
			func(cfg func() *backend.ConsumerConfig, msg string) {
				consumer, err := backend.NewConsumer(cfg())
				Expect(err).To(MatchError(msg))
				Expect(consumer).To(BeNil())
			},
			Entry("nil config", func() *backend.ConsumerConfig { return nil }, "consumer config cannot be nil"),
			Entry("nil logger", func() *backend.ConsumerConfig {
				return &backend.ConsumerConfig{Sink: &sink{}, Subscriber: mock.NewClient()}
			}, "logger cannot be nil"),
			Entry("nil sink", func() *backend.ConsumerConfig {
				return &backend.ConsumerConfig{Logger: slog.Default(), Subscriber: mock.NewClient()}
			}, "reading sink cannot be nil"),
			Entry("nil subscriber", func() *backend.ConsumerConfig {
				return &backend.ConsumerConfig{Logger: slog.Default(), Sink: &sink{}}
			}, "subscriber cannot be nil"),
		)
	})

	Describe("Start", func() {
		It("should fail when the queue never becomes ready", func() {
			client.WaitReadyError = context.DeadlineExceeded
			consumer, err := backend.NewConsumer(&backend.ConsumerConfig{Logger: logger, Sink: store, Subscriber: client})
			Expect(err).NotTo(HaveOccurred())

			Expect(consumer.Start(context.Background())).To(MatchError(context.DeadlineExceeded))
			Expect(client.ConsumeCalls).To(BeZero())
			Expect(consumer.Stop()).To(Succeed())
		})

		It("should fail when consuming cannot start", func() {
			client.ConsumeError = errors.New("channel closed")
			consumer, err := backend.NewConsumer(&backend.ConsumerConfig{Logger: logger, Sink: store, Subscriber: client})
			Expect(err).NotTo(HaveOccurred())

			Expect(consumer.Start(context.Background())).To(MatchError(ContainSubstring("channel closed")))
		})
	})

	Describe("message handling", func() {
		var (
			ctx     context.Context
			cancel  context.CancelFunc
			ack     *mock.Acknowledger
			tag     uint64
			deliver func(body string)
		)

		BeforeEach(func() {
			ctx, cancel = context.WithCancel(context.Background())
			ack = &mock.Acknowledger{}
			tag = 0

			consumer, err := backend.NewConsumer(&backend.ConsumerConfig{
				Logger:     logger,
				Sink:       store,
				Subscriber: client,
				Metrics:    m,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(consumer.Start(ctx)).To(Succeed())

			deliver = func(body string) {
				tag++
				client.Deliveries <- amqp.Delivery{Acknowledger: ack, DeliveryTag: tag, Body: []byte(body)}
			}

			DeferCleanup(func() {
				cancel()
				Expect(consumer.Stop()).To(Succeed())
				Expect(client.CloseCalls).To(Equal(1))
			})
		})

		It("should store valid readings and ack them", func() {
			deliver(validBody)

			Eventually(ack.Counts).Should(Equal(1))
			Expect(store.stored()).To(ConsistOf(monitor.Reading{
				ID:          1,
				AssetID:     3,
				Timestamp:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
				Temperature: 22.5,
				Humidity:    45,
			}))
			Expect(testutil.ToFloat64(m.MessagesTotal.WithLabelValues("stored"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(m.LastReadingTime)).To(BeNumerically(">", 0))
		})

		It("should ack and drop malformed payloads", func() {
			deliver(`{"asset_id":`)

			Eventually(ack.Counts).Should(Equal(1))
			Expect(store.stored()).To(BeEmpty())
			Expect(testutil.ToFloat64(m.MessagesTotal.WithLabelValues("malformed"))).To(Equal(1.0))
		})

		It("should ack and drop readings that fail validation", func() {
			deliver(`{"asset_id":3,"timestamp":"2024-05-01T10:00:00Z","temperature":22.5,"humidity":140}`)

			Eventually(ack.Counts).Should(Equal(1))
			Expect(store.stored()).To(BeEmpty())
			Expect(testutil.ToFloat64(m.MessagesTotal.WithLabelValues("rejected"))).To(Equal(1.0))
		})

		It("should ack and drop readings for unknown assets", func() {
			store.err = &monitor.NotFoundError{Kind: "asset", ID: 3}
			deliver(validBody)

			Eventually(ack.Counts).Should(Equal(1))
			Expect(testutil.ToFloat64(m.MessagesTotal.WithLabelValues("rejected"))).To(Equal(1.0))
		})

		It("should nack and requeue on store failure", func() {
			store.mu.Lock()
			store.err = errDBDown
			store.mu.Unlock()
			deliver(validBody)

			Eventually(func() int {
				_, nacks := ack.Counts()
				return nacks
			}).Should(Equal(1))
			Expect(ack.Requeue).To(Equal([]bool{true}))
			Expect(testutil.ToFloat64(m.MessagesTotal.WithLabelValues("requeued"))).To(Equal(1.0))
		})

		It("should keep processing after a bad message", func() {
			deliver(`not json`)
			deliver(validBody)

			Eventually(ack.Counts).Should(Equal(2))
			Expect(store.stored()).To(HaveLen(1))
		})
	})
})
