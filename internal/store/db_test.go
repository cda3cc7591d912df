package store_test

import (
	"errors"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/internal/store"
)

var _ = Describe("Database", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	Describe("NewDB", func() {
		Context("with invalid configuration", func() {
			It("should return error when config is nil", func() {
				db, err := store.NewDB(nil)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("config cannot be nil"))
				Expect(db).To(BeNil())
			})

			It("should return error when logger is nil", func() {
				db, err := store.NewDB(&store.DBConfig{
					Host:   "localhost",
					Port:   5432,
					User:   "test",
					DBName: "climate",
				})
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("logger"))
				Expect(db).To(BeNil())
			})
		})

		Context("connection validation", func() {
			It("should fail with invalid host", func() {
				db, err := store.NewDB(&store.DBConfig{
					Logger:   logger,
					Host:     "invalid-host-that-does-not-exist",
					Port:     5432,
					User:     "test",
					Password: "password",
					DBName:   "climate",
					SSLMode:  "disable",
				})
				Expect(err).To(HaveOccurred())
				Expect(db).To(BeNil())
			})
		})
	})

	Describe("DBConfig.DSN", func() {
		It("should default sslmode to disable", func() {
			cfg := &store.DBConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "climate"}
			Expect(cfg.DSN()).To(Equal("host=db port=5433 user=u password=p dbname=climate sslmode=disable"))
		})

		It("should keep an explicit sslmode", func() {
			cfg := &store.DBConfig{Host: "db", Port: 5432, User: "u", DBName: "climate", SSLMode: "require"}
			Expect(cfg.DSN()).To(HaveSuffix("sslmode=require"))
		})
	})

	Describe("CloseDB", func() {
		It("should accept a nil database", func() {
			Expect(store.CloseDB(nil, logger)).To(Succeed())
		})
	})

	Describe("New", func() {
		It("should return error when database is nil", func() {
			s, err := store.New(nil)
			Expect(err).To(MatchError(ContainSubstring("database cannot be nil")))
			Expect(s).To(BeNil())
		})
	})
})

var _ = Describe("Classify", func() {
	It("should map missing records to NotFoundError", func() {
		err := store.Classify("get rule", "rule", 7, gorm.ErrRecordNotFound)
		var notFound *monitor.NotFoundError
		Expect(errors.As(err, &notFound)).To(BeTrue())
		Expect(notFound.Kind).To(Equal("rule"))
		Expect(notFound.ID).To(Equal(uint(7)))
	})

	It("should map foreign key violations to a missing asset", func() {
		err := store.Classify("create reading", "asset", 3, &pgconn.PgError{Code: "23503"})
		Expect(err).To(MatchError("asset 3 not found"))
	})

	It("should map check violations to ValidationError", func() {
		err := store.Classify("create rule", "asset", 0, &pgconn.PgError{Code: "23514", Message: "violates check constraint"})
		Expect(monitor.IsValidation(err)).To(BeTrue())
	})

	It("should wrap anything else as StoreError", func() {
		cause := errors.New("connection reset by peer")
		err := store.Classify("count readings", "reading", 0, cause)
		Expect(monitor.IsStore(err)).To(BeTrue())
		Expect(err).To(MatchError(cause))
	})

	It("should return nil for nil", func() {
		Expect(store.Classify("noop", "asset", 0, nil)).To(Succeed())
	})
})
