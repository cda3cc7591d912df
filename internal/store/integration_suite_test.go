//go:build integration

package store_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"procodus.dev/climate-monitor/internal/store"
	e2econtainers "procodus.dev/climate-monitor/test/e2e/testcontainers"
)

var (
	testLogger *slog.Logger
	postgres   *e2econtainers.Postgres
	testDB     *gorm.DB
)

var _ = BeforeSuite(func() {
	ctx := context.Background()
	testLogger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	var err error
	postgres, err = e2econtainers.StartPostgres(ctx, &e2econtainers.PostgresConfig{
		ContainerName: "postgres-store-integration-test",
	})
	Expect(err).NotTo(HaveOccurred())

	testDB, err = store.NewDB(postgres.DBConfig(testLogger))
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if testDB != nil {
		Expect(store.CloseDB(testDB, testLogger)).To(Succeed())
	}
	Expect(postgres.Terminate(context.Background())).To(Succeed())
})

// truncate empties every table between specs.
func truncate() {
	Expect(testDB.Exec("TRUNCATE assets, readings, threshold_rules, maintenance_records RESTART IDENTITY CASCADE").Error).
		To(Succeed())
}
