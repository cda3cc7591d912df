package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/auth"
	"procodus.dev/climate-monitor/internal/monitor"
	"procodus.dev/climate-monitor/pkg/message"
)

var _ = Describe("Climate monitor E2E", func() {
	var (
		asset    monitor.Asset
		location string
	)

	readingsOf := func(assetID uint) func() []monitor.Reading {
		return func() []monitor.Reading {
			var out []monitor.Reading
			callJSON(http.MethodGet, fmt.Sprintf("/api/readings?asset_id=%d", assetID), auth.RoleOperator, nil, http.StatusOK, &out)
			return out
		}
	}

	BeforeEach(func() {
		location = "E2E room " + time.Now().Format("150405.000000")
		callJSON(http.MethodPost, "/api/assets", auth.RoleSupervisor, map[string]any{
			"name":         "AC-e2e",
			"location":     location,
			"installed_on": "2022-04-01",
		}, http.StatusCreated, &asset)
		Expect(asset.ID).NotTo(BeZero())
	})

	Describe("Authentication", func() {
		It("should reject anonymous API calls", func() {
			status, _ := call(http.MethodGet, "/api/assets", "", nil)
			Expect(status).To(Equal(http.StatusUnauthorized))
		})

		It("should forbid operators from writing rules", func() {
			status, _ := call(http.MethodPost, "/api/thresholds", auth.RoleOperator, map[string]any{
				"name": "x", "is_global": true, "temp_min": 1, "temp_max": 2, "hum_min": 1, "hum_max": 2,
			})
			Expect(status).To(Equal(http.StatusForbidden))
		})
	})

	Describe("Ingestion", func() {
		It("should store readings published to the queue", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
			for i := range 3 {
				msg := message.NewReading(asset.ID, base.Add(time.Duration(i)*time.Minute), 21+float64(i), 45)
				Expect(publisher.PublishJSON(ctx, msg)).To(Succeed())
			}

			Eventually(readingsOf(asset.ID)).WithTimeout(15 * time.Second).Should(HaveLen(3))
			Expect(readingsOf(asset.ID)()[0].Temperature).To(Equal(23.0))
		})

		It("should drop malformed and orphan readings and keep consuming", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			Expect(publisher.Publish(ctx, []byte(`{"asset_id":`))).To(Succeed())
			Expect(publisher.PublishJSON(ctx, message.NewReading(999999, time.Now(), 20, 40))).To(Succeed())
			Expect(publisher.PublishJSON(ctx, message.NewReading(asset.ID, time.Now(), 20, 40))).To(Succeed())

			Eventually(readingsOf(asset.ID)).WithTimeout(15 * time.Second).Should(HaveLen(1))
		})
	})

	Describe("Alerts and statistics", func() {
		var rule map[string]any

		BeforeEach(func() {
			callJSON(http.MethodPost, "/api/thresholds", auth.RoleSupervisor, map[string]any{
				"name":      "E2E tight band",
				"is_global": false,
				"asset_id":  asset.ID,
				"temp_min":  20.0,
				"temp_max":  24.0,
				"hum_min":   30.0,
				"hum_max":   60.0,
			}, http.StatusCreated, &rule)
		})

		AfterEach(func() {
			status, _ := call(http.MethodDelete, fmt.Sprintf("/api/thresholds/%v", rule["id"]), auth.RoleAdmin, nil)
			Expect(status).To(Equal(http.StatusNoContent))
		})

		It("should check a manual reading against the asset's rules", func() {
			var checked monitor.CheckedReading
			callJSON(http.MethodPost, "/api/readings", auth.RoleOperator, map[string]any{
				"asset_id":    asset.ID,
				"temperature": 25.5,
				"humidity":    45.0,
			}, http.StatusCreated, &checked)

			Expect(checked.HasAlert).To(BeTrue())
			Expect(checked.Violations).To(ContainElement(HaveField("RuleName", "E2E tight band")))
		})

		It("should report the asset as alerting while its latest reading is out of range", func() {
			now := time.Now().UTC()
			callJSON(http.MethodPost, "/api/readings", auth.RoleOperator, map[string]any{
				"asset_id": asset.ID, "timestamp": now.Add(-time.Minute), "temperature": 22.0, "humidity": 45.0,
			}, http.StatusCreated, nil)
			callJSON(http.MethodPost, "/api/readings", auth.RoleOperator, map[string]any{
				"asset_id": asset.ID, "timestamp": now, "temperature": 26.0, "humidity": 45.0,
			}, http.StatusCreated, nil)

			var states []monitor.AssetAlertState
			callJSON(http.MethodGet, fmt.Sprintf("/api/alerts?asset_id=%d", asset.ID), auth.RoleOperator, nil, http.StatusOK, &states)
			Expect(states).To(HaveLen(1))
			Expect(states[0].HasAlert).To(BeTrue())
			Expect(states[0].Reading.Temperature).To(Equal(26.0))

			var count struct {
				ActiveAlertCount int `json:"active_alert_count"`
			}
			callJSON(http.MethodGet, "/api/alerts/count", auth.RoleOperator, nil, http.StatusOK, &count)
			Expect(count.ActiveAlertCount).To(BeNumerically(">=", 1))

			var stats monitor.LocationStatistics
			callJSON(http.MethodGet, "/api/statistics/locations/"+urlPath(location), auth.RoleOperator, nil, http.StatusOK, &stats)
			Expect(stats.AssetCount).To(Equal(1))
			Expect(stats.Summary.Count).To(Equal(int64(2)))
			Expect(stats.Summary.Temperature.Mean).To(Equal(24.0))
			Expect(stats.Summary.Temperature.StdDev).To(Equal(2.83))
		})
	})

	Describe("Dashboard", func() {
		It("should summarize the store", func() {
			callJSON(http.MethodPost, "/api/readings", auth.RoleOperator, map[string]any{
				"asset_id": asset.ID, "temperature": 21.0, "humidity": 44.0,
			}, http.StatusCreated, nil)

			var summary monitor.DashboardSummary
			callJSON(http.MethodGet, "/api/dashboard?limit=3", auth.RoleOperator, nil, http.StatusOK, &summary)
			Expect(summary.AssetCount).To(BeNumerically(">=", 1))
			Expect(summary.RecentReadings).NotTo(BeEmpty())
			Expect(len(summary.RecentReadings)).To(BeNumerically("<=", 3))
		})

		It("should serve the HTML page without a token", func() {
			status, body := call(http.MethodGet, "/", "", nil)
			Expect(status).To(Equal(http.StatusOK))
			Expect(string(body)).To(ContainSubstring("Climate monitor"))
		})
	})

	Describe("Export", func() {
		It("should download a workbook", func() {
			req, err := http.NewRequest(http.MethodGet, baseURL+"/api/export?format=xlsx", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token(auth.RoleOperator))

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
		})
	})

	Describe("Asset deletion", func() {
		It("should remove the asset's readings", func() {
			callJSON(http.MethodPost, "/api/readings", auth.RoleOperator, map[string]any{
				"asset_id": asset.ID, "temperature": 21.0, "humidity": 44.0,
			}, http.StatusCreated, nil)

			status, _ := call(http.MethodDelete, fmt.Sprintf("/api/assets/%d", asset.ID), auth.RoleSupervisor, nil)
			Expect(status).To(Equal(http.StatusNoContent))

			Expect(readingsOf(asset.ID)()).To(BeEmpty())
			status, _ = call(http.MethodGet, fmt.Sprintf("/api/statistics/assets/%d", asset.ID), auth.RoleOperator, nil)
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})
})

func urlPath(s string) string {
	return (&url.URL{Path: s}).EscapedPath()
}
