package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
)

var _ = Describe("ParseAssetKind", func() {
	DescribeTable("should accept known kinds",
		func(in string, want monitor.AssetKind) {
			kind, err := monitor.ParseAssetKind(in)
			Expect(err).NotTo(HaveOccurred())
			Expect(kind).To(Equal(want))
		},
		Entry("empty defaults to air conditioner", "", monitor.KindAirConditioner),
		Entry("air conditioner", "air_conditioner", monitor.KindAirConditioner),
		Entry("other equipment, any case", " Other ", monitor.KindOther),
	)

	It("should reject unknown kinds", func() {
		_, err := monitor.ParseAssetKind("chiller")
		Expect(monitor.IsValidation(err)).To(BeTrue())
		Expect(err).To(MatchError("validation failed: kind must be air_conditioner or other"))
	})
})
