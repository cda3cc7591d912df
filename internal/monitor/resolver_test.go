package monitor_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/climate-monitor/internal/monitor"
)

var _ = Describe("Resolver", func() {
	var (
		ctx   context.Context
		store *memStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = newMemStore()
		store.addRule(rule(3, "S1", monitor.SpecificScope(1), 15, 30, 20, 70))
		store.addRule(rule(1, "G", monitor.GlobalScope(), 18, 24, 30, 60))
		store.addRule(rule(2, "S2", monitor.SpecificScope(2), 10, 20, 10, 20))
	})

	Describe("NewResolver", func() {
		It("should return error when rule store is nil", func() {
			resolver, err := monitor.NewResolver(nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("rule store cannot be nil"))
			Expect(resolver).To(BeNil())
		})
	})

	Describe("Resolve", func() {
		It("should return global rules plus the asset's own rules ordered by id", func() {
			resolver, err := monitor.NewResolver(store)
			Expect(err).NotTo(HaveOccurred())

			rules, err := resolver.Resolve(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(2))
			Expect(rules[0].Name).To(Equal("G"))
			Expect(rules[1].Name).To(Equal("S1"))
		})

		It("should return only global rules for an asset without specific rules", func() {
			resolver, _ := monitor.NewResolver(store)

			rules, err := resolver.Resolve(ctx, 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(1))
			Expect(rules[0].Scope.IsGlobal()).To(BeTrue())
		})

		It("should include inactive rules", func() {
			inactive := rule(4, "off", monitor.SpecificScope(1), 0, 1, 0, 1)
			inactive.NotifyActive = false
			store.addRule(inactive)
			resolver, _ := monitor.NewResolver(store)

			rules, err := resolver.Resolve(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(rules).To(HaveLen(3))
		})

		It("should return the same answer when called twice", func() {
			resolver, _ := monitor.NewResolver(store)

			first, err := resolver.Resolve(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			second, err := resolver.Resolve(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("should wrap store failures as StoreError", func() {
			store.failOn["RulesByScope"] = true
			resolver, _ := monitor.NewResolver(store)

			rules, err := resolver.Resolve(ctx, 1)
			Expect(err).To(HaveOccurred())
			Expect(monitor.IsStore(err)).To(BeTrue())
			Expect(err).To(MatchError(errBroken))
			Expect(rules).To(BeNil())
		})
	})

	Describe("ApplicableRules", func() {
		It("should drop duplicates and rules for other assets", func() {
			g := rule(1, "G", monitor.GlobalScope(), 18, 24, 30, 60)
			candidates := []monitor.ThresholdRule{
				rule(2, "S2", monitor.SpecificScope(2), 10, 20, 10, 20),
				g,
				g,
			}

			rules := monitor.ApplicableRules(candidates, 1)
			Expect(rules).To(ConsistOf(g))
		})

		It("should return an empty slice for no candidates", func() {
			Expect(monitor.ApplicableRules(nil, 1)).To(BeEmpty())
		})
	})

	Describe("Scope", func() {
		It("should cover every asset when global", func() {
			Expect(monitor.GlobalScope().Covers(1)).To(BeTrue())
			Expect(monitor.GlobalScope().Covers(99)).To(BeTrue())
			_, ok := monitor.GlobalScope().AssetID()
			Expect(ok).To(BeFalse())
		})

		It("should cover only its asset when specific", func() {
			scope := monitor.SpecificScope(7)
			Expect(scope.Covers(7)).To(BeTrue())
			Expect(scope.Covers(8)).To(BeFalse())
			id, ok := scope.AssetID()
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(uint(7)))
		})

		It("should cover nothing when unset", func() {
			var scope monitor.Scope
			Expect(scope.Covers(1)).To(BeFalse())
			Expect(scope.IsGlobal()).To(BeFalse())
		})
	})
})
