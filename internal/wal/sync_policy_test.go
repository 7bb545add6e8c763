package wal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/backbone81/durable-kv/internal/wal"
)

var _ = Describe("SyncPolicy", func() {
	It("should parse every supported sync policy type", func() {
		for _, syncPolicyType := range wal.SyncPolicyTypes {
			Expect(wal.ParseSyncPolicyType(syncPolicyType.String())).To(Equal(syncPolicyType))

			syncPolicy, err := wal.GetSyncPolicy(syncPolicyType)
			Expect(err).ToNot(HaveOccurred())
			Expect(syncPolicy.Durable()).To(Equal(syncPolicyType == wal.SyncPolicyTypeImmediate))
		}
	})

	It("should reject unsupported sync policy types", func() {
		Expect(wal.ParseSyncPolicyType("sometimes")).Error().To(MatchError(wal.ErrSyncPolicyUnsupported))
		Expect(wal.GetSyncPolicy(wal.SyncPolicyType(99))).Error().To(MatchError(wal.ErrSyncPolicyUnsupported))
	})

	It("should default to a durable sync policy", func() {
		Expect(wal.DefaultSyncPolicy).To(Equal(wal.SyncPolicyTypeImmediate))
	})
})

var _ = Describe("Metrics", func() {
	It("should register all collectors", func() {
		registry := prometheus.NewRegistry()
		Expect(wal.RegisterMetrics(registry)).To(Succeed())
		Expect(wal.RegisterMetrics(registry)).ToNot(Succeed())
	})
})
