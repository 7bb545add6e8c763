package state_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-kv/internal/encoding"
	"github.com/backbone81/durable-kv/internal/fs"
	"github.com/backbone81/durable-kv/internal/observe"
	"github.com/backbone81/durable-kv/internal/state"
	"github.com/backbone81/durable-kv/internal/wal"
)

var _ = Describe("Store", func() {
	var dir string
	var logPath string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-store-*")
		Expect(err).ToNot(HaveOccurred())
		logPath = filepath.Join(dir, "operations.log")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should apply changes and recover them after a restart", func() {
		store, err := state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Len()).To(BeZero())
		Expect(store.Set("a", []byte("1"))).To(Succeed())
		Expect(store.Set("b", []byte("2"))).To(Succeed())
		Expect(store.Set("c", []byte("3"))).To(Succeed())
		Expect(store.Delete("b")).To(Succeed())

		value, ok := store.Get("a")
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal([]byte("1")))
		_, ok = store.Get("b")
		Expect(ok).To(BeFalse())
		Expect(store.Keys()).To(Equal([]string{"a", "c"}))
		Expect(store.Close()).To(Succeed())

		store, err = state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(store.State()).To(Equal(state.State{"a": []byte("1"), "c": []byte("3")}))
		Expect(store.Recovery()).To(Equal(state.Recovery{
			Records:     4,
			ValidLength: store.Recovery().ValidLength,
			StopReason:  wal.StopReasonEndOfLog,
		}))
		Expect(store.Close()).To(Succeed())
	})

	It("should keep the state in line with the log when the caller reuses its buffer", func() {
		store, err := state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		buffer := []byte("1")
		Expect(store.Set("a", buffer)).To(Succeed())
		buffer[0] = '9'

		value, ok := store.Get("a")
		Expect(ok).To(BeTrue())
		Expect(value).To(Equal([]byte("1")))
		Expect(store.Close()).To(Succeed())

		recovered, err := state.Recover(logPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(recovered["a"]).To(Equal(value))
	})

	It("should return a copy of the state", func() {
		store, err := state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		defer func() {
			Expect(store.Close()).To(Succeed())
		}()
		Expect(store.Set("a", []byte("1"))).To(Succeed())

		snapshot := store.State()
		snapshot["b"] = []byte("2")
		Expect(store.Len()).To(Equal(1))
	})

	It("should cut off a torn tail before appending", func() {
		store, err := state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Set("a", []byte("1"))).To(Succeed())
		Expect(store.Set("b", []byte("2"))).To(Succeed())
		Expect(store.Close()).To(Succeed())

		data, err := os.ReadFile(logPath)
		Expect(err).ToNot(HaveOccurred())
		Expect(os.WriteFile(logPath, data[:len(data)-3], 0o664)).To(Succeed())

		store, err = state.OpenStore(logPath)
		Expect(err).ToNot(HaveOccurred())
		recovery := store.Recovery()
		Expect(recovery.Records).To(Equal(1))
		Expect(recovery.StopReason).To(Equal(wal.StopReasonTruncated))
		Expect(recovery.DiscardedBytes).To(BeNumerically(">", 0))
		Expect(store.Set("c", []byte("3"))).To(Succeed())
		Expect(store.Close()).To(Succeed())

		Expect(state.Recover(logPath)).To(Equal(state.State{"a": []byte("1"), "c": []byte("3")}))
	})

	It("should leave a log with an undecodable record untouched", func() {
		Expect(os.WriteFile(logPath, undecodableRecord(), 0o664)).To(Succeed())

		Expect(state.OpenStore(logPath)).Error().To(MatchError(encoding.ErrDecoding))
		Expect(os.ReadFile(logPath)).To(Equal(undecodableRecord()))
	})

	It("should keep the state unchanged when the log can not be written", func() {
		faultyFS := fs.NewFaultyFS(nil)
		faultyFS.AddRule("operations.log", fs.Fault{FailOnSync: true})

		store, err := state.OpenStore(logPath, state.WithFileSystem(faultyFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Set("a", []byte("1"))).Error().To(MatchError(fs.ErrInjectedFault))
		Expect(store.Len()).To(BeZero())
		Expect(store.Close()).To(Succeed())

		Expect(state.Recover(logPath)).To(BeEmpty())
	})

	It("should publish and load snapshots", func() {
		var steps []observe.Step
		observer := func(event observe.Event) {
			if event.Component == "atomicfile" {
				steps = append(steps, event.Step)
			}
		}

		store, err := state.OpenStore(logPath, state.WithObserver(observer), state.WithSyncPolicy(wal.SyncPolicyTypeNone))
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Set("a", []byte("1"))).To(Succeed())
		Expect(store.Set("b", []byte("2"))).To(Succeed())

		snapshotPath := filepath.Join(dir, "snapshots", "state.snapshot")
		Expect(store.Snapshot(snapshotPath)).To(Succeed())
		Expect(store.Close()).To(Succeed())

		Expect(state.LoadSnapshot(snapshotPath)).To(Equal(state.State{"a": []byte("1"), "b": []byte("2")}))
		Expect(steps).To(ContainElements(observe.StepRename, observe.StepDone))
	})

	It("should work on an in-memory file system", func() {
		memoryFS := fs.NewMemoryFS()
		Expect(memoryFS.MkdirAll("/data", 0o775)).To(Succeed())

		store, err := state.OpenStore("/data/operations.log", state.WithFileSystem(memoryFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(store.Set("a", []byte("1"))).To(Succeed())
		Expect(store.Set("b", []byte("2"))).To(Succeed())
		Expect(store.Delete("a")).To(Succeed())
		Expect(store.Snapshot("/data/snapshots/state.snapshot")).To(Succeed())
		Expect(store.LoadSnapshot("/data/snapshots/state.snapshot")).To(Equal(state.State{"b": []byte("2")}))
		Expect(store.LoadSnapshot("/data/snapshots/missing.snapshot")).Error().To(MatchError(os.ErrNotExist))
		Expect(store.Close()).To(Succeed())

		store, err = state.OpenStore("/data/operations.log", state.WithFileSystem(memoryFS))
		Expect(err).ToNot(HaveOccurred())
		Expect(store.State()).To(Equal(state.State{"b": []byte("2")}))
		Expect(store.Close()).To(Succeed())

		_, err = memoryFS.Stat("/data/snapshots/state.snapshot")
		Expect(err).ToNot(HaveOccurred())
		_, err = os.Stat(filepath.Join(dir, "operations.log"))
		Expect(err).To(MatchError(os.ErrNotExist))
	})

	It("should fail for a missing log directory", func() {
		Expect(state.OpenStore(filepath.Join(dir, "missing", "operations.log"))).Error().To(MatchError(os.ErrNotExist))
	})
})
