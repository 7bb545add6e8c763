package wal_test

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-kv/internal/encoding"
	"github.com/backbone81/durable-kv/internal/wal"
)

func randomOperations(random *rand.Rand, count int) []encoding.Operation {
	keys := []string{"a", "b", "c", "user:1", "user:2", "schlüssel", ""}
	operations := make([]encoding.Operation, 0, count)
	for range count {
		key := keys[random.IntN(len(keys))]
		if random.IntN(4) == 0 {
			operations = append(operations, encoding.Delete(key))
			continue
		}
		value := make([]byte, random.IntN(64))
		for i := range value {
			value[i] = byte(random.UintN(256))
		}
		operations = append(operations, encoding.Set(key, value))
	}
	return operations
}

var scenarioOperations = []encoding.Operation{
	encoding.Set("a", []byte("1")),
	encoding.Set("b", []byte("2")),
	encoding.Set("c", []byte("3")),
	encoding.Delete("b"),
}

var _ = Describe("WAL", func() {
	Context("With operations written to and read from disk", func() {
		for _, syncPolicyType := range wal.SyncPolicyTypes {
			Context(fmt.Sprintf("Through sync policy %s", syncPolicyType), func() {
				var dir string

				BeforeEach(func() {
					var err error
					dir, err = os.MkdirTemp("", "test-wal-*")
					Expect(err).ToNot(HaveOccurred())
				})

				AfterEach(func() {
					Expect(os.RemoveAll(dir)).To(Succeed())
				})

				It("should write operations and read those operations back again", func() {
					logPath := filepath.Join(dir, "operations.log")

					By("write to the log")
					writer, err := wal.Open(logPath, wal.WithSyncPolicy(syncPolicyType))
					Expect(err).ToNot(HaveOccurred())
					for _, operation := range scenarioOperations {
						Expect(writer.Append(operation)).To(Succeed())
					}
					Expect(writer.Close()).To(Succeed())

					By("re-open the log and read the written operations")
					Expect(wal.ReadAll(logPath)).To(Equal(scenarioOperations))
				})

				It("should continue appending after a restart", func() {
					logPath := filepath.Join(dir, "operations.log")
					for _, operation := range scenarioOperations {
						writer, err := wal.Open(logPath, wal.WithSyncPolicy(syncPolicyType))
						Expect(err).ToNot(HaveOccurred())
						Expect(writer.Append(operation)).To(Succeed())
						Expect(writer.Close()).To(Succeed())
					}
					Expect(wal.ReadAll(logPath)).To(Equal(scenarioOperations))
				})
			})
		}
	})

	Context("With generated operation sequences", func() {
		random := rand.New(rand.NewPCG(1, 2))

		for _, count := range []int{0, 1, 2, 10, 100} {
			operations := randomOperations(random, count)

			It(fmt.Sprintf("should round-trip %d operations", count), func() {
				data, _ := encodeLog(operations)
				Expect(readLog(data)).To(Equal(operations))
			})
		}
	})

	Context("With a damaged log", func() {
		var data []byte
		var recordEnds []int

		BeforeEach(func() {
			data, recordEnds = encodeLog(scenarioOperations)
		})

		recordIndexAt := func(offset int) int {
			for i, recordEnd := range recordEnds {
				if offset < recordEnd {
					return i
				}
			}
			return len(recordEnds)
		}

		It("should return all complete records for every truncation offset", func() {
			for length := 0; length <= len(data); length++ {
				reader := wal.NewReader(data[:length])
				entries, err := reader.ReadEntries()
				Expect(err).ToNot(HaveOccurred())

				complete := recordIndexAt(length)
				Expect(entries).To(Equal(scenarioOperations[:complete]), "truncated to %d bytes", length)
				if complete < len(recordEnds) && length > recordStart(recordEnds, complete) {
					Expect(reader.StopReason()).To(Equal(wal.StopReasonTruncated), "truncated to %d bytes", length)
				} else {
					Expect(reader.StopReason()).To(Equal(wal.StopReasonEndOfLog), "truncated to %d bytes", length)
				}
			}
		})

		It("should drop the damaged record and everything after it for every single bit flip", func() {
			for bit := 0; bit < len(data)*8; bit++ {
				corrupted := append([]byte(nil), data...)
				corrupted[bit/8] ^= 1 << (bit % 8)

				reader := wal.NewReader(corrupted)
				entries, err := reader.ReadEntries()
				Expect(err).ToNot(HaveOccurred(), "flipped bit %d", bit)

				damaged := recordIndexAt(bit / 8)
				Expect(entries).To(Equal(scenarioOperations[:damaged]), "flipped bit %d", bit)
				Expect(reader.ValidLength()).To(Equal(int64(recordStart(recordEnds, damaged))), "flipped bit %d", bit)
				Expect(reader.StopReason()).To(BeElementOf(wal.StopReasonTruncated, wal.StopReasonChecksumMismatch, wal.StopReasonEmptyRecord), "flipped bit %d", bit)
			}
		})

		It("should ignore garbage after the last record", func() {
			withGarbage := append(append([]byte(nil), data...), 0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0x05)
			reader := wal.NewReader(withGarbage)
			Expect(reader.ReadEntries()).To(Equal(scenarioOperations))
			Expect(reader.ValidLength()).To(Equal(int64(len(data))))
		})

		It("should report a checksum-valid record which cannot be decoded", func() {
			payload := []byte("not an operation")
			header, err := encoding.NewRecordHeader(payload)
			Expect(err).ToNot(HaveOccurred())
			record := make([]byte, encoding.RecordHeaderSize, encoding.RecordHeaderSize+len(payload))
			encoding.Endian.PutUint32(record[0:4], header.Length)
			encoding.Endian.PutUint32(record[4:8], header.Checksum)
			record = append(record, payload...)

			reader := wal.NewReader(append(append([]byte(nil), data...), record...))
			Expect(reader.ReadEntries()).Error().To(MatchError(encoding.ErrDecoding))
			Expect(reader.StopReason()).To(Equal(wal.StopReasonDecodeFailure))
			Expect(reader.ValidLength()).To(Equal(int64(len(data))))
		})
	})

	It("should read an empty log", func() {
		reader := wal.NewReader(nil)
		entries, err := reader.ReadEntries()
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(BeEmpty())
		Expect(reader.StopReason()).To(Equal(wal.StopReasonEndOfLog))
	})
})

func recordStart(recordEnds []int, index int) int {
	if index == 0 {
		return 0
	}
	return recordEnds[index-1]
}
