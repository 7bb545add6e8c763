package observe_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-kv/internal/observe"
)

var _ = Describe("Observer", func() {
	var output bytes.Buffer
	var observer observe.Observer

	BeforeEach(func() {
		output.Reset()
		logger := slog.New(slog.NewJSONHandler(&output, &slog.HandlerOptions{Level: slog.LevelDebug}))
		observer = observe.NewSlogObserver(logger)
	})

	decode := func() map[string]any {
		var record map[string]any
		Expect(json.Unmarshal(output.Bytes(), &record)).To(Succeed())
		return record
	}

	It("should log completed operations at info level", func() {
		observer(observe.Event{Component: "wal", Step: observe.StepAppend, Path: "ops.log", Offset: 16, Bytes: 12, Duration: time.Millisecond})
		record := decode()
		Expect(record).To(HaveKeyWithValue("level", "INFO"))
		Expect(record).To(HaveKeyWithValue("msg", "wal append"))
		Expect(record).To(HaveKeyWithValue("path", "ops.log"))
		Expect(record).To(HaveKeyWithValue("offset", BeNumerically("==", 16)))
		Expect(record).To(HaveKeyWithValue("bytes", BeNumerically("==", 12)))
	})

	It("should log intermediate steps at debug level", func() {
		observer(observe.Event{Component: "atomicfile", Step: observe.StepRename, Path: "data.txt"})
		record := decode()
		Expect(record).To(HaveKeyWithValue("level", "DEBUG"))
		Expect(record).ToNot(HaveKey("offset"))
		Expect(record).ToNot(HaveKey("error"))
	})

	It("should log failed steps at error level", func() {
		observer(observe.Event{Component: "atomicfile", Step: observe.StepSync, Path: "data.txt", Err: errors.New("boom")})
		record := decode()
		Expect(record).To(HaveKeyWithValue("level", "ERROR"))
		Expect(record).To(HaveKeyWithValue("error", "boom"))
	})

	It("should forward events to all observers", func() {
		var first, second []observe.Step
		tee := observe.Tee(
			func(event observe.Event) { first = append(first, event.Step) },
			func(event observe.Event) { second = append(second, event.Step) },
			observe.Discard,
		)
		tee(observe.Event{Step: observe.StepStart})
		tee(observe.Event{Step: observe.StepDone})
		Expect(first).To(Equal([]observe.Step{observe.StepStart, observe.StepDone}))
		Expect(second).To(Equal(first))
	})
})
