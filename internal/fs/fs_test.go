package fs_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/backbone81/durable-kv/internal/fs"
)

var _ = Describe("LocalFS", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-fs-*")
		Expect(err).ToNot(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should create, write, rename and remove files", func() {
		lfs := fs.LocalFS{}
		subdir := filepath.Join(dir, "subdir")
		Expect(lfs.MkdirAll(subdir, 0o755)).To(Succeed())

		filePath := filepath.Join(subdir, "test.txt")
		file, err := lfs.OpenFile(filePath, os.O_CREATE|os.O_RDWR, 0o644)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Write([]byte("hello"))).To(Equal(5))
		Expect(file.Sync()).To(Succeed())
		Expect(file.Truncate(3)).To(Succeed())
		Expect(file.Close()).To(Succeed())

		info, err := lfs.Stat(filePath)
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Size()).To(Equal(int64(3)))

		renamedPath := filepath.Join(subdir, "renamed.txt")
		Expect(lfs.Rename(filePath, renamedPath)).To(Succeed())
		entries, err := lfs.ReadDir(subdir)
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("renamed.txt"))

		Expect(lfs.Remove(renamedPath)).To(Succeed())
		Expect(lfs.Stat(renamedPath)).Error().To(MatchError(os.ErrNotExist))
	})

	It("should return a nil file when opening fails", func() {
		file, err := fs.LocalFS{}.OpenFile(filepath.Join(dir, "missing"), os.O_RDONLY, 0)
		Expect(err).To(MatchError(os.ErrNotExist))
		Expect(file).To(BeNil())
	})

	It("should sync a directory", func() {
		Expect(fs.SyncDirectory(fs.Default, dir)).To(Succeed())
	})
})

var _ = Describe("FaultyFS", func() {
	var dir string
	var faulty *fs.FaultyFS

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "test-faulty-fs-*")
		Expect(err).ToNot(HaveOccurred())
		faulty = fs.NewFaultyFS(nil)
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("should pass through when no rule matches", func() {
		faulty.AddRule("other", fs.Fault{FailOnSync: true})
		file, err := faulty.OpenFile(filepath.Join(dir, "data"), os.O_CREATE|os.O_RDWR, 0o644)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Write([]byte("hello"))).To(Equal(5))
		Expect(file.Sync()).To(Succeed())
		Expect(file.Close()).To(Succeed())
	})

	It("should tear writes crossing the byte limit", func() {
		faulty.AddRule("data", fs.Fault{FailWrites: true, FailAfterBytes: 3})
		filePath := filepath.Join(dir, "data")
		file, err := faulty.OpenFile(filePath, os.O_CREATE|os.O_RDWR, 0o644)
		Expect(err).ToNot(HaveOccurred())
		n, err := file.Write([]byte("hello"))
		Expect(err).To(MatchError(fs.ErrInjectedFault))
		Expect(n).To(Equal(3))
		Expect(file.Close()).To(Succeed())
		Expect(os.ReadFile(filePath)).To(Equal([]byte("hel")))
	})

	It("should use the error of the rule", func() {
		injected := errors.New("disk on fire")
		faulty.AddRule("data", fs.Fault{FailOnSync: true, Err: injected})
		file, err := faulty.OpenFile(filepath.Join(dir, "data"), os.O_CREATE|os.O_RDWR, 0o644)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Sync()).To(MatchError(injected))
		Expect(file.Close()).To(Succeed())
	})

	It("should fail renames and leave both files untouched", func() {
		oldPath := filepath.Join(dir, "source")
		newPath := filepath.Join(dir, "target")
		Expect(os.WriteFile(oldPath, []byte("new"), 0o644)).To(Succeed())
		Expect(os.WriteFile(newPath, []byte("old"), 0o644)).To(Succeed())

		faulty.AddRule("target", fs.Fault{FailOnRename: true})
		Expect(faulty.Rename(oldPath, newPath)).To(MatchError(fs.ErrInjectedFault))
		Expect(os.ReadFile(newPath)).To(Equal([]byte("old")))
		Expect(os.ReadFile(oldPath)).To(Equal([]byte("new")))

		faulty.ClearRules()
		Expect(faulty.Rename(oldPath, newPath)).To(Succeed())
		Expect(os.ReadFile(newPath)).To(Equal([]byte("new")))
	})

	It("should prefer the longest matching pattern", func() {
		faulty.AddRule("data", fs.Fault{FailOnOpen: true})
		faulty.AddRule("data.log", fs.Fault{})
		file, err := faulty.OpenFile(filepath.Join(dir, "data.log"), os.O_CREATE|os.O_RDWR, 0o644)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Close()).To(Succeed())

		Expect(faulty.OpenFile(filepath.Join(dir, "data.bin"), os.O_CREATE|os.O_RDWR, 0o644)).Error().To(MatchError(fs.ErrInjectedFault))
	})

	It("should fail directory syncs", func() {
		faulty.AddRule(filepath.Base(dir), fs.Fault{FailOnSync: true})
		Expect(fs.SyncDirectory(faulty, dir)).To(MatchError(fs.ErrInjectedFault))
	})
})

var _ = Describe("AferoFS", func() {
	It("should create, write, rename and remove files in memory", func() {
		mfs := fs.NewMemoryFS()
		Expect(mfs.MkdirAll("/data/subdir", 0o755)).To(Succeed())

		file, err := mfs.OpenFile("/data/subdir/test.txt", os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		Expect(err).ToNot(HaveOccurred())
		Expect(file.Write([]byte("hello"))).To(Equal(5))
		Expect(file.Sync()).To(Succeed())
		Expect(file.Close()).To(Succeed())

		Expect(mfs.Rename("/data/subdir/test.txt", "/data/subdir/renamed.txt")).To(Succeed())
		entries, err := mfs.ReadDir("/data/subdir")
		Expect(err).ToNot(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name()).To(Equal("renamed.txt"))
		Expect(entries[0].IsDir()).To(BeFalse())

		info, err := mfs.Stat("/data/subdir/renamed.txt")
		Expect(err).ToNot(HaveOccurred())
		Expect(info.Size()).To(Equal(int64(5)))

		Expect(fs.SyncDirectory(mfs, "/data/subdir")).To(Succeed())
		Expect(mfs.Remove("/data/subdir/renamed.txt")).To(Succeed())
		Expect(mfs.Stat("/data/subdir/renamed.txt")).Error().To(MatchError(os.ErrNotExist))
	})

	It("should return a nil file when opening fails", func() {
		file, err := fs.NewMemoryFS().OpenFile("/missing", os.O_RDONLY, 0)
		Expect(err).To(MatchError(os.ErrNotExist))
		Expect(file).To(BeNil())
	})

	It("should be wrapped by the faulty file system", func() {
		faulty := fs.NewFaultyFS(fs.NewMemoryFS())
		faulty.AddRule("test", fs.Fault{FailOnOpen: true})
		Expect(faulty.OpenFile("/test.txt", os.O_CREATE|os.O_WRONLY, 0o644)).Error().To(MatchError(fs.ErrInjectedFault))
	})
})
