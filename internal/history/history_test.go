package history

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.etcd.io/bbolt"
)

var _ = Describe("Store", func() {
	var (
		dir   string
		path  string
		store *Store
	)

	reload := func() {
		Expect(store.Close()).To(Succeed())
		var err error
		store, err = Load(path)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		path = filepath.Join(dir, "nested", ".gofi_history")

		var err error
		store, err = Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(store).NotTo(BeNil())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("Load", func() {
		It("should create the database file and its directory", func() {
			Expect(path).To(BeAnExistingFile())
		})

		It("should start empty", func() {
			Expect(store.Len()).To(Equal(0))
		})
	})

	Describe("Get", func() {
		It("should return zeros for unknown ids", func() {
			count, last := store.Get("firefox.desktop")
			Expect(count).To(BeZero())
			Expect(last).To(BeZero())
		})
	})

	Describe("RecordUse", func() {
		t1 := time.Unix(1700000000, 0)
		t2 := time.Unix(1700000500, 0)

		It("should count the first use", func() {
			store.RecordUse("x", t1)
			count, last := store.Get("x")
			Expect(count).To(Equal(uint64(1)))
			Expect(last).To(Equal(t1.Unix()))
		})

		It("should survive a reload", func() {
			store.RecordUse("x", t1)
			reload()
			count, last := store.Get("x")
			Expect(count).To(Equal(uint64(1)))
			Expect(last).To(Equal(t1.Unix()))

			store.RecordUse("x", t2)
			reload()
			count, last = store.Get("x")
			Expect(count).To(Equal(uint64(2)))
			Expect(last).To(Equal(t2.Unix()))
		})

		It("should keep other ids untouched", func() {
			store.RecordUse("a", t1)
			store.RecordUse("b", t2)
			store.RecordUse("a", t2)
			reload()

			count, _ := store.Get("a")
			Expect(count).To(Equal(uint64(2)))
			count, last := store.Get("b")
			Expect(count).To(Equal(uint64(1)))
			Expect(last).To(Equal(t2.Unix()))
			Expect(store.Len()).To(Equal(2))
		})
	})

	Describe("Close", func() {
		It("should be safe to call twice", func() {
			Expect(store.Close()).To(Succeed())
			Expect(store.Close()).To(Succeed())
		})

		It("should be safe on a nil store", func() {
			var s *Store
			Expect(s.Close()).To(Succeed())
		})
	})
})

var _ = Describe("Load failures", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	Context("when the file is not a database", func() {
		var (
			store *Store
			err   error
		)

		BeforeEach(func() {
			path := filepath.Join(dir, ".gofi_history")
			Expect(os.WriteFile(path, []byte("not a bolt file, just some garbage bytes"), 0o600)).To(Succeed())
			store, err = Load(path)
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("should report a PersistenceError", func() {
			var perr *PersistenceError
			Expect(errors.As(err, &perr)).To(BeTrue())
			Expect(perr.Op).To(Equal("load"))
		})

		It("should still return an empty, usable store", func() {
			Expect(store).NotTo(BeNil())
			Expect(store.Len()).To(Equal(0))

			store.RecordUse("x", time.Unix(10, 0))
			count, last := store.Get("x")
			Expect(count).To(Equal(uint64(1)))
			Expect(last).To(Equal(int64(10)))
		})
	})

	Context("when a record cannot be decoded", func() {
		var (
			path  string
			store *Store
			err   error
		)

		BeforeEach(func() {
			path = filepath.Join(dir, ".gofi_history")
			db, openErr := bbolt.Open(path, 0o600, nil)
			Expect(openErr).NotTo(HaveOccurred())
			Expect(db.Update(func(tx *bbolt.Tx) error {
				b, err := tx.CreateBucketIfNotExists([]byte(bucketName))
				if err != nil {
					return err
				}
				return b.Put([]byte("broken"), []byte{1, 2, 3})
			})).To(Succeed())
			Expect(db.Close()).To(Succeed())

			store, err = Load(path)
		})

		AfterEach(func() {
			Expect(store.Close()).To(Succeed())
		})

		It("should start empty with a PersistenceError", func() {
			Expect(err).To(HaveOccurred())
			Expect(store.Len()).To(Equal(0))
		})

		It("should overwrite the bad data on the next save", func() {
			store.RecordUse("x", time.Unix(20, 0))
			Expect(store.Close()).To(Succeed())

			var reloadErr error
			store, reloadErr = Load(path)
			Expect(reloadErr).NotTo(HaveOccurred())
			Expect(store.Len()).To(Equal(1))
		})
	})

	Context("when the path cannot be created", func() {
		var store *Store

		BeforeEach(func() {
			blocker := filepath.Join(dir, "file")
			Expect(os.WriteFile(blocker, nil, 0o600)).To(Succeed())

			var err error
			store, err = Load(filepath.Join(blocker, ".gofi_history"))
			Expect(err).To(HaveOccurred())
		})

		It("should keep updates in memory when saving fails", func() {
			Expect(func() { store.RecordUse("x", time.Unix(30, 0)) }).NotTo(Panic())
			count, _ := store.Get("x")
			Expect(count).To(Equal(uint64(1)))
		})
	})
})
