package indexer

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

type fakeHistory map[string][2]int64

func (f fakeHistory) Get(id string) (uint64, int64) {
	r := f[id]
	return uint64(r[0]), r[1]
}

var _ = ginkgo.Describe("NewEntry", func() {
	ginkgo.It("should derive tokens from display name, name, keywords and executable", func() {
		e := NewEntry(&Application{
			ID:          "org.gnome.Terminal.desktop",
			Name:        "Terminal",
			DisplayName: "GNOME Terminal",
			Keywords:    []string{"shell", "Prompt", "terminal"},
			Exec:        `"/usr/bin/gnome-terminal" --window`,
		}, 3, 42)

		gomega.Expect(e.SearchTokens).To(gomega.Equal([]string{"gnome terminal", "terminal", "shell", "prompt", "gnome-terminal"}))
		gomega.Expect(e.Popularity).To(gomega.Equal(uint64(3)))
		gomega.Expect(e.LastUsed).To(gomega.Equal(int64(42)))
	})

	ginkgo.It("should tolerate missing fields", func() {
		e := NewEntry(&Application{ID: "bare.desktop"}, 0, 0)
		gomega.Expect(e.DisplayName).To(gomega.BeEmpty())
		gomega.Expect(e.SearchTokens).To(gomega.BeEmpty())
		gomega.Expect(e.SearchText()).To(gomega.BeEmpty())
	})

	ginkgo.It("should tolerate a nil application", func() {
		gomega.Expect(NewEntry(nil, 0, 0)).NotTo(gomega.BeNil())
	})

	ginkgo.DescribeTable("visibility",
		func(showIn int, noDisplay bool, expected int) {
			e := NewEntry(&Application{ShowIn: showIn, NoDisplay: noDisplay}, 0, 0)
			gomega.Expect(e.Visibility).To(gomega.Equal(expected))
			gomega.Expect(e.Displayable()).To(gomega.Equal(expected > 1))
		},
		ginkgo.Entry("shown and displayed", ShowInCurrent, false, 2),
		ginkgo.Entry("shown but NoDisplay", ShowInCurrent, true, 1),
		ginkgo.Entry("hidden but displayed", ShowInHidden, false, 1),
		ginkgo.Entry("hidden and NoDisplay", ShowInHidden, true, 0),
		ginkgo.Entry("out of range ordinal", 5, false, 2),
	)
})

var _ = ginkgo.Describe("Build", func() {
	var apps []*Application

	ginkgo.BeforeEach(func() {
		apps = []*Application{
			visibleApp("D", "d"),
			visibleApp("A", "a"),
			visibleApp("B", "b"),
			visibleApp("C", "c"),
		}
	})

	ginkgo.It("should sort by descending last use, ties in enumeration order", func() {
		idx := Build(apps, fakeHistory{"A": {1, 100}, "B": {5, 100}, "C": {2, 50}})
		gomega.Expect(ids(idx.All())).To(gomega.Equal([]string{"A", "B", "C", "D"}))
	})

	ginkgo.It("should attach history", func() {
		idx := Build(apps, fakeHistory{"B": {5, 100}})
		b, ok := idx.Get("B")
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(b.Popularity).To(gomega.Equal(uint64(5)))
		gomega.Expect(b.LastUsed).To(gomega.Equal(int64(100)))
	})

	ginkgo.It("should keep the first of duplicate IDs", func() {
		dup := visibleApp("A", "second a")
		idx := Build(append(apps, dup), nil)
		gomega.Expect(idx.Count()).To(gomega.Equal(4))
		a, _ := idx.Get("A")
		gomega.Expect(a.Name).To(gomega.Equal("a"))
	})

	ginkgo.It("should keep only displayable entries in the visible subset", func() {
		apps[1].NoDisplay = true
		apps[2].ShowIn = ShowInHidden
		idx := Build(apps, fakeHistory{"A": {9, 999}})
		gomega.Expect(ids(idx.Visible())).To(gomega.Equal([]string{"D", "C"}))
		gomega.Expect(idx.Count()).To(gomega.Equal(4))
	})

	ginkgo.It("should not let callers reorder the index", func() {
		idx := Build(apps, nil)
		all := idx.All()
		all[0], all[3] = all[3], all[0]
		gomega.Expect(ids(idx.All())).To(gomega.Equal([]string{"D", "A", "B", "C"}))
	})

	ginkgo.It("should score from the text fixed at construction", func() {
		e := NewEntry(visibleApp("A", "alpha"), 0, 0)
		e.SearchTokens[0] = "zzz"
		gomega.Expect(e.SearchText()).To(gomega.HavePrefix("alpha"))
		gomega.Expect(Score(e, "alpha")).To(gomega.BeNumerically(">", 0))
	})

	ginkgo.It("should report unknown IDs as missing", func() {
		_, ok := Build(apps, nil).Get("nope")
		gomega.Expect(ok).To(gomega.BeFalse())
	})
})
