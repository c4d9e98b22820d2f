package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	DescribeTable("finding the receipt date",
		func(text, expected string) {
			date, ok := Date(text)
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(expected))
		},
		Entry("labelled ISO date", "DATE: 2025-10-01 12/03/2024", "2025-10-01"),
		Entry("bare ISO date", "Kuitti 2024-03-12", "2024-03-12"),
		Entry("ISO date over an earlier dotted date", "03.04.2024 and 2024-05-06", "2024-05-06"),
		Entry("slash date with time", "27/11/2020, 12.33", "27/11/2020, 12.33"),
		Entry("dotted date with time", "12.03.2024 14.22.05", "12.03.2024 14.22.05"),
		Entry("dotted date", "Kuitti 12.03.2024", "12.03.2024"),
		Entry("slash date", "Paid 3/7/2023", "3/7/2023"),
		Entry("dashed date", "05-06-2024", "05-06-2024"),
		Entry("Swedish month", "12 maj 2024", "12 maj 2024"),
		Entry("Swedish month in capitals", "12 MAJ 2024", "12 MAJ 2024"),
		Entry("Finnish month", "3 marras 2023", "3 marras 2023"),
	)

	It("should report no date when none is printed", func() {
		_, ok := Date("no date here 12.50")
		Expect(ok).To(BeFalse())
	})
})
