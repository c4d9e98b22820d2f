package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Normalize", func() {
	DescribeTable("cleaning OCR text",
		func(raw, expected string) {
			Expect(Normalize(raw)).To(Equal(expected))
		},
		Entry("collapses whitespace", "  TOTAL \n\t 12,50  ", "TOTAL 12,50"),
		Entry("removes pipes", "Foo|Bar", "Foo Bar"),
		Entry("removes slash noise but keeps dates", "Date ///// 12/03/2024", "Date 12/03/2024"),
		Entry("removes lone slashes", "Sum / 5.00", "Sum 5.00"),
		Entry("drops unexpected symbols", "Price: 5.00 @ #", "Price: 5.00"),
		Entry("removes lone letters", "x 5% a", "5 %"),
		Entry("keeps a letter labelling a currency", "O € 10", "0 € 10"),
		Entry("keeps Nordic words whole", "käteinen 5.00", "käteinen 5.00"),
		Entry("repairs sisältää", "SISALTAA ALV 24%", "sisältää ALV 24 %"),
		Entry("repairs arvonlisäveroa", "Arvonlisavero 14%", "arvonlisäveroa 14 %"),
		Entry("repairs yhteensä", "YHTEENSÄ: 23,50€", "yhteensä: 23,50 €"),
		Entry("turns USD into a dollar sign", "Amount 12USD", "Amount 12 $"),
		Entry("separates amounts from words", "Total12.50EUR", "Total 12.50 EUR"),
		Entry("leaves dotted dates alone", "12.03.2024 14.22.05", "12.03.2024 14.22.05"),
		Entry("handles empty text", "", ""),
	)

	DescribeTable("is idempotent",
		func(raw string) {
			once := Normalize(raw)
			Expect(Normalize(once)).To(Equal(once))
		},
		Entry("receipt text", "K-MARKET\nYHTEENSA 23,50 €\nALV 14% 2,89\n12.03.2024 14.22"),
		Entry("slash noise", `a / b // c /// d \ e`),
		Entry("mangled amount", "2,951.00 kr"),
		Entry("letters beside amounts", "12.34O l S I"),
		Entry("symbols only", "@@ ## || //"),
		Entry("repaired words", "arvonlisäveroa yhteensää sisältää"),
	)
})

var _ = Describe("foldDiacritics", func() {
	It("should fold Nordic letters one rune at a time", func() {
		folded, offsets := foldDiacritics("Yhteensä €")
		Expect(folded).To(Equal("Yhteensa €"))
		Expect(offsets).To(HaveLen(len(folded) + 1))
		Expect(offsets[7]).To(Equal(7))
		Expect(offsets[8]).To(Equal(9))
		Expect(offsets[len(folded)]).To(Equal(len("Yhteensä €")))
	})
})
