package scanning

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Selector", func() {
	var (
		recognizer *mockRecognizer
		selector   *Selector
		image      []byte
		percents   []int
		selection  Selection
	)

	BeforeEach(func() {
		recognizer = newMockRecognizer()
		selector = NewSelector(recognizer)
		image = []byte("png bytes")
		percents = nil
	})

	JustBeforeEach(func() {
		selection = selector.SelectBest(context.Background(), image, func(p int) {
			percents = append(percents, p)
		})
	})

	It("should try the receipt config then the block config", func() {
		Expect(recognizer.calls).To(HaveLen(2))
		Expect(recognizer.calls[0].Name).To(Equal("receipt"))
		Expect(recognizer.calls[0].Languages).To(Equal([]string{"eng", "fin"}))
		Expect(recognizer.calls[0].PageSegMode).To(Equal(PageSegAuto))
		Expect(recognizer.calls[1].Name).To(Equal("block"))
		Expect(recognizer.calls[1].Languages).To(Equal([]string{"eng"}))
		Expect(recognizer.calls[1].PageSegMode).To(Equal(PageSegSingleBlock))
		Expect(recognizer.calls[1].PreserveInterwordSpaces).To(BeTrue())
	})

	It("should pass the same image to both attempts", func() {
		Expect(recognizer.received).To(HaveEach(Equal(image)))
	})

	When("the second attempt scores higher", func() {
		BeforeEach(func() {
			recognizer.texts["receipt"] = "hello world"
			recognizer.texts["block"] = "TOTAL 12.50 EUR"
		})

		It("should select the second text", func() {
			Expect(selection.Text).To(Equal("TOTAL 12.50 EUR"))
			Expect(selection.Score).To(Equal(33))
			Expect(selection.Selected).To(Equal(1))
			Expect(selection.Failed()).To(BeFalse())
		})

		It("should record both attempts", func() {
			Expect(selection.Attempts).To(HaveLen(2))
			Expect(selection.Attempts[0].Score).To(Equal(2))
			Expect(selection.Attempts[1].Score).To(Equal(33))
		})
	})

	When("both attempts score the same", func() {
		BeforeEach(func() {
			recognizer.texts["receipt"] = "first text"
			recognizer.texts["block"] = "other text"
		})

		It("should keep the first attempt", func() {
			Expect(selection.Text).To(Equal("first text"))
			Expect(selection.Selected).To(Equal(0))
		})
	})

	When("the first attempt fails", func() {
		BeforeEach(func() {
			recognizer.errs["receipt"] = errEngine
			recognizer.texts["block"] = "Yhteensä 8,90"
		})

		It("should still run the second attempt", func() {
			Expect(recognizer.calls).To(HaveLen(2))
		})

		It("should select the second text", func() {
			Expect(selection.Text).To(Equal("Yhteensä 8,90"))
			Expect(selection.Selected).To(Equal(1))
		})

		It("should keep the failure on the attempt", func() {
			Expect(selection.Attempts[0].Err).To(MatchError(errEngine))
		})
	})

	When("the first attempt panics", func() {
		BeforeEach(func() {
			recognizer.panics["receipt"] = true
			recognizer.texts["block"] = "TOTAL 5.00"
		})

		It("should recover and use the second text", func() {
			Expect(selection.Attempts[0].Err).To(MatchError(ContainSubstring("panicked")))
			Expect(selection.Text).To(Equal("TOTAL 5.00"))
		})
	})

	When("both attempts fail", func() {
		BeforeEach(func() {
			recognizer.errs["receipt"] = errEngine
			recognizer.errs["block"] = errEngine
		})

		It("should return the failure text", func() {
			Expect(selection.Text).To(Equal(FailureText))
			Expect(selection.Score).To(Equal(0))
			Expect(selection.Failed()).To(BeTrue())
		})
	})

	When("no attempt scores above zero", func() {
		BeforeEach(func() {
			recognizer.texts["receipt"] = "@@"
			recognizer.texts["block"] = ""
		})

		It("should return the failure text", func() {
			Expect(selection.Text).To(Equal(FailureText))
			Expect(selection.Selected).To(Equal(-1))
		})
	})

	Describe("progress", func() {
		BeforeEach(func() {
			recognizer.steps = []float64{0, 0.5, 1}
		})

		It("should split progress across both attempts", func() {
			Expect(percents).To(Equal([]int{0, 25, 50, 50, 75, 100}))
		})

		When("the recognizer reports out of range values", func() {
			BeforeEach(func() {
				recognizer.steps = []float64{-1, 2}
			})

			It("should clamp each attempt to its half", func() {
				Expect(percents).To(Equal([]int{0, 50, 50, 100}))
			})
		})

		When("the first attempt fails", func() {
			BeforeEach(func() {
				recognizer.errs["receipt"] = errEngine
			})

			It("should only report the second half", func() {
				Expect(percents).To(Equal([]int{50, 75, 100}))
			})
		})
	})

	When("no progress sink is given", func() {
		It("should not panic", func() {
			recognizer.texts["receipt"] = "TOTAL 1.00"
			Expect(func() {
				selector.SelectBest(context.Background(), image, nil)
			}).NotTo(Panic())
		})
	})
})
