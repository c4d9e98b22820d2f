package receipt

import (
	"bytes"
	"context"
	"image/png"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-ocr/internal/preprocess"
	"github.com/zombor/receipt-ocr/internal/scanning"
)

var _ = Describe("Service", func() {
	var (
		selector    *mockSelector
		timeSource  *mockTimeSource
		service     *Service
		data        []byte
		contentType string
		percents    []int
		record      *Record
		err         error
	)

	BeforeEach(func() {
		selector = newMockSelector("K-Market\nYHTEENSÄ 23,50 €\nALV 14%\n12.03.2024 14.22")
		timeSource = &mockTimeSource{now: time.Date(2024, 3, 12, 15, 4, 5, 0, time.UTC)}
		service = NewServiceWithDeps(selector, timeSource)
		data = pngReceipt(400, 600)
		contentType = "image/png"
		percents = nil
	})

	JustBeforeEach(func() {
		record, err = service.Scan(context.Background(), data, contentType, func(p int) {
			percents = append(percents, p)
		})
	})

	When("scanning a readable receipt", func() {
		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should extract the total and the date", func() {
			Expect(record.FinalPrice.StringFixed(2)).To(Equal("23.50"))
			Expect(*record.Date).To(Equal("12.03.2024"))
		})

		It("should stamp the record with the current time", func() {
			Expect(record.ExtractedAt).To(Equal(timeSource.now))
		})

		It("should hand the selector a binarized PNG at OCR size", func() {
			Expect(selector.calls).To(Equal(1))
			img, decodeErr := png.Decode(bytes.NewReader(selector.received))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(800))
			Expect(img.Bounds().Dy()).To(Equal(1200))
		})
	})

	When("the selector reports progress", func() {
		BeforeEach(func() {
			selector.percents = []int{0, 50, 100}
		})

		It("should forward it in order", func() {
			Expect(percents).To(Equal([]int{0, 50, 100}))
		})
	})

	When("both OCR attempts fail", func() {
		BeforeEach(func() {
			selector.selection = scanning.Selection{
				Text:     scanning.FailureText,
				Selected: -1,
				Attempts: []scanning.Attempt{
					{Config: "receipt", Err: errBackend},
					{Config: "block", Err: errBackend},
				},
			}
		})

		It("should still return a record", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should leave both fields empty and keep the placeholder text", func() {
			Expect(record.FinalPrice).To(BeNil())
			Expect(record.Date).To(BeNil())
			Expect(record.RawText).To(Equal(scanning.FailureText))
		})
	})

	When("the upload is not an image", func() {
		BeforeEach(func() {
			data = []byte("this is a text file")
			contentType = "text/plain"
		})

		It("returns ErrUnsupportedFormat", func() {
			Expect(err).To(MatchError(preprocess.ErrUnsupportedFormat))
			Expect(record).To(BeNil())
		})

		It("should not run OCR", func() {
			Expect(selector.calls).To(BeZero())
		})
	})

	When("the upload is empty", func() {
		BeforeEach(func() {
			data = nil
		})

		It("returns ErrDecode", func() {
			Expect(err).To(MatchError(preprocess.ErrDecode))
		})
	})

	Describe("NewService", func() {
		It("should use the wall clock", func() {
			before := time.Now()
			rec, scanErr := NewService(newMockSelector("SUMMA 1,00")).Scan(context.Background(), pngReceipt(64, 64), "image/png", nil)
			Expect(scanErr).NotTo(HaveOccurred())
			Expect(rec.ExtractedAt).To(BeTemporally(">=", before))
		})
	})
})
