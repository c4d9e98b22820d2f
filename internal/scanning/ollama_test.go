package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		ollama   *Ollama
		image    []byte
		steps    []float64
		text     string
		err      error
		captured ollamaChatRequest
	)

	capture := func(w http.ResponseWriter, r *http.Request) {
		body, readErr := io.ReadAll(r.Body)
		Expect(readErr).NotTo(HaveOccurred())
		Expect(json.Unmarshal(body, &captured)).To(Succeed())
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		ollama = NewOllama(server.URL(), "llava")
		image = []byte("png bytes")
		steps = nil
		captured = ollamaChatRequest{}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Recognize(context.Background(), image, BlockConfig, func(p float64) {
			steps = append(steps, p)
		})
	})

	When("the model answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				capture,
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]string{"role": "assistant", "content": "```\nYHTEENSÄ 12,50\n```"},
					"done":    true,
				}),
			))
		})

		It("should return the transcription without fences", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("YHTEENSÄ 12,50"))
		})

		It("should send the image with the user message", func() {
			Expect(captured.Model).To(Equal("llava"))
			Expect(captured.Stream).To(BeFalse())
			Expect(captured.Messages).To(HaveLen(2))
			Expect(captured.Messages[1].Images).To(ConsistOf(base64.StdEncoding.EncodeToString(image)))
			Expect(captured.Messages[1].Content).To(ContainSubstring("single block"))
		})

		It("should report start and completion", func() {
			Expect(steps).To(Equal([]float64{0, 1}))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not found"))
		})

		It("returns a RecognizeError", func() {
			var re *RecognizeError
			Expect(err).To(BeAssignableToTypeOf(re))
			Expect(err.(*RecognizeError).Backend).To(Equal("ollama"))
			Expect(err.(*RecognizeError).Config).To(Equal("block"))
			Expect(err).To(MatchError(ContainSubstring("model not found")))
		})
	})

	When("the model answers with nothing", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"message": map[string]string{"role": "assistant", "content": ""},
				"done":    true,
			}))
		})

		It("returns ErrNoResponse", func() {
			Expect(err).To(MatchError(ErrNoResponse))
		})
	})

	When("the image is empty", func() {
		BeforeEach(func() {
			image = nil
		})

		It("returns ErrEmptyImage without calling the API", func() {
			Expect(err).To(MatchError(ErrEmptyImage))
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})
