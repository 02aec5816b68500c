package split

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/geoklinglaw/payup/internal/wizard"
)

var _ = Describe("Server", func() {
	var (
		scanner *mockScanner
		service *Service
		server  *Server
	)

	BeforeEach(func() {
		scanner = newMockScanner()
		service = NewService(scanner, NewMemorySpool())
		server = NewServer(service, BasicAuth{})
	})

	do := func(method, path string, body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader(body))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, v any) {
		ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), v)).To(Succeed())
	}

	encodedImage := base64.StdEncoding.EncodeToString([]byte("fake-image"))

	Describe("POST /api/extract", func() {
		It("returns the raw receipt JSON as text for a JSON payload", func() {
			rec := do("POST", "/api/extract", []byte(`{"base64Receipt": "`+encodedImage+`", "mimeType": "image/png"}`))
			Expect(rec.Code).To(Equal(http.StatusOK))

			var body struct {
				Text string `json:"text"`
			}
			decode(rec, &body)
			Expect(body.Text).To(ContainSubstring(`"merchant":"Starbucks Coffee"`))
		})

		It("accepts a data URL payload", func() {
			rec := do("POST", "/api/extract", []byte("data:image/jpeg;base64,"+encodedImage))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("accepts a raw base64 payload", func() {
			rec := do("POST", "/api/extract", []byte(encodedImage))
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("rejects a missing payload", func() {
			rec := do("POST", "/api/extract", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var body map[string]string
			decode(rec, &body)
			Expect(body["error"]).To(Equal("Missing base64Receipt"))
		})

		It("rejects an oversized payload", func() {
			rec := do("POST", "/api/extract", []byte(strings.Repeat("A", maxBase64Len+1)))
			Expect(rec.Code).To(Equal(http.StatusRequestEntityTooLarge))

			var body map[string]string
			decode(rec, &body)
			Expect(body["error"]).To(Equal("Image too large"))
		})

		It("reports an upstream failure as a gateway error", func() {
			scanner.extractErr = errors.New("model unavailable")
			rec := do("POST", "/api/extract", []byte(encodedImage))
			Expect(rec.Code).To(Equal(http.StatusBadGateway))

			var body map[string]string
			decode(rec, &body)
			Expect(body["error"]).To(Equal("Extraction failed"))
			Expect(body["details"]).To(ContainSubstring("model unavailable"))
		})

		It("reports a missing backend as a configuration error", func() {
			service = NewService(nil, NewMemorySpool())
			server = NewServer(service, BasicAuth{})
			rec := do("POST", "/api/extract", []byte(encodedImage))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			server = NewServer(service, BasicAuth{Username: "user", Password: "pass"})
		})

		It("rejects requests without credentials", func() {
			rec := do("GET", "/api/state", nil)
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("accepts requests with valid credentials", func() {
			req := httptest.NewRequest("GET", "/api/state", nil)
			req.SetBasicAuth("user", "pass")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("the wizard flow", func() {
		var state wizard.State

		addContributor := func(name string) {
			rec := do("POST", "/api/contributors", []byte(`{"name": "`+name+`"}`))
			ExpectWithOffset(1, rec.Code).To(Equal(http.StatusCreated))
			decode(rec, &state)
		}

		advance := func() *httptest.ResponseRecorder {
			return do("POST", "/api/advance", nil)
		}

		It("rejects a contributor with an empty name", func() {
			rec := do("POST", "/api/contributors", []byte(`{"name": ""}`))
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("blocks advancement silently with a single contributor", func() {
			addContributor("Alice")
			rec := advance()
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepContributors))
		})

		It("walks the full flow from contributors to summary", func() {
			addContributor("Alice")
			addContributor("Bob")
			hostID := state.Contributors[0].ID
			otherID := state.Contributors[1].ID

			// contributors -> capture
			rec := advance()
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepCapture))

			// advancing before the snapshot is attached is a conflict
			rec = advance()
			Expect(rec.Code).To(Equal(http.StatusConflict))

			rec = do("POST", "/api/snapshot", []byte(encodedImage))
			Expect(rec.Code).To(Equal(http.StatusOK))

			// capture -> entry, via extraction
			rec = advance()
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepEntry))
			Expect(state.Staging.Meta.Merchant).To(Equal("Starbucks Coffee"))

			// the draft is seeded from staging
			rec = do("GET", "/api/draft", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var draft BillDraft
			decode(rec, &draft)
			Expect(draft.Name).To(Equal("Starbucks Coffee"))
			Expect(draft.Items).To(HaveLen(2))

			// stage an edited draft and save it
			draft.TaxRate = 0
			draft.Items = []DraftItem{
				{Label: "Latte", UnitPrice: 5, Quantity: 1, Assignees: []string{hostID, otherID}},
				{Label: "Muffin", UnitPrice: 4.5, Quantity: 1, Assignees: []string{otherID}},
			}
			body, err := json.Marshal(draft)
			Expect(err).NotTo(HaveOccurred())
			rec = do("POST", "/api/draft", body)
			Expect(rec.Code).To(Equal(http.StatusOK))

			// entry -> review
			rec = advance()
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepReviewList))
			Expect(state.Bills).To(HaveLen(1))

			// review -> summary
			rec = advance()
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepSummary))

			rec = do("GET", "/api/summary", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			var result SummaryResult
			decode(rec, &result)
			Expect(result.Lines).To(HaveLen(1))
			Expect(result.Text).To(Equal("Final Split\n- Bob pays Alice $7.00\n"))

			// reset clears everything
			rec = do("POST", "/api/reset", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepContributors))
			Expect(state.Contributors).To(BeEmpty())
			Expect(state.Bills).To(BeEmpty())
		})

		It("reports a validation failure without leaving the entry step", func() {
			addContributor("Alice")
			addContributor("Bob")

			rec := do("POST", "/api/goto", []byte(`{"step": 2}`))
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = do("POST", "/api/draft", []byte(`{"name": "Dinner", "host_id": "ghost", "tax_rate": 0, "items": []}`))
			Expect(rec.Code).To(Equal(http.StatusOK))

			rec = advance()
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			rec = do("GET", "/api/state", nil)
			decode(rec, &state)
			Expect(state.Step).To(Equal(wizard.StepEntry))
			Expect(state.Bills).To(BeEmpty())
		})
	})
})
