package split

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/geoklinglaw/payup/internal/scanning"
	"github.com/geoklinglaw/payup/internal/wizard"
)

func TestSplit(t *testing.T) {
	// Disable logging during tests
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Split Suite")
}

// mockScanner is a mock implementation of scanning.Scanner
type mockScanner struct {
	receipt    *scanning.Receipt
	extractErr error
	calls      int
}

func newMockScanner() *mockScanner {
	return &mockScanner{
		receipt: &scanning.Receipt{
			Merchant: "Starbucks Coffee",
			Date:     "2025-08-29",
			Subtotal: 9.50,
			Tax:      0.50,
			Total:    10.00,
			Currency: "SGD",
			LineItems: []scanning.Item{
				{Description: "Latte Tall", Quantity: 1, UnitPrice: 5.00, Amount: 5.00},
				{Description: "Blueberry Muffin", Quantity: 2, Amount: 9.00},
			},
		},
	}
}

func (m *mockScanner) Extract(ctx context.Context, imageData []byte, contentType string) (*scanning.Receipt, error) {
	m.calls++
	if m.extractErr != nil {
		return nil, m.extractErr
	}
	return m.receipt, nil
}

func (m *mockScanner) Close() error {
	return nil
}

var _ = Describe("Service", func() {
	var (
		scanner *mockScanner
		spool   *MemorySpool
		service *Service
	)

	BeforeEach(func() {
		scanner = newMockScanner()
		spool = NewMemorySpool()
		service = NewService(scanner, spool)
	})

	addTwoContributors := func() (hostID, otherID string) {
		state, err := service.AddContributor("Alice")
		Expect(err).NotTo(HaveOccurred())
		state, err = service.AddContributor("Bob")
		Expect(err).NotTo(HaveOccurred())
		return state.Contributors[0].ID, state.Contributors[1].ID
	}

	Describe("AddContributor", func() {
		It("rejects an empty name", func() {
			_, err := service.AddContributor("  ")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("the capture step", func() {
		BeforeEach(func() {
			addTwoContributors()
			state, err := service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Step).To(Equal(wizard.StepCapture))
		})

		It("fails advancement before a snapshot is attached", func() {
			_, err := service.Advance(context.Background())
			Expect(errors.Is(err, wizard.ErrNoHandler)).To(BeTrue())
			Expect(service.State().Step).To(Equal(wizard.StepCapture))
		})

		When("a snapshot is attached", func() {
			BeforeEach(func() {
				Expect(service.AttachSnapshot([]byte("fake-image"), "image/jpeg")).To(Succeed())
			})

			It("extracts on advance and stages the receipt", func() {
				state, err := service.Advance(context.Background())
				Expect(err).NotTo(HaveOccurred())
				Expect(state.Step).To(Equal(wizard.StepEntry))
				Expect(scanner.calls).To(Equal(1))
				Expect(state.Staging.Meta.Merchant).To(Equal("Starbucks Coffee"))
				Expect(state.Staging.Items).To(HaveLen(2))
			})

			It("clears the spool after a successful extraction", func() {
				_, err := service.Advance(context.Background())
				Expect(err).NotTo(HaveOccurred())
				_, _, err = spool.Get()
				Expect(errors.Is(err, ErrNoSnapshot)).To(BeTrue())
			})

			When("extraction fails", func() {
				BeforeEach(func() {
					scanner.extractErr = errors.New("upstream down")
				})

				It("leaves the step, staging and spool unchanged for a retry", func() {
					state, err := service.Advance(context.Background())
					Expect(err).To(HaveOccurred())
					Expect(state.Step).To(Equal(wizard.StepCapture))
					Expect(state.Staging.Items).To(BeEmpty())

					data, _, err := spool.Get()
					Expect(err).NotTo(HaveOccurred())
					Expect(data).To(Equal([]byte("fake-image")))
				})
			})
		})
	})

	Describe("DraftFromStaging", func() {
		BeforeEach(func() {
			addTwoContributors()
			_, err := service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(service.AttachSnapshot([]byte("fake-image"), "image/jpeg")).To(Succeed())
			_, err = service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("seeds the draft from the extracted receipt", func() {
			draft := service.DraftFromStaging()
			Expect(draft.Name).To(Equal("Starbucks Coffee"))
			Expect(draft.HostID).To(Equal(service.State().Contributors[0].ID))
			Expect(draft.TaxRate).To(BeNumerically("~", 5.26, 0.001))
			Expect(draft.Items).To(HaveLen(2))
			Expect(draft.Items[0].UnitPrice).To(Equal(5.00))
			Expect(draft.Items[0].Quantity).To(Equal(1))
			// amount/quantity fallback
			Expect(draft.Items[1].UnitPrice).To(Equal(4.50))
			Expect(draft.Items[1].Quantity).To(Equal(2))
		})
	})

	Describe("the entry step", func() {
		var hostID, otherID string

		BeforeEach(func() {
			hostID, otherID = addTwoContributors()
			service.Goto(wizard.StepEntry)
		})

		It("saves a valid draft on advance and appends the bill", func() {
			service.StageDraft(BillDraft{
				Name: "Dinner", HostID: hostID, TaxRate: 0,
				Items: []DraftItem{
					{Label: "Latte", UnitPrice: 5, Quantity: 1, Assignees: []string{hostID, otherID}},
					{Label: "Muffin", UnitPrice: 4.5, Quantity: 1, Assignees: []string{otherID}},
				},
			})

			state, err := service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(state.Step).To(Equal(wizard.StepReviewList))
			Expect(state.Bills).To(HaveLen(1))
			Expect(state.Bills[0].Name).To(Equal("Dinner"))
		})

		It("blocks the save and stays put when validation fails", func() {
			service.StageDraft(BillDraft{
				Name: "Dinner", HostID: "ghost", TaxRate: 0,
				Items: []DraftItem{{Label: "Latte", UnitPrice: 5, Quantity: 1}},
			})

			state, err := service.Advance(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(state.Step).To(Equal(wizard.StepEntry))
			Expect(state.Bills).To(BeEmpty())
		})
	})

	Describe("Summary", func() {
		var hostID, otherID string

		BeforeEach(func() {
			hostID, otherID = addTwoContributors()
			service.Goto(wizard.StepEntry)
			service.StageDraft(BillDraft{
				Name: "Dinner", HostID: hostID, TaxRate: 0,
				Items: []DraftItem{
					{Label: "Latte", UnitPrice: 5, Quantity: 1, Assignees: []string{hostID, otherID}},
					{Label: "Muffin", UnitPrice: 4.5, Quantity: 1, Assignees: []string{otherID}},
				},
			})
			_, err := service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())
		})

		It("computes the pairwise settlement", func() {
			result, err := service.Summary()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Lines).To(HaveLen(1))
			Expect(result.Lines[0].PayerID).To(Equal(otherID))
			Expect(result.Lines[0].PayeeID).To(Equal(hostID))
			Expect(result.Lines[0].Amount).To(BeNumerically("~", 7.00, 1e-9))
			Expect(result.Text).To(Equal("Final Split\n- Bob pays Alice $7.00\n"))
		})

		It("accumulates a second bill into the same pair", func() {
			service.Goto(wizard.StepEntry)
			service.StageDraft(BillDraft{
				Name: "Lunch", HostID: hostID, TaxRate: 0,
				Items: []DraftItem{{Label: "Sandwich", UnitPrice: 3, Quantity: 1, Assignees: []string{otherID}}},
			})
			_, err := service.Advance(context.Background())
			Expect(err).NotTo(HaveOccurred())

			result, err := service.Summary()
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Lines).To(HaveLen(1))
			Expect(result.Lines[0].Amount).To(BeNumerically("~", 10.00, 1e-9))
		})
	})

	Describe("Reset", func() {
		It("clears state, registrations and the spool", func() {
			addTwoContributors()
			Expect(service.AttachSnapshot([]byte("fake-image"), "image/jpeg")).To(Succeed())

			state := service.Reset()
			Expect(state.Contributors).To(BeEmpty())
			Expect(state.Bills).To(BeEmpty())
			Expect(state.Step).To(Equal(wizard.StepContributors))

			_, _, err := spool.Get()
			Expect(errors.Is(err, ErrNoSnapshot)).To(BeTrue())

			service.Goto(wizard.StepCapture)
			_, err = service.Advance(context.Background())
			Expect(errors.Is(err, wizard.ErrNoHandler)).To(BeTrue())
		})
	})
})
