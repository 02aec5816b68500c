package split

import (
	"encoding/base64"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodePayload", func() {
	imageData := []byte("fake-image-bytes")
	encoded := base64.StdEncoding.EncodeToString(imageData)

	It("accepts a JSON object with base64Receipt and mimeType", func() {
		payload, err := DecodePayload([]byte(`{"base64Receipt": "` + encoded + `", "mimeType": "image/png"}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Data).To(Equal(imageData))
		Expect(payload.MimeType).To(Equal("image/png"))
	})

	It("accepts a data URL", func() {
		payload, err := DecodePayload([]byte("data:image/png;base64," + encoded))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Data).To(Equal(imageData))
		Expect(payload.MimeType).To(Equal("image/png"))
	})

	It("accepts a raw base64 string and defaults the MIME type", func() {
		payload, err := DecodePayload([]byte(encoded))
		Expect(err).NotTo(HaveOccurred())
		Expect(payload.Data).To(Equal(imageData))
		Expect(payload.MimeType).To(Equal("image/jpeg"))
	})

	It("rejects an empty body", func() {
		_, err := DecodePayload([]byte("  "))
		Expect(errors.Is(err, ErrMissingPayload)).To(BeTrue())
	})

	It("rejects a JSON object without base64Receipt", func() {
		_, err := DecodePayload([]byte(`{"mimeType": "image/png"}`))
		Expect(errors.Is(err, ErrMissingPayload)).To(BeTrue())
	})

	It("rejects invalid base64", func() {
		_, err := DecodePayload([]byte("!!!not-base64!!!"))
		Expect(errors.Is(err, ErrMissingPayload)).To(BeTrue())
	})

	It("rejects payloads over the size ceiling", func() {
		_, err := DecodePayload([]byte(strings.Repeat("A", maxBase64Len+1)))
		Expect(errors.Is(err, ErrPayloadTooLarge)).To(BeTrue())
	})
})
