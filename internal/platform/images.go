package platform

import (
	"encoding/base64"
	"strings"

	"github.com/firebase/genkit/go/ai"
)

// MaxImages caps how many image attachments are forwarded per message.
const MaxImages = 3

// Attachment is one uploaded platform file.
type Attachment struct {
	ContentType string
	Data        []byte
}

// EncodeImages converts image attachments into inline data-URL media parts,
// dropping non-image attachments and keeping at most MaxImages.
func EncodeImages(attachments []Attachment) []*ai.Part {
	var parts []*ai.Part
	for _, att := range attachments {
		if !strings.Contains(att.ContentType, "image") {
			continue
		}
		if len(parts) == MaxImages {
			break
		}
		url := "data:" + att.ContentType + ";base64," + base64.StdEncoding.EncodeToString(att.Data)
		parts = append(parts, ai.NewMediaPart(att.ContentType, url))
	}
	return parts
}
