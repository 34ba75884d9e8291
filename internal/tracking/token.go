package tracking

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Token identifies the campaign and recipient behind a tracking URL.
type Token struct {
	CampaignID  string
	RecipientID string
}

// EncodeToken packs campaign and recipient IDs into a URL-safe path segment.
func EncodeToken(campaignID, recipientID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(campaignID + "|" + recipientID))
}

// DecodeToken reverses EncodeToken. Malformed input yields an error rather
// than a partial token; tracking endpoints treat that as a silent no-op.
func DecodeToken(data string) (Token, error) {
	raw, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return Token{}, fmt.Errorf("decode tracking token: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Token{}, fmt.Errorf("malformed tracking token")
	}
	return Token{CampaignID: parts[0], RecipientID: parts[1]}, nil
}
