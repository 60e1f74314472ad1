package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const requestIDHeader = "Bazaar-Request-Id"

type enrichmentRequest struct {
	RequestID   string    `json:"request_id"`
	ListingID   string    `json:"listing_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func newEnrichmentMsg(subject, listingID string, now time.Time) (*nats.Msg, error) {
	listingID = strings.TrimSpace(listingID)
	if listingID == "" {
		return nil, errors.New("listing id is required")
	}
	request := enrichmentRequest{
		RequestID:   uuid.NewString(),
		ListingID:   listingID,
		RequestedAt: now,
	}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("marshal enrichment request: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Header.Set(requestIDHeader, request.RequestID)
	msg.Data = data
	return msg, nil
}

// decodeEnrichmentRequest also accepts a bare listing id payload.
func decodeEnrichmentRequest(data []byte) (enrichmentRequest, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return enrichmentRequest{}, errors.New("empty enrichment message")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return enrichmentRequest{ListingID: trimmed}, nil
	}
	var request enrichmentRequest
	if err := json.Unmarshal([]byte(trimmed), &request); err != nil {
		return enrichmentRequest{}, fmt.Errorf("decode enrichment request: %w", err)
	}
	request.ListingID = strings.TrimSpace(request.ListingID)
	if request.ListingID == "" {
		return enrichmentRequest{}, errors.New("enrichment request without listing id")
	}
	return request, nil
}
