package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Task types
const (
	TypeSetVerifiedBadge = "profile:set_verified_badge"
)

// SetVerifiedBadgePayload is the payload for verified-badge tasks.
type SetVerifiedBadgePayload struct {
	VideoID uuid.UUID `json:"video_id"`
	OwnerID uuid.UUID `json:"owner_id"`
}

// NewSetVerifiedBadgeTask creates a verified-badge task payload.
func NewSetVerifiedBadgeTask(videoID, ownerID uuid.UUID) (*SetVerifiedBadgePayload, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("owner ID is required")
	}

	return &SetVerifiedBadgePayload{
		VideoID: videoID,
		OwnerID: ownerID,
	}, nil
}

// Marshal serializes the payload to JSON.
func (p *SetVerifiedBadgePayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalSetVerifiedBadgePayload deserializes JSON to payload.
func UnmarshalSetVerifiedBadgePayload(data []byte) (*SetVerifiedBadgePayload, error) {
	var payload SetVerifiedBadgePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return &payload, nil
}
