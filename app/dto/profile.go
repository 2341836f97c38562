package dto

import (
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/entity"
)

// ProfilePayload is the wire form of a contact profile shared by the HTTP
// API, the gRPC structs and the Kafka events.
type ProfilePayload struct {
	UserID             string `json:"user_id"`
	Kind               string `json:"kind,omitempty"`
	Mobile             string `json:"mobile,omitempty"`
	Phone              string `json:"phone,omitempty"`
	Email              string `json:"email,omitempty"`
	CommunicationEmail string `json:"communication_email,omitempty"`
}

func (p *ProfilePayload) ToEntity() *entity.ContactProfile {
	if p == nil {
		return nil
	}
	return &entity.ContactProfile{
		UserID:             strings.TrimSpace(p.UserID),
		Kind:               entity.ParseUserKind(p.Kind),
		Mobile:             p.Mobile,
		Phone:              p.Phone,
		Email:              p.Email,
		CommunicationEmail: p.CommunicationEmail,
	}
}

func ProfilesToEntities(payloads []*ProfilePayload) []*entity.ContactProfile {
	profiles := make([]*entity.ContactProfile, 0, len(payloads))
	for _, p := range payloads {
		if p == nil {
			continue
		}
		profiles = append(profiles, p.ToEntity())
	}
	return profiles
}
