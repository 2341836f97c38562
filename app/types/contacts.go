package types

import (
	"strings"

	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"

	validation "github.com/jellydator/validation"
	"github.com/labstack/echo/v4"
)

const MaxProfilesPerRequest = 1000

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_not_blank", "must not be blank")
	}
	return nil
})

var validKind = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	switch entity.UserKind(strings.ToLower(strings.TrimSpace(s))) {
	case "", entity.UserKindInternal, entity.UserKindExternal:
		return nil
	}
	return validation.NewError("validation_kind", "must be internal or external")
})

func validateProfile(p *dto.ProfilePayload) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserID, validation.Required.Error("user_id is required"), notBlank),
		validation.Field(&p.Kind, validKind),
		validation.Field(&p.Email, validation.Length(0, 320)),
		validation.Field(&p.Mobile, validation.Length(0, 64)),
		validation.Field(&p.Phone, validation.Length(0, 64)),
	)
}

type ValidateProfileRequest struct {
	dto.ProfilePayload
}

func NewValidateProfileRequestFromContext(ctx echo.Context) (*ValidateProfileRequest, error) {
	var body ValidateProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ValidateProfileRequest) Validate() error {
	return validateProfile(&r.ProfilePayload)
}

func (r *ValidateProfileRequest) Profile() *entity.ContactProfile {
	return r.ProfilePayload.ToEntity()
}

// ConsumeProfilesRequest carries either a single profile or a batch.
type ConsumeProfilesRequest struct {
	Profile  *dto.ProfilePayload   `json:"profile,omitempty"`
	Profiles []*dto.ProfilePayload `json:"profiles,omitempty"`
}

func NewConsumeProfilesRequestFromContext(ctx echo.Context) (*ConsumeProfilesRequest, error) {
	var body ConsumeProfilesRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *ConsumeProfilesRequest) All() []*dto.ProfilePayload {
	all := make([]*dto.ProfilePayload, 0, len(r.Profiles)+1)
	if r.Profile != nil {
		all = append(all, r.Profile)
	}
	for _, p := range r.Profiles {
		if p != nil {
			all = append(all, p)
		}
	}
	return all
}

func (r *ConsumeProfilesRequest) Validate() error {
	all := r.All()
	if err := validation.Validate(all,
		validation.Required.Error("profile or profiles is required"),
		validation.Length(1, MaxProfilesPerRequest).Error("too many profiles"),
	); err != nil {
		return err
	}

	for _, p := range all {
		if err := validateProfile(p); err != nil {
			return err
		}
	}
	return nil
}

func (r *ConsumeProfilesRequest) Entities() []*entity.ContactProfile {
	return dto.ProfilesToEntities(r.All())
}

type RemoveProfileRequest struct {
	UserID string `json:"user_id"`
}

func NewRemoveProfileRequestFromContext(ctx echo.Context) (*RemoveProfileRequest, error) {
	var body RemoveProfileRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	return &body, nil
}

func (r *RemoveProfileRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required.Error("user_id is required"), notBlank),
	)
}

func (r *RemoveProfileRequest) Profile() *entity.ContactProfile {
	return &entity.ContactProfile{UserID: strings.TrimSpace(r.UserID)}
}

type ConflictsRequest struct {
	Channel index.Channel
}

func NewConflictsRequestFromContext(ctx echo.Context) (*ConflictsRequest, error) {
	raw := ctx.QueryParam("channel")
	if strings.TrimSpace(raw) == "" {
		return &ConflictsRequest{Channel: index.ChannelEmail}, nil
	}

	ch, err := index.ParseChannel(raw)
	if err != nil {
		return nil, err
	}
	return &ConflictsRequest{Channel: ch}, nil
}
