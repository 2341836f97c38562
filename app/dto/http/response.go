package http

import (
	"github.com/vibast-solutions/ms-go-contacts/app/dto"
	"github.com/vibast-solutions/ms-go-contacts/app/entity"
	"github.com/vibast-solutions/ms-go-contacts/app/index"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ValidateProfileResponse struct {
	UserID     string             `json:"user_id"`
	Valid      bool               `json:"valid"`
	Violations []entity.Violation `json:"violations"`
}

func NewValidateProfileResponse(userID string, violations []entity.Violation) *ValidateProfileResponse {
	if violations == nil {
		violations = []entity.Violation{}
	}
	return &ValidateProfileResponse{
		UserID:     userID,
		Valid:      len(violations) == 0,
		Violations: violations,
	}
}

type ConsumeProfilesResponse struct {
	Accepted int `json:"accepted"`
	Changed  int `json:"changed"`
}

func NewConsumeProfilesResponse(res *dto.IngestResult) *ConsumeProfilesResponse {
	return &ConsumeProfilesResponse{Accepted: res.Accepted, Changed: res.Changed}
}

type RemoveProfileResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Mobile string `json:"mobile"`
}

func NewRemoveProfileResponse(userID string, res index.Result) *RemoveProfileResponse {
	return &RemoveProfileResponse{
		UserID: userID,
		Email:  res.Email.String(),
		Mobile: res.Mobile.String(),
	}
}

type ResyncResponse struct {
	RunID      string `json:"run_id"`
	Profiles   int    `json:"profiles"`
	DurationMS int64  `json:"duration_ms"`
}

func NewResyncResponse(res *dto.ResyncResult) *ResyncResponse {
	return &ResyncResponse{
		RunID:      res.RunID,
		Profiles:   res.Profiles,
		DurationMS: res.Duration.Milliseconds(),
	}
}

type ChannelStatsResponse struct {
	Claims    int `json:"claims"`
	Values    int `json:"values"`
	Conflicts int `json:"conflicts"`
}

type IndexStatsResponse struct {
	Email  ChannelStatsResponse `json:"email"`
	Mobile ChannelStatsResponse `json:"mobile"`
}

func NewIndexStatsResponse(stats index.Stats) *IndexStatsResponse {
	return &IndexStatsResponse{
		Email:  ChannelStatsResponse(stats.Email),
		Mobile: ChannelStatsResponse(stats.Mobile),
	}
}

type ConflictResponse struct {
	Value   string   `json:"value"`
	UserIDs []string `json:"user_ids"`
}

type ConflictsResponse struct {
	Channel   string             `json:"channel"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

func NewConflictsResponse(ch index.Channel, conflicts []index.Conflict) *ConflictsResponse {
	out := make([]ConflictResponse, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, ConflictResponse{Value: c.Value, UserIDs: c.UserIDs})
	}
	return &ConflictsResponse{Channel: ch.String(), Conflicts: out}
}
