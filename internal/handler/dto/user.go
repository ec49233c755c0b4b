package dto

import "github.com/coursehub/content/internal/service"

// UpdateUserRequest is the body of PUT /content/user. Absent fields are
// left unchanged. Any id in the body is ignored.
type UpdateUserRequest struct {
	Nickname     *string `json:"nickname"`
	Username     *string `json:"username"`
	Headline     *string `json:"headline"`
	Introduction *string `json:"introduction"`
	Image        *string `json:"image"`
}

// ToInput converts the request to service input for user id.
func (r UpdateUserRequest) ToInput(id int64) service.UpdateUserInput {
	return service.UpdateUserInput{
		ID:           id,
		Nickname:     r.Nickname,
		Username:     r.Username,
		Headline:     r.Headline,
		Introduction: r.Introduction,
		Image:        r.Image,
	}
}
