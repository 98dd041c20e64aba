package echoapi

import (
	"github.com/ebusmomentum88/school-portal-backend/core"
)

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,alphanum_"`
	Password   string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error {
	r.Identifier = core.CleanString(r.Identifier, true /* lower */)
	return core.Validate.Struct(r)
}

type LoginResponse struct {
	Token string `json:"token"`
}
