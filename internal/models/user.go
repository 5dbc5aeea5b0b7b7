package models

import "github.com/golang-jwt/jwt"

const (
	RoleAdmin    = "admin"
	RoleBusiness = "business"
	RoleClient   = "client"
)

// Claims is the access token payload issued by the account service.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}
