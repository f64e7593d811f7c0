package http

import (
	"github.com/whisperly-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/whisperly-api/internal/infrastructure/jwt"
	"github.com/whisperly-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router. Services take
// narrow store interfaces; the router wires them from these concrete repos.
type Deps struct {
	UserRepo       *dynamo.UserRepo
	ConfessionRepo *dynamo.ConfessionRepo
	Mailer         smtp.Mailer
	JWTProvider    *jwtinfra.Provider
}
