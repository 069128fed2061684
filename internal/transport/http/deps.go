package http

import (
	"github.com/GioMjds/savoury-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/GioMjds/savoury-api/internal/infrastructure/jwt"
	"github.com/GioMjds/savoury-api/internal/infrastructure/memstore"
	s3infra "github.com/GioMjds/savoury-api/internal/infrastructure/s3"
	"github.com/GioMjds/savoury-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo    *dynamo.UserRepo
	Ledger      *memstore.Ledger
	S3Store     *s3infra.Store
	Mailer      smtp.Mailer
	JWTProvider *jwtinfra.Provider
}
