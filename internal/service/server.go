package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/pkg/api/apiconnect"
)

// Deps are the collaborators shared by all services.
type Deps struct {
	Store         storage.Store
	Authenticator auth.Authenticator
	JWTManager    *auth.JWTManager
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
	ActivityLimit int
}

// PublicProcedures can be called without a bearer token.
var PublicProcedures = []string{
	apiconnect.AuthServiceRegisterProcedure,
	apiconnect.AuthServiceLoginProcedure,
}

// Mount registers every service on mux behind the metrics, auth and logging
// interceptors, outermost first. Logging runs inside auth so it sees the user ID.
func Mount(mux *http.ServeMux, deps Deps) {
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(deps.Metrics),
		middleware.RequireAuth(deps.JWTManager, PublicProcedures...),
		middleware.LoggingInterceptor(deps.Logger, HeaderSplitErrorKind, HeaderSplitParticipant, HeaderSplitMismatch),
	)

	mux.Handle(apiconnect.NewAuthServiceHandler(
		NewAuthService(deps.Authenticator, deps.JWTManager, deps.Store, deps.Logger), interceptors))
	mux.Handle(apiconnect.NewFriendServiceHandler(
		NewFriendService(deps.Store, deps.Metrics), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(
		NewGroupService(deps.Store, deps.Metrics), interceptors))
	mux.Handle(apiconnect.NewLedgerServiceHandler(
		NewLedgerService(deps.Store, deps.Metrics, deps.ActivityLimit), interceptors))
}
