package di

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/salmon302/DSATrain-sub000/internal/httpapi"
)

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *httpapi.Server
}

// NewHTTPServer creates the HTTP server with the gateway routes mounted.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	do.MustInvoke[*LoggerService](i)
	gwSvc := do.MustInvoke[*GatewayService](i)

	handler := httpapi.SetupRoutes(gwSvc.Gateway)

	server := httpapi.NewServer(
		cfgSvc.Get().Server.Listen,
		handler,
		cfgSvc.Get().Server.EnableHTTP2,
	)

	return &ServerService{Server: server}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Server.Shutdown(ctx)
	}
	return nil
}
