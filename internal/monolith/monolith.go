// Package monolith provides the application container and module interface.
package monolith

import (
	"context"

	"github.com/fd1az/rangebet/internal/config"
	"github.com/fd1az/rangebet/internal/di"
	"github.com/fd1az/rangebet/internal/health"
	"github.com/fd1az/rangebet/internal/logger"
)

// Monolith is the main application container providing access to shared infrastructure.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Health() *health.Server
	Services() di.ServiceRegistry
	// OnClose registers fn to run when the application shuts down, in reverse order.
	OnClose(fn func(context.Context) error)
}

// Module represents a bounded context module that can register services and start up.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// app implements the Monolith interface.
type app struct {
	config    *config.Config
	logger    logger.LoggerInterface
	health    *health.Server
	container di.Container
	closers   []func(context.Context) error
}

// New creates a new Monolith instance.
func New(cfg *config.Config, log logger.LoggerInterface, version string) *app {
	container := di.NewContainer()

	// Register global services
	container.Register("config", cfg)
	container.Register("logger", log)

	return &app{
		config:    cfg,
		logger:    log,
		health:    health.NewServer(cfg.Health.Port, version, log),
		container: container,
	}
}

func (a *app) Config() *config.Config {
	return a.config
}

func (a *app) Logger() logger.LoggerInterface {
	return a.logger
}

func (a *app) Health() *health.Server {
	return a.health
}

func (a *app) Services() di.ServiceRegistry {
	return a.container
}

func (a *app) OnClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Container returns the DI container for module registration.
func (a *app) Container() di.Container {
	return a.container
}

// RegisterModules registers all provided modules.
func (a *app) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return err
		}
	}
	return nil
}

// StartModules starts all provided modules.
func (a *app) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// Close runs the registered closers newest first and stops the health server.
// The first error is returned; later closers still run.
func (a *app) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn(ctx, "shutdown step failed", "error", err)
			if first == nil {
				first = err
			}
		}
	}
	if err := a.health.Stop(ctx); err != nil && first == nil {
		first = err
	}
	return first
}
