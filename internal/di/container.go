package di

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/pubsub"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/canvas-market/api/internal/handlers"
	"github.com/canvas-market/api/internal/payments"
	"github.com/canvas-market/api/internal/platform/config"
	pfirestore "github.com/canvas-market/api/internal/platform/firestore"
	"github.com/canvas-market/api/internal/platform/jobs"
	"github.com/canvas-market/api/internal/platform/observability"
	"github.com/canvas-market/api/internal/repositories"
	fsrepo "github.com/canvas-market/api/internal/repositories/firestore"
	"github.com/canvas-market/api/internal/services"
)

// Services bundles the service-layer contracts the handlers rely upon.
type Services struct {
	Cart   services.CartService
	Orders services.OrderService
	System services.SystemService
}

// Container wires configuration, repositories, services, and the HTTP router
// for runtime use.
type Container struct {
	Config       config.Config
	Logger       *zap.Logger
	Repositories repositories.Registry
	Services     Services
	Router       chi.Router

	pubsubClient *pubsub.Client
	pubsubTopic  *pubsub.Topic
}

type containerConfig struct {
	logger    *zap.Logger
	registry  repositories.Registry
	provider  payments.Provider
	publisher services.OrderEventPublisher
}

// ContainerOption overrides a dependency, primarily for tests.
type ContainerOption func(*containerConfig)

// WithLogger supplies a pre-built logger.
func WithLogger(logger *zap.Logger) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.logger = logger
	}
}

// WithRegistry supplies a pre-built repository registry instead of the
// Firestore one.
func WithRegistry(reg repositories.Registry) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.registry = reg
	}
}

// WithPaymentProvider supplies a pre-built payment provider.
func WithPaymentProvider(provider payments.Provider) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.provider = provider
	}
}

// WithOrderEventPublisher supplies a pre-built event publisher instead of the
// Pub/Sub one.
func WithOrderEventPublisher(publisher services.OrderEventPublisher) ContainerOption {
	return func(cfg *containerConfig) {
		cfg.publisher = publisher
	}
}

// NewContainer assembles the runtime dependencies from configuration:
// Firestore repositories, the Pub/Sub order event publisher, the payment
// provider, the services, and the router.
func NewContainer(ctx context.Context, cfg config.Config, opts ...ContainerOption) (*Container, error) {
	var overrides containerConfig
	for _, opt := range opts {
		opt(&overrides)
	}

	logger := overrides.logger
	if logger == nil {
		built, err := observability.NewLogger(cfg.Observability.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = built
	}

	container := &Container{Config: cfg, Logger: logger}

	registry := overrides.registry
	if registry == nil {
		provider, err := pfirestore.NewProvider(ctx, cfg.Firestore)
		if err != nil {
			return nil, fmt.Errorf("build firestore provider: %w", err)
		}
		built, err := fsrepo.NewRegistry(provider)
		if err != nil {
			_ = provider.Close()
			return nil, fmt.Errorf("build repository registry: %w", err)
		}
		registry = built
	}
	container.Repositories = registry

	publisher := overrides.publisher
	if publisher == nil {
		built, err := container.buildPublisher(ctx, cfg.PubSub)
		if err != nil {
			_ = container.Close(ctx)
			return nil, err
		}
		publisher = built
	}

	paymentProvider := overrides.provider
	if paymentProvider == nil {
		built, err := payments.FromConfig(payments.Config{
			StripeAPIKey: cfg.PSP.StripeAPIKey,
			Logger:       observability.EventHook(logger),
		})
		if err != nil {
			_ = container.Close(ctx)
			return nil, fmt.Errorf("build payment provider: %w", err)
		}
		paymentProvider = built
	}

	svc, err := buildServices(cfg, registry, paymentProvider, publisher, logger)
	if err != nil {
		_ = container.Close(ctx)
		return nil, err
	}
	container.Services = svc

	routerOpts := []handlers.Option{
		handlers.WithMiddlewares(
			observability.TraceMiddleware,
			observability.RequestLogger(logger),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithSystemService(svc.System),
		)),
		handlers.WithCartRoutes(handlers.NewCartHandlers(svc.Cart).Routes),
		handlers.WithOrderRoutes(handlers.NewOrderHandlers(svc.Orders).Routes),
	}
	// Without a webhook secret the payment group stays on the 501 fallback.
	if cfg.PSP.StripeWebhookSecret != "" {
		routerOpts = append(routerOpts, handlers.WithPaymentRoutes(
			handlers.NewWebhookHandlers(cfg.PSP.StripeWebhookSecret, observability.EventHook(logger)).Routes,
		))
	}
	container.Router = handlers.NewRouter(routerOpts...)

	return container, nil
}

// buildPublisher connects the Pub/Sub client and wraps the order event topic.
func (c *Container) buildPublisher(ctx context.Context, cfg config.PubSubConfig) (services.OrderEventPublisher, error) {
	if cfg.EmulatorHost != "" {
		// The client library picks the emulator up from the environment.
		if err := os.Setenv("PUBSUB_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, fmt.Errorf("set pubsub emulator host: %w", err)
		}
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("build pubsub client: %w", err)
	}
	c.pubsubClient = client
	c.pubsubTopic = client.Topic(cfg.OrderEventTopic)

	publisher, err := jobs.NewPubSubOrderEventPublisher(c.pubsubTopic)
	if err != nil {
		return nil, fmt.Errorf("build order event publisher: %w", err)
	}
	return publisher, nil
}

func buildServices(cfg config.Config, reg repositories.Registry, provider payments.Provider, publisher services.OrderEventPublisher, logger *zap.Logger) (Services, error) {
	if reg == nil {
		return Services{}, errors.New("repositories registry is required")
	}
	hook := observability.EventHook(logger)

	cartSvc, err := services.NewCartService(services.CartServiceDeps{
		Carts:   reg.Carts(),
		Catalog: reg.Catalog(),
		Logger:  hook,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build cart service: %w", err)
	}

	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:    reg.Orders(),
		Carts:     reg.Carts(),
		Catalog:   reg.Catalog(),
		Artists:   reg.Artists(),
		Payments:  provider,
		Publisher: publisher,
		Logger:    hook,
		Currency:  cfg.Orders.Currency,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build order service: %w", err)
	}

	systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
		Health: reg.Health(),
		Logger: hook,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build system service: %w", err)
	}

	return Services{Cart: cartSvc, Orders: orderSvc, System: systemSvc}, nil
}

// Close releases the Pub/Sub topic and client, then the repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.pubsubTopic != nil {
		c.pubsubTopic.Stop()
	}

	var errs []error
	if c.pubsubClient != nil {
		if err := c.pubsubClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pubsub client: %w", err))
		}
	}
	if c.Repositories != nil {
		if err := c.Repositories.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close repositories: %w", err))
		}
	}
	return errors.Join(errs...)
}
