package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/config"
	"github.com/xavierca1/retirement-leads/internal/delivery"
	"github.com/xavierca1/retirement-leads/internal/infra/database"
	"github.com/xavierca1/retirement-leads/internal/infra/integration/ga4"
	"github.com/xavierca1/retirement-leads/internal/infra/integration/ghl"
	"github.com/xavierca1/retirement-leads/internal/infra/integration/metacapi"
	"github.com/xavierca1/retirement-leads/internal/infra/mail"
	"github.com/xavierca1/retirement-leads/internal/infra/queue"
)

// appEnv holds the long-lived dependencies shared by the subcommands.
type appEnv struct {
	Pool        *pgxpool.Pool
	RabbitMQ    *queue.RabbitMQ
	Producer    *queue.Producer
	Contacts    *database.ContactRepository
	Leads       *database.LeadRepository
	Attribution *database.AttributionRepository
	Fanout      *delivery.Fanout
}

func initEnv(ctx context.Context) (*appEnv, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("store.database_url is required")
	}

	pool, err := database.NewDBConnection(ctx, cfg.Store.DatabaseURL, cfg.Store.MaxConns, cfg.Store.MinConns)
	if err != nil {
		return nil, err
	}

	env := &appEnv{
		Pool:        pool,
		Contacts:    database.NewContactRepository(pool),
		Leads:       database.NewLeadRepository(pool),
		Attribution: database.NewAttributionRepository(pool),
	}

	if cfg.RabbitMQ.URL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			pool.Close()
			return nil, err
		}
		env.RabbitMQ = rmq
		env.Producer = queue.NewProducer(rmq.Ch)
	} else if cfg.Delivery.Mode == config.DeliveryQueue {
		pool.Close()
		return nil, eris.New("delivery.mode=queue requires rabbitmq.url")
	}

	env.Fanout = buildFanout(cfg, env.Producer)
	zap.L().Info("delivery sinks configured", zap.Strings("sinks", env.Fanout.Names()))

	return env, nil
}

// buildFanout registers every configured sink. Unconfigured sinks come back
// nil from their constructors and are skipped.
func buildFanout(c *config.Config, producer *queue.Producer) *delivery.Fanout {
	return delivery.NewFanout(c.Delivery.Timeout(),
		ghl.NewClient(c.GHL.WebhookURL),
		ga4.NewClient(c.GA4.BaseURL, c.GA4.MeasurementID, c.GA4.APISecret),
		metacapi.NewClient(c.Meta.BaseURL, c.Meta.APIVersion, c.Meta.PixelID, c.Meta.AccessToken, c.Meta.TestCode),
		mail.NewSalesAlertSender(c.Mail.Host, c.Mail.Port, c.Mail.User, c.Mail.Password, c.Mail.From, c.Mail.To),
		queue.NewLeadEventSink(producer),
	)
}

func (e *appEnv) Close() {
	if e.RabbitMQ != nil {
		if err := e.RabbitMQ.Close(); err != nil {
			zap.L().Warn("rabbitmq close", zap.Error(err))
		}
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
}
