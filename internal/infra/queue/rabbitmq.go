package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rotisserie/eris"
)

const (
	ExchangeName  = "ex.leads"
	DLXName       = "ex.leads.dlx"
	DeliveryQueue = "q.lead-deliveries"
	DeliveryDLQ   = "q.lead-deliveries.dlq"

	// RoutingKeyDeliver carries delivery jobs for the worker.
	RoutingKeyDeliver = "k.lead.deliver"
	// RoutingKeyVerified carries lead snapshots for downstream consumers.
	RoutingKeyVerified = "k.lead.verified"
)

// Topology is the part of *amqp.Channel needed to declare the broker layout.
type Topology interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, eris.Wrap(err, "queue: dial rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, eris.Wrap(err, "queue: open channel")
	}

	if err := SetupTopology(ch); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// SetupTopology declares the lead exchange, the delivery queue and its
// dead-letter queue. Rejected jobs land in the DLQ for inspection.
func SetupTopology(ch Topology) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return eris.Wrap(err, "queue: declare dlx")
	}
	if _, err := ch.QueueDeclare(DeliveryDLQ, true, false, false, false, nil); err != nil {
		return eris.Wrap(err, "queue: declare dlq")
	}
	if err := ch.QueueBind(DeliveryDLQ, RoutingKeyDeliver, DLXName, false, nil); err != nil {
		return eris.Wrap(err, "queue: bind dlq")
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return eris.Wrap(err, "queue: declare exchange")
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingKeyDeliver,
	}
	if _, err := ch.QueueDeclare(DeliveryQueue, true, false, false, false, args); err != nil {
		return eris.Wrap(err, "queue: declare delivery queue")
	}
	if err := ch.QueueBind(DeliveryQueue, RoutingKeyDeliver, ExchangeName, false, nil); err != nil {
		return eris.Wrap(err, "queue: bind delivery queue")
	}
	return nil
}

// Healthy reports whether the connection and channel are still open.
func (r *RabbitMQ) Healthy() bool {
	return r != nil && r.Conn != nil && !r.Conn.IsClosed() && r.Ch != nil && !r.Ch.IsClosed()
}

func (r *RabbitMQ) Close() error {
	if r == nil || r.Conn == nil {
		return nil
	}
	return r.Conn.Close()
}
