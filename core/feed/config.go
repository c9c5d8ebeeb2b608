package feed

// Config holds configuration for the realtime entity feed.
type Config struct {
	// Transport selects the source (postgres, nats, amqp, websocket, memory).
	Transport string `mapstructure:"transport" default:"memory"`
	// URL is the transport endpoint or DSN.
	URL string `mapstructure:"url" default:""`
	// Channel is the Postgres LISTEN channel.
	Channel string `mapstructure:"channel" default:"providers_changes"`
	// Subject is the NATS subject.
	Subject string `mapstructure:"subject" default:"providers.changes"`
	// Queue is the AMQP queue.
	Queue string `mapstructure:"queue" default:"providers.changes"`
	// Table is the entity table changes are filtered on.
	Table string `mapstructure:"table" default:"providers"`
	// RequireActive hides providers not flagged active.
	RequireActive bool `mapstructure:"require_active" default:"true"`
	// BufferSize is the capacity of the delivery channels.
	BufferSize int `mapstructure:"buffer_size" default:"64"`
}

const (
	TransportPostgres  = "postgres"
	TransportNATS      = "nats"
	TransportAMQP      = "amqp"
	TransportWebSocket = "websocket"
	TransportMemory    = "memory"
)

// Filter returns the subscription filter described by the configuration.
func (c Config) Filter() Filter {
	return Filter{Table: c.Table, RequireActive: c.RequireActive}
}

// Buffer returns the channel capacity, never less than one.
func (c Config) Buffer() int {
	if c.BufferSize < 1 {
		return 1
	}
	return c.BufferSize
}
