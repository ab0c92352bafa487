package observability

import (
	"fmt"
	"io"
	"os"
	"time"
)

const (
	// EndpointStdout is a special endpoint value that writes telemetry to Config.Writer.
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	defaultMetricInterval = 30 * time.Second
)

// Config selects the exporters of a Provider.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is EndpointStdout or an OTLP host:port.
	Endpoint string
	Protocol string
	Insecure bool
	Headers  map[string]string

	// Writer receives stdout exporter output. Defaults to os.Stderr so
	// command output on stdout stays clean.
	Writer io.Writer

	MetricInterval time.Duration
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.Writer == nil {
		c.Writer = os.Stderr
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = defaultMetricInterval
	}
}

// Validate checks an enabled configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.Endpoint != EndpointStdout && c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return fmt.Errorf("protocol '%s': %w", c.Protocol, ErrInvalidProtocol)
	}
	return nil
}
