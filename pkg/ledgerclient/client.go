package ledgerclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"
)

var (
	requestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nunc_client_request_latency",
			Help:    "Histogram of nunc API request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path", "status_code"},
	)
)

// Client talks to the nunc HTTP API.
type Client struct {
	client *resty.Client
}

func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig
	}

	transport := config.TransportSettings
	if transport == nil {
		transport = DefaultConfig.TransportSettings
	}

	client := resty.NewWithTransportSettings(transport).
		SetBaseURL(strings.TrimSuffix(config.BaseURL, "/"))

	for _, m := range config.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}
	for _, m := range config.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	return &Client{
		client: client,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().
		WithContext(ctx).
		SetError(&errorBody{})
}

// MetricMiddleware records request latency by method, route and status.
func MetricMiddleware(_ *resty.Client, response *resty.Response) error {
	reqURL, err := url.Parse(response.Request.URL)
	if err != nil {
		return err
	}

	requestLatency.WithLabelValues(
		response.Request.Method,
		route(reqURL.Path),
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}

// route collapses post ids so the path label stays bounded.
func route(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 4 && parts[0] == "api" && parts[1] == "posts" && parts[3] == "boost" {
		return "/api/posts/{id}/boost"
	}
	return path
}
