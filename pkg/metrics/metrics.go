// Package metrics instruments a state tree with Prometheus: every emission
// on the tree's change feed is counted per path, plus a tree-wide total.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/statree-dev/statree/pkg/statree"
)

// Config configures the tree observer.
type Config struct {
	// Namespace is the metrics namespace (default: "statree").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the tree observer.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "statree",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Observer counts a tree's emissions until closed.
type Observer struct {
	changesTotal  prometheus.Counter
	changesByPath *prometheus.CounterVec
	off           statree.Unsubscribe
}

// Observe registers the metrics and taps the change feed of root's tree.
// Close the observer to detach the tap; the metrics stay registered.
func Observe(root statree.Node, opts ...Option) *Observer {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	o := &Observer{
		changesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "changes_total",
			Help:        "Total number of node emissions in the state tree",
			ConstLabels: config.ConstLabels,
		}),
		changesByPath: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "path_changes_total",
			Help:        "Node emissions by dotted path",
			ConstLabels: config.ConstLabels,
		}, []string{"path"}),
	}

	o.off = statree.OnChange(root, func(ev statree.Event) {
		o.changesTotal.Inc()
		o.changesByPath.WithLabelValues(pathLabel(ev.Path)).Inc()
	})
	return o
}

// Close removes the change-feed tap.
func (o *Observer) Close() {
	if o.off != nil {
		o.off()
		o.off = nil
	}
}

// pathLabel maps the root's empty path to "$" so the label is never empty.
func pathLabel(path string) string {
	if path == "" {
		return "$"
	}
	return path
}
