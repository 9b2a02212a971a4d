package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/statree-dev/statree/pkg/inspect"
	"github.com/statree-dev/statree/pkg/metrics"
	"github.com/statree-dev/statree/pkg/statree"
)

// demoCmd runs a sample store, mutates it periodically, and serves the live
// inspector plus Prometheus metrics. Useful for poking at the event stream
// with a websocket client.
func demoCmd() *cobra.Command {
	var addr string
	var interval time.Duration
	var debug bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a sample store with the live inspector",
		Long: `Demo builds a small shop-like store, mutates it on an interval, and
serves the inspector endpoints:

  GET /state    current snapshot as JSON
  GET /events   websocket stream of change events
  GET /metrics  Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []statree.Option{statree.WithName("demo")}
			if debug {
				opts = append(opts, statree.WithDebug())
			}

			store := statree.New(map[string]any{
				"user": statree.Nullable(nil),
				"cart": map[string]any{
					"items": statree.Array([]any{}, statree.DistinctShallow()),
					"total": 0,
				},
			}, opts...).(*statree.CompositeNode)

			observer := metrics.Observe(store)
			defer observer.Close()

			inspector := inspect.New(store, inspect.WithTreeName("demo"))

			mux := http.NewServeMux()
			mux.Handle("/", inspector.Handler())
			mux.Handle("/metrics", promhttp.Handler())

			errc := make(chan error, 1)
			go func() {
				errc <- http.ListenAndServe(addr, mux)
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt)

			fmt.Printf("statree demo listening on %s (interval %s)\n", addr, interval)

			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mutate(store)
				case err := <-errc:
					return err
				case <-stop:
					fmt.Println("\nshutting down")
					return nil
				}
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":6580", "listen address")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "mutation interval")
	cmd.Flags().BoolVar(&debug, "debug", false, "log every write")
	return cmd
}

// mutate performs one random write against the demo store.
func mutate(store *statree.CompositeNode) {
	user := store.Field("user").(*statree.NullableNode)
	cart := store.Field("cart").(*statree.CompositeNode)
	items := cart.Field("items").(*statree.ArrayNode)

	switch rand.Intn(4) {
	case 0:
		if user.IsNull() {
			user.Set(map[string]any{"name": "visitor", "visits": 1})
		} else {
			user.Update(func(u *statree.NullableNode) error {
				visits, _ := u.Field("visits").Get().(int)
				u.Field("visits").Set(visits + 1)
				return nil
			})
		}
	case 1:
		user.Set(nil)
	case 2:
		items.Push(map[string]any{
			"sku":   fmt.Sprintf("sku-%d", rand.Intn(100)),
			"price": rand.Intn(50) + 1,
		})
	default:
		cart.Update(func(c *statree.CompositeNode) error {
			total := 0
			for _, v := range items.Map(func(v any) any { return v }) {
				total += v.(map[string]any)["price"].(int)
			}
			c.Field("total").Set(total)
			return nil
		})
	}
}
