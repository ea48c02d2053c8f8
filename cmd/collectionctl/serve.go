package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/resource-collection/pkg/client"
	"github.com/Sternrassler/resource-collection/pkg/collection"
	"github.com/Sternrassler/resource-collection/pkg/metrics"
	"github.com/Sternrassler/resource-collection/pkg/resource"
)

func newServeCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve collections over HTTP",
		Long: `Serve realized collection pages as JSON.

Endpoints:
  /health                 liveness
  /metrics                Prometheus metrics
  /collections/<path>     one page; query: page, per_page, include, key, any other param`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			api, closeAPI, err := newAPIClient(ctx)
			if err != nil {
				return err
			}
			defer closeAPI()

			srv := &http.Server{
				Addr:              addr,
				Handler:           newServeMux(api),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", addr).Msg("Starting collection server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			log.Info().Msg("Shutting down collection server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func newServeMux(api resource.Transport) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/collections/", collectionsHandler(api))
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// pageResponse is the JSON shape of /collections/<path>.
type pageResponse struct {
	Path      string           `json:"path"`
	Items     []map[string]any `json:"items"`
	Count     int              `json:"count"`
	Page      int              `json:"page"`
	FirstPage bool             `json:"first_page"`
	LastPage  bool             `json:"last_page"`
}

var reservedQuery = map[string]bool{"page": true, "per_page": true, "include": true, "key": true}

func collectionsHandler(api resource.Transport) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		collectionPath := strings.Trim(strings.TrimPrefix(r.URL.Path, "/collections/"), "/")
		if collectionPath == "" {
			writeError(w, http.StatusBadRequest, "collection path is required")
			return
		}

		q := r.URL.Query()
		opts := collection.Options{
			CollectionPath: []string{collectionPath},
			Params:         make(map[string]any),
		}
		var err error
		if opts.Page, err = intQuery(q.Get("page")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		if opts.PerPage, err = intQuery(q.Get("per_page")); err != nil {
			writeError(w, http.StatusBadRequest, "invalid per_page")
			return
		}
		if inc := q.Get("include"); inc != "" {
			opts.Include = strings.Split(inc, ",")
		}
		for k := range q {
			if !reservedQuery[k] {
				opts.Params[k] = q.Get(k)
			}
		}

		coll := collection.New(api, kindFor(collectionPath, q.Get("key")), opts)
		items, err := coll.FetchStrict(r.Context())
		if err != nil {
			status := http.StatusBadGateway
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorClass == client.ErrorClassClient {
				status = apiErr.StatusCode
			}
			log.Warn().Err(err).Str("path", collectionPath).Msg("Collection fetch failed")
			writeError(w, status, err.Error())
			return
		}

		resp := pageResponse{
			Path:      coll.Path(),
			Items:     make([]map[string]any, len(items)),
			Count:     coll.Count(r.Context()),
			Page:      coll.CurrentPage(),
			FirstPage: coll.FirstPage(),
			LastPage:  coll.LastPage(),
		}
		for i, item := range items {
			resp.Items[i] = item.Attributes()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Error().Err(err).Msg("Failed to write response")
		}
	}
}

func intQuery(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid number %q", v)
	}
	return n, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
