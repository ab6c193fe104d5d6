package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/tilepyramid/retiler/internal/geopackage"
	"github.com/tilepyramid/retiler/internal/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a generated container's tiles and the demo UI over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().String("table", "tiles", "Tile table within the container to serve")
	serveCmd.Flags().String("demo-dir", filepath.Join("docs", "leaflet-demo"), "Directory for demo static files")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for served tiles")

	mustBind := func(key string, name string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag: %v", err))
		}
	}

	mustBind("serve.addr", "addr")
	mustBind("serve.table", "table")
	mustBind("serve.demo_dir", "demo-dir")
	mustBind("serve.cache_control", "cache-control")
}

func runServe(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	addr := viper.GetString("serve.addr")
	table := viper.GetString("serve.table")
	demoDir := viper.GetString("serve.demo_dir")
	cacheControl := viper.GetString("serve.cache_control")
	containerPath := viper.GetString("container")

	container, err := geopackage.Open(containerPath)
	if err != nil {
		return fmt.Errorf("failed to open container: %w", err)
	}
	defer container.Close()

	handler, err := server.NewGeoPackageHandler(context.Background(), container, server.GeoPackageConfig{
		Table:        table,
		CacheControl: cacheControl,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create tile handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/demo/", http.StatusFound)
	})

	fs := http.FileServer(http.Dir(demoDir))
	mux.Handle("/demo/", http.StripPrefix("/demo/", fs))
	mux.Handle("/tiles/", withCORS(handler.Handler()))

	logger.Info("serving container", "addr", addr, "container", containerPath, "table", table, "demo_dir", demoDir)
	fmt.Printf("\n  -> http://%s/demo/\n\n", addr)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return srv.ListenAndServe()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
