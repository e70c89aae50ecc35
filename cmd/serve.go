package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/raster2vector/internal/convert"
	"github.com/kiesman99/raster2vector/internal/server"
	"github.com/kiesman99/raster2vector/internal/vectorize"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the vectorization API",
	Long: `Start an HTTP server that converts uploaded raster images to SVG.

POST the image bytes to /api/v1/vectorize; scale and stroke_width may be
given as query parameters and default to the server's configuration.

Examples:
  # Start server on default port 8080
  raster2vector serve

  # Start server on custom port
  raster2vector serve --port 3000

  # Convert an image with curl
  curl --data-binary @sprite.png "http://localhost:8080/api/v1/vectorize?scale=4" -o sprite.svg`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	defaults := server.DefaultConfig()

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "request timeout")
	serveCmd.Flags().Int("max-pixels", defaults.MaxPixels, "largest accepted image, in pixels (0 disables the limit)")
	serveCmd.Flags().Int64("max-body", defaults.MaxBodyBytes, "largest accepted request body, in bytes (0 disables the limit)")

	// Conversion defaults
	serveCmd.Flags().Float64("scale", convert.DefaultScale, "default output units per pixel")
	serveCmd.Flags().Float64("strokeWidth", convert.DefaultStrokeWidth, "default stroke width, in pixels")
	serveCmd.Flags().Int("workers", defaults.Workers, "goroutines building polygons per request")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.max-pixels", serveCmd.Flags().Lookup("max-pixels"))
	viper.BindPFlag("server.max-body", serveCmd.Flags().Lookup("max-body"))
	viper.BindPFlag("server.scale", serveCmd.Flags().Lookup("scale"))
	viper.BindPFlag("server.strokeWidth", serveCmd.Flags().Lookup("strokeWidth"))
	viper.BindPFlag("server.workers", serveCmd.Flags().Lookup("workers"))
}

// serverConfig reads the per-request defaults and limits from v
func serverConfig(v *viper.Viper) (server.Config, error) {
	cfg := server.Config{
		Scale:        v.GetFloat64("server.scale"),
		StrokeWidth:  v.GetFloat64("server.strokeWidth"),
		Workers:      v.GetInt("server.workers"),
		MaxPixels:    v.GetInt("server.max-pixels"),
		MaxBodyBytes: v.GetInt64("server.max-body"),
	}

	if !vectorize.ValidScale(cfg.Scale) {
		return cfg, &convert.ConfigError{Field: "scale", Message: fmt.Sprintf("must be a finite number greater than 0, got %g", cfg.Scale)}
	}
	if !vectorize.ValidStrokeWidth(cfg.StrokeWidth) {
		return cfg, &convert.ConfigError{Field: "strokeWidth", Message: fmt.Sprintf("must be a finite number not below 0, got %g", cfg.StrokeWidth)}
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	cfg, err := serverConfig(viper.GetViper())
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", bind, port)

	// Create server implementation
	apiServer := server.NewServer(Version, cfg)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting raster2vector server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s/api/v1/health\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Vectorize endpoint: http://%s/api/v1/vectorize\n", addr)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
