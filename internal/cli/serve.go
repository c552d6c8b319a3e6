package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/imagecombiner/internal/server"
	"github.com/matzehuels/imagecombiner/pkg/session"
)

// serveCommand creates the serve command for the HTTP service.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Long: `Serve exposes the combiner over HTTP.

Endpoints:
  POST   /v1/combine                      upload images, receive the export
  POST   /v1/workspaces                   create an editing workspace
  GET    /v1/workspaces/{id}              workspace state and layout plan
  POST   /v1/workspaces/{id}/images       add uploaded or pasted images
  DELETE /v1/workspaces/{id}/images/{i}   remove an image
  POST   /v1/workspaces/{id}/move         reorder: {"from": 0, "to": 2}
  PUT    /v1/workspaces/{id}/layout       change orientation, alignment, gap
  GET    /v1/workspaces/{id}/composite    PNG preview
  GET    /v1/workspaces/{id}/export       encoded export`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Server.Addr
			}
			runner, err := c.newRunner(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:         runner,
				Sessions:       session.NewMemoryStore(),
				Logger:         c.Logger,
				Layout:         c.cfg.Layout,
				Export:         c.cfg.ExportSettings(),
				MaxUploadBytes: int64(c.cfg.Server.MaxUploadMB) << 20,
				SessionTTL:     c.cfg.Server.SessionTTL.Duration,
			})
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}
