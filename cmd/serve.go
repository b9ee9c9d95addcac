package cmd

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ssai/ssquiz/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the job workers and the generation scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer a.close()

		router := httpapi.NewRouter(httpapi.Deps{
			Views:       a.views,
			Attempts:    a.attempts,
			Jobs:        a.jobs,
			Maintenance: a.maintenance,
			Quizzes:     a.st.QuizRepo(),
			Users:       a.st.UserRepo(),
			Events:      a.st.EventRepo(),
			Log:         a.log,
		}, a.cfg.CORSOrigins)
		srv := httpapi.NewServer(a.cfg.HTTPAddr, router, a.log)

		a.log.Info("ssquiz starting",
			"addr", a.cfg.HTTPAddr,
			"workers", a.cfg.Workers,
			"schedule_interval", a.cfg.ScheduleInterval.String(),
		)

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error { return srv.Run(ctx) })
		g.Go(func() error { return a.pool().Run(ctx) })
		g.Go(func() error { return a.scheduler.Start(ctx) })
		return g.Wait()
	},
}
