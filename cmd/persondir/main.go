// Command persondir runs the person directory: the HTTP suggest API, the
// periodic warehouse reconciliation job, and schema migrations.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/uwcoe/persondir/migrations"
	"github.com/uwcoe/persondir/modules/person/domain/aggregates/person"
	"github.com/uwcoe/persondir/modules/person/infrastructure/edw"
	"github.com/uwcoe/persondir/modules/person/infrastructure/persistence"
	"github.com/uwcoe/persondir/modules/person/presentation/controllers"
	"github.com/uwcoe/persondir/modules/person/services"
	"github.com/uwcoe/persondir/pkg/configuration"
	"github.com/uwcoe/persondir/pkg/eventbus"
	"github.com/uwcoe/persondir/pkg/metrics"
	"github.com/uwcoe/persondir/pkg/middleware"
	"github.com/uwcoe/persondir/pkg/server"
)

func main() {
	root := &cobra.Command{
		Use:           "persondir",
		Short:         "Local person directory backed by the enterprise data warehouse",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), updatePersonsCmd(), importCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		configuration.Use().Unload()
		os.Exit(1)
	}
	configuration.Use().Unload()
}

// deps is the assembled object graph shared by the commands.
type deps struct {
	conf     *configuration.Configuration
	logger   *logrus.Logger
	pool     *pgxpool.Pool
	importer *services.ImportService
	persons  *services.PersonService
}

func build(ctx context.Context) (*deps, error) {
	conf := configuration.Use()
	logger := conf.Logger()

	poolCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.New(poolCtx, conf.Database.Opts)
	if err != nil {
		return nil, err
	}

	bus := eventbus.NewEventPublisher(logger)
	importMetrics := metrics.NewImportMetrics(prometheus.DefaultRegisterer)

	repo := persistence.NewPersonRepository(pool, persistence.WithHooks(persistence.Hooks{
		PostSave: []persistence.NotifyFunc{
			publishSaveEvents(bus),
			func(_ context.Context, result persistence.SaveResult) {
				importMetrics.Akas.Add(float64(len(result.Akas)))
			},
		},
	}))

	bus.Subscribe(func(e person.CreatedEvent) {
		logger.WithField("uwnetid", e.Person.NetID()).Debug("person created")
	})
	bus.Subscribe(func(e person.UpdatedEvent) {
		logger.WithField("uwnetid", e.Person.NetID()).Debug("person updated")
	})
	bus.Subscribe(func(e person.NameChangedEvent) {
		logger.WithFields(logrus.Fields{
			"person_id": e.PersonID,
			"old":       e.OldFirstname + " " + e.OldLastname,
			"new":       e.NewFirstname + " " + e.NewLastname,
			"weight":    e.NameWeight,
		}).Info("person name changed")
	})

	conn := edw.NewConnection(conf.Edw.Driver, conf.Edw.DSN, logger)
	datasource := edw.NewPersonsDataSource(conn, conf.Edw.OrgMatch, conf.Edw.ValidityYears)

	var importOpts []services.ImportOption
	if conf.ImportMatchByNetID {
		importOpts = append(importOpts, services.WithMatchField(person.MatchByNetID))
	}

	return &deps{
		conf:     conf,
		logger:   logger,
		pool:     pool,
		importer: services.NewImportService(datasource, repo, logger, importMetrics, importOpts...),
		persons:  services.NewPersonService(repo, datasource, conf.SuggestLimit, conf.PrefetchLimit),
	}, nil
}

func publishSaveEvents(bus eventbus.EventBus) persistence.NotifyFunc {
	return func(_ context.Context, result persistence.SaveResult) {
		if result.Created {
			bus.Publish(person.CreatedEvent{Person: result.Person})
		} else {
			bus.Publish(person.UpdatedEvent{Person: result.Person})
		}
		for _, aka := range result.Akas {
			bus.Publish(person.NameChangedEvent{
				PersonID:     aka.PersonID,
				OldFirstname: aka.Firstname,
				OldLastname:  aka.Lastname,
				NewFirstname: result.Person.Firstname(),
				NewLastname:  result.Person.Lastname(),
				NameWeight:   result.Person.NameWeight(),
			})
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the suggest/search HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			ctrls := []server.Controller{
				controllers.NewSuggestController(d.persons, d.importer),
			}
			if d.conf.Prometheus.Enabled {
				ctrls = append(ctrls, metrics.NewPrometheusController(d.conf.Prometheus.Path))
			}

			srv := server.NewHTTPServer(
				ctrls,
				[]mux.MiddlewareFunc{
					middleware.RequestID(),
					middleware.LogRequests(d.logger),
				},
				http.NotFoundHandler(),
				http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				}),
			)
			d.logger.WithField("address", d.conf.SocketAddress).Info("listening")
			return srv.Start(d.conf.SocketAddress)
		},
	}
}

func updatePersonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update-persons",
		Short: "Reconcile the local cache against the warehouse roster",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()
			return d.importer.Run(cmd.Context())
		},
	}
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <person-id>",
		Short: "Import a single person from the warehouse",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := build(cmd.Context())
			if err != nil {
				return err
			}
			defer d.pool.Close()

			netID, err := d.importer.ImportByPersonID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if netID == "" {
				return fmt.Errorf("person %q not found in warehouse", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), netID)
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf := configuration.Use()

			db, err := sql.Open("pgx", conf.Database.Opts)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := goose.SetDialect("postgres"); err != nil {
				return err
			}
			// Migrations on disk override the embedded copies, so ops can
			// run hotfix migrations without rebuilding.
			dir := conf.MigrationsDir
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				goose.SetBaseFS(migrations.FS)
				dir = "."
			}
			return goose.Up(db, dir)
		},
	}
}
