package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/go-kit/kit/log"
	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/gorilla/mux"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/taskboard/backend/authsvc/inmem"
	"github.com/taskboard/backend/authsvc/pkg/authendpoint"
	"github.com/taskboard/backend/authsvc/pkg/authservice"
	"github.com/taskboard/backend/authsvc/pkg/authtransport"
	"github.com/taskboard/backend/tasksvc"
	taskgorm "github.com/taskboard/backend/tasksvc/db/gorm"
	"github.com/taskboard/backend/tasksvc/pkg/taskendpoint"
	"github.com/taskboard/backend/tasksvc/pkg/taskservice"
	"github.com/taskboard/backend/tasksvc/pkg/tasktransport"
	"github.com/taskboard/backend/usersvc"
	usergorm "github.com/taskboard/backend/usersvc/db/gorm"
	"github.com/taskboard/backend/usersvc/pkg/userendpoint"
	"github.com/taskboard/backend/usersvc/pkg/userservice"
	"github.com/taskboard/backend/usersvc/pkg/usertransport"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

func main() {
	fs := flag.NewFlagSet("taskboard", flag.ExitOnError)
	var (
		httpAddr = fs.String(
			"http.addr",
			getEnv("HTTP_ADDR", ":8000"),
			"HTTP listen address",
		)
		databaseURL = fs.String(
			"database.url",
			getEnv("DATABASE_URL", ""),
			"Database URL",
		)
	)

	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	var db *libgorm.DB
	var err error
	{
		if *databaseURL != "" {
			db, err = libgorm.Open(postgres.Open(*databaseURL), &libgorm.Config{})
		} else {
			db, err = libgorm.Open(sqlite.Open("gorm.db"), &libgorm.Config{})
		}
		if err != nil {
			logger.Log("err", err)
			os.Exit(1)
		}
	}

	db.AutoMigrate(&usersvc.User{}, &tasksvc.Task{})

	var (
		userRepository = usergorm.NewUserRepository(db)
		taskRepository = taskgorm.NewTaskRepository(db)
		inmemClient    = inmem.NewClient()
	)

	var authService authservice.Service
	{
		authService = authservice.New(
			userRepository,
			authservice.NewTokenizer(),
			authservice.NewBcryptHasher(),
			inmemClient,
			logger,
		)
	}
	authEndpoints := authendpoint.New(authService, logger)

	var userService userservice.Service
	{
		userService = userservice.New(userRepository, logger)
		userService = userservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "taskboard",
				Subsystem: "userservice",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, []string{"method"}),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "taskboard",
				Subsystem: "userservice",
				Name:      "request_latency_microseconds",
				Help:      "Total duration of requests in microseconds.",
			}, []string{"method"}),
		)(userService)
	}
	userEndpoints := userendpoint.New(userService, logger)

	var taskService taskservice.Service
	{
		taskService = taskservice.New(taskRepository, logger)
		taskService = taskservice.InstrumentingMiddleware(
			kitprometheus.NewCounterFrom(stdprometheus.CounterOpts{
				Namespace: "taskboard",
				Subsystem: "taskservice",
				Name:      "request_count",
				Help:      "Number of requests received.",
			}, []string{"method"}),
			kitprometheus.NewSummaryFrom(stdprometheus.SummaryOpts{
				Namespace: "taskboard",
				Subsystem: "taskservice",
				Name:      "request_latency_microseconds",
				Help:      "Total duration of requests in microseconds.",
			}, []string{"method"}),
		)(taskService)
		taskService = taskservice.ValidatingMiddleware(
			authEndpoints.ValidateEndpoint,
			userEndpoints.IsExistsEndpoint,
		)(taskService)
	}
	taskEndpoints := taskendpoint.New(taskService, logger)

	r := mux.NewRouter()
	{
		authHTTPHandler := authtransport.NewHTTPHandler(authEndpoints, inmemClient, logger)
		r.PathPrefix("/auth/v1").Handler(http.StripPrefix("/auth/v1", authHTTPHandler))
	}
	{
		userHTTPHandler := usertransport.NewHTTPHandler(userEndpoints, logger)
		r.PathPrefix("/user/v1").Handler(http.StripPrefix("/user/v1", userHTTPHandler))
	}
	{
		taskHTTPHandler := tasktransport.NewHTTPHandler(taskEndpoints, logger)
		r.PathPrefix("/task/v1").Handler(http.StripPrefix("/task/v1", taskHTTPHandler))
	}
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", *httpAddr)
		if err != nil {
			logger.Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		g.Add(func() error {
			logger.Log("transport", "HTTP", "addr", *httpAddr)
			return http.Serve(httpListener, r)
		}, func(error) {
			httpListener.Close()
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}
