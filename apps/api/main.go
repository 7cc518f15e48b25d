package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/attendix/attendix/apps/api/echo"
	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/attendance"
	"github.com/attendix/attendix/core/employee"
	"github.com/attendix/attendix/core/leave"
	"github.com/attendix/attendix/core/task"
	"github.com/attendix/attendix/core/user"
	"github.com/attendix/attendix/core/workspace"
	emailsvc "github.com/attendix/attendix/services/email"
	geosvc "github.com/attendix/attendix/services/geocoding"
	logsvc "github.com/attendix/attendix/services/logger"
	"github.com/attendix/attendix/services/realtime"
	"github.com/attendix/attendix/storage/database"
	pgrepos "github.com/attendix/attendix/storage/database/postgres"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(logger, conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	hub := realtime.NewHub(logger, conf)

	usrSvc := user.NewService(pgrepos.NewUserRepository(db))
	empSvc := employee.NewService(pgrepos.NewEmployeeRepository(db), conf)
	attSvc := attendance.NewService(pgrepos.NewAttendanceRepository(db), geosvc.New(conf), logger, conf)
	lvSvc := leave.NewService(pgrepos.NewLeaveRepository(db), mailSvc, logger, conf)
	taskSvc := task.NewService(pgrepos.NewTaskRepository(db), hub, logger, conf)
	wsSvc := workspace.NewService(pgrepos.NewWorkspaceRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : %v", conf))
	defer logger.Info("Application stopped")

	translator := core.NewTranslator()
	validate := core.NewValidate(translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			Hub:           hub,
			UserSvc:       usrSvc,
			EmployeeSvc:   empSvc,
			AttendanceSvc: attSvc,
			LeaveSvc:      lvSvc,
			TaskSvc:       taskSvc,
			WorkspaceSvc:  wsSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

const dbSetupTimeout = 30 * time.Second

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dbSetupTimeout)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
