package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/enactus/membership/apps/api/echo"
	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/agenda"
	"github.com/enactus/membership/core/attendance"
	"github.com/enactus/membership/core/dashboard"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/core/notify"
	"github.com/enactus/membership/core/post"
	emailsvc "github.com/enactus/membership/services/email"
	logsvc "github.com/enactus/membership/services/logger"
	metricsvc "github.com/enactus/membership/services/metrics"
	"github.com/enactus/membership/services/ratelimit"
	"github.com/enactus/membership/storage/database"
	"github.com/enactus/membership/storage/database/mongodb"
	docrepos "github.com/enactus/membership/storage/repos"
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
	client, err := database.Open(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = client.Disconnect(context.Background()); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()
	store := mongodb.NewStore(client, conf.Database.Name)

	// set up email gateway
	mailSvc, err := emailsvc.New(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up email gateway: %v", err), err)
	}

	// set up services
	metrics := metricsvc.New()
	memberSvc := member.NewService(docrepos.NewUserRepository(store))
	notifier := notify.NewController(mailSvc, conf, logger, metrics)
	attendanceSvc := attendance.NewService(docrepos.NewAbsenceRepository(store), memberSvc, metrics)
	agendaSvc := agenda.NewService(docrepos.NewEventRepository(store), memberSvc, notifier, logger)
	postSvc := post.NewService(docrepos.NewPostRepository(store))
	dashboardSvc := dashboard.NewService(memberSvc, attendanceSvc, agendaSvc, postSvc)

	limiter := newLimiter(conf, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	member.InitValidators(validate, translator)

	if err = core.ParseEmailTemplates(); err != nil {
		logger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("emailProvider").Set(conf.Email.Provider)

	if conf.Server.DebugHost != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Validate:      validate,
			Translator:    translator,
			MemberSvc:     memberSvc,
			AttendanceSvc: attendanceSvc,
			Notifier:      notifier,
			AgendaSvc:     agendaSvc,
			PostSvc:       postSvc,
			DashboardSvc:  dashboardSvc,
			Metrics:       metrics,
			Limiter:       limiter,
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

// newLimiter uses redis when configured, so that every instance shares the budget.
func newLimiter(conf *core.Config, logger core.Logger) ratelimit.Limiter {
	if conf.Redis.Addr == "" {
		return ratelimit.NewMemoryLimiter(conf.RateLimit.Requests, conf.RateLimit.Window)
	}
	limiter := ratelimit.NewRedisLimiter(
		ratelimit.NewRedisClient(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB),
		conf.RateLimit.Requests,
		conf.RateLimit.Window,
	)
	ctx, cancel := context.WithTimeout(context.Background(), conf.Database.Timeout)
	defer cancel()
	if err := limiter.Ping(ctx); err != nil {
		logger.Warn(fmt.Sprintf("redis unreachable, rate limiting fails open: %v", err), err)
	}
	return limiter
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
