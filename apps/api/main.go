package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/classroom"
	"github.com/darasahq/darasa/core/syncer"
	"github.com/darasahq/darasa/core/token"
	emailsvc "github.com/darasahq/darasa/services/email"
	logsvc "github.com/darasahq/darasa/services/logger"
	"github.com/darasahq/darasa/storage/database"
	sqlxrepos "github.com/darasahq/darasa/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up validation
	enLocale := en.New()
	translator, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)

	conf, err := core.LoadConfig()
	if err != nil {
		std.Fatal(err)
	}
	errAndDie(std, conf.Validate(validate))

	var logger core.Logger
	if conf.Debug {
		logger = core.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		std.Fatal(err)
	}
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	errAndDie(std, database.Migrate(db.DB))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	tokenRepo := sqlxrepos.NewTokenRepository(db)
	mirrorRepo := sqlxrepos.NewMirrorRepository(db)
	tokenMgr := token.NewManager(tokenRepo, conf, logger)
	syncSvc := syncer.NewService(
		func(userID string) classroom.Client {
			return classroom.NewHTTPClient(conf, tokenMgr, userID)
		},
		mirrorRepo,
		logger,
	)

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Addr:       conf.ServerAddress(),
		Conf:       conf,
		Logger:     logger,
		SyncSvc:    syncSvc,
		TokenRepo:  tokenRepo,
		EmailSvc:   mailSvc,
		Translator: translator,
	})

	serverErrors := make(chan error, 1)
	go func() { serverErrors <- app.Start() }()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		errAndDie(std, err)
	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("caught %v signal, shutting down", sig))
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		errAndDie(std, app.Stop(ctx))
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
