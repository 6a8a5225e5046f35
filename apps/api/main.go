package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/trezcool/bossmaker/apps/api/echo"
	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/category"
	"github.com/trezcool/bossmaker/core/course"
	"github.com/trezcool/bossmaker/core/upload"
	"github.com/trezcool/bossmaker/core/user"
	appfs "github.com/trezcool/bossmaker/fs"
	emailsvc "github.com/trezcool/bossmaker/services/email"
	logsvc "github.com/trezcool/bossmaker/services/logger"
	"github.com/trezcool/bossmaker/storage/database"
	sqlxrepos "github.com/trezcool/bossmaker/storage/database/sqlx"
	"github.com/trezcool/bossmaker/storage/files"
)

func main() {
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(core.Conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("connecting to database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()
	if err = database.Migrate(db.DB); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up validation & email templates
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)
	core.SetTemplatesFS(appfs.FS)

	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	// set up services
	store := files.NewLocal(core.Conf.UploadsDir)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, store)
	catSvc := category.NewService(sqlxrepos.NewCategoryRepository(db), usrSvc)
	uploadSvc := upload.NewService(sqlxrepos.NewUploadRepository(db), store)
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db), catSvc, uploadSvc, usrSvc)
	usrSvc.BindCascades(courseSvc, catSvc)
	catSvc.BindCascades(courseSvc)

	logger.Info(fmt.Sprintf("%s initializing : version %q", core.Conf.AppName, core.Conf.Build))
	defer logger.Info("Application stopped")

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:     core.Conf.Server.Address(),
			UserSvc:     usrSvc,
			CategorySvc: catSvc,
			CourseSvc:   courseSvc,
			UploadSvc:   uploadSvc,
			FileStore:   store,
			Logger:      logger,
			Validate:    validate,
			Translator:  translator,
			SignalShutdown: func() {
				shutdown <- syscall.SIGTERM
			},
		},
	)
	go app.Start()

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err = app.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
