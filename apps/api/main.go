package main

import (
	"fmt"
	"log"
	"os"

	echoapi "github.com/ebusmomentum88/school-portal-backend/apps/api/echo"
	"github.com/ebusmomentum88/school-portal-backend/core"
	"github.com/ebusmomentum88/school-portal-backend/core/account"
	"github.com/ebusmomentum88/school-portal-backend/core/assessment"
	appfs "github.com/ebusmomentum88/school-portal-backend/fs"
	emailsvc "github.com/ebusmomentum88/school-portal-backend/services/email"
	identsvc "github.com/ebusmomentum88/school-portal-backend/services/identity"
	dummyident "github.com/ebusmomentum88/school-portal-backend/services/identity/dummy"
	logsvc "github.com/ebusmomentum88/school-portal-backend/services/logger"
	"github.com/ebusmomentum88/school-portal-backend/storage/database"
)

func main() {
	// set up logger
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		core.Conf,
	)
	logger.Enable(!core.Conf.Debug)

	core.SetTemplatesFS(appfs.FS)

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	// in DEV the schema is kept current on boot; elsewhere migrations run
	// through the admin CLI
	if core.Conf.Debug {
		if err := database.Migrate(db); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
	}

	acctRepo := database.NewAccountRepository(db)
	asmtRepo := database.NewAssessmentRepository(db)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService(logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	var idp core.IdentityProvider
	if core.Conf.Identity.BaseURL != "" {
		idp = identsvc.NewRestProvider(core.Conf.Identity)
	} else {
		// local development fallback; credentials live in memory
		idp = dummyident.NewProvider()
	}

	acctSvc := account.NewService(
		acctRepo,
		acctRepo,
		idp,
		account.NewPasswordPolicy(core.Conf.Provisioning),
		mailSvc,
		logger,
	)
	asmtSvc := assessment.NewService(asmtRepo, logger)

	// start API server
	logger.Info(fmt.Sprintf("%s API starting : version %q", core.Conf.AppName, core.Conf.Build))
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:          core.Conf.Server.Address(),
			AccountSvc:    acctSvc,
			AssessmentSvc: asmtSvc,
			Logger:        logger,
		},
	)
	app.Start()
}
