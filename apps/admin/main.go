package main

import (
	"log"
	"os"

	"github.com/ebusmomentum88/school-portal-backend/core"
	identsvc "github.com/ebusmomentum88/school-portal-backend/services/identity"
	dummyident "github.com/ebusmomentum88/school-portal-backend/services/identity/dummy"
	"github.com/ebusmomentum88/school-portal-backend/storage/database"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()

	var idp core.IdentityProvider
	if core.Conf.Identity.BaseURL != "" {
		idp = identsvc.NewRestProvider(core.Conf.Identity)
	} else {
		idp = dummyident.NewProvider()
	}

	// start CLI
	cli := commandLine{
		db:       db,
		identity: idp,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
