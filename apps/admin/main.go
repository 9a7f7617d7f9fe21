package main

import (
	"context"
	"log"
	"os"

	"github.com/enactus/membership/core"
	"github.com/enactus/membership/core/member"
	"github.com/enactus/membership/storage/database"
	"github.com/enactus/membership/storage/database/mongodb"
	"github.com/enactus/membership/storage/repos"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	// set up DB
	client, err := database.Open(context.Background(), conf)
	errAndDie(err)
	store := mongodb.NewStore(client, conf.Database.Name)

	// start CLI
	cli := commandLine{
		usrSvc: member.NewService(docrepos.NewUserRepository(store)),
	}
	err = cli.run(os.Args)
	_ = client.Disconnect(context.Background())
	if err != nil {
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
