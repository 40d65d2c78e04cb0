package main

import (
	"fmt"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/fxreplay/fxreplay/src/logger"
	"github.com/fxreplay/fxreplay/src/playground/router"
	"github.com/fxreplay/fxreplay/src/utils"
)

func main() {
	logger.Init()

	if err := utils.InitEnvironmentVariables(); err != nil {
		log.Fatalf("init environment: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := router.NewServer()

	log.Infof("playground api listening on :%s", port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", port), srv.Routes()); err != nil {
		log.Fatal(err)
	}
}
