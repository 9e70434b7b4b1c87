package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"soapbatch/app/client/sheets"
	"soapbatch/app/client/telegram"
	"soapbatch/app/client/whisper"
	"soapbatch/app/config"
	"soapbatch/app/service/dispatch"
	"soapbatch/app/service/engine"
	"soapbatch/app/service/interpreter"
	"soapbatch/app/service/queue"
	"soapbatch/app/service/state"
	"soapbatch/app/service/transcribe"
	"soapbatch/app/util/mylog"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, telegram.NewClient)
	do.Provide(di, whisper.NewClient)
	do.Provide(di, sheets.NewClient)
	do.Provide(di, state.New)
	do.Provide(di, transcribe.New)
	do.Provide(di, interpreter.New)
	do.Provide(di, dispatch.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go do.MustInvoke[*engine.Service](di).Run(appCtx)

	<-appCtx.Done()
}
