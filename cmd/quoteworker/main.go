package main

import (
	"context"

	"github.com/niksmo/office-storefront/config"
	"github.com/niksmo/office-storefront/internal/app"
	"github.com/niksmo/office-storefront/pkg/sigctx"
)

func main() {
	sigCtx, closeApp := sigctx.NotifyContext(context.Background())
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	worker := app.NewWorker(sigCtx, cfg)

	worker.Run(closeApp)

	<-sigCtx.Done()
	worker.Close()
}
