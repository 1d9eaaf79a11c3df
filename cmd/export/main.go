package main

import (
	"bytes"
	"context"
	"path/filepath"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/propstore"
	"github.com/airenas/medscribe/internal/pkg/service"
	"github.com/airenas/medscribe/internal/pkg/utils"
	"github.com/labstack/gommon/color"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	ctx := context.Background()

	store, closeFn, err := propstore.New(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init properties store")
	}
	defer closeFn()

	training, err := properties.NewTraining(store)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init training")
	}
	name := filepath.Join(cfg.GetString("export.dir"), service.ExportFileName(time.Now()))
	n, err := export(ctx, training, name)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't export")
	}
	goapp.Log.Info().Int("count", n).Str("file", name).Msg("exported")
}

func export(ctx context.Context, training *properties.Training, name string) (int, error) {
	var b bytes.Buffer
	n, err := training.Export(ctx, &b)
	if err != nil {
		return 0, err
	}
	return n, utils.WriteFile(name, b.Bytes())
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                                __
  ___  _  ______  ____  _____/ /_
 / _ \| |/_/ __ \/ __ \/ ___/ __/
/  __/>  </ /_/ / /_/ / /  / /_
\___/_/|_/ .___/\____/_/   \__/   v: %s
        /_/

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/medscribe"))
}
