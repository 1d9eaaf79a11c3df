package main

import (
	"context"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/airenas/medscribe/internal/pkg/auth"
	"github.com/airenas/medscribe/internal/pkg/note"
	"github.com/airenas/medscribe/internal/pkg/poller"
	"github.com/airenas/medscribe/internal/pkg/properties"
	"github.com/airenas/medscribe/internal/pkg/propstore"
	"github.com/airenas/medscribe/internal/pkg/recognition"
	"github.com/airenas/medscribe/internal/pkg/scribe"
	"github.com/airenas/medscribe/internal/pkg/service"
	"github.com/airenas/medscribe/internal/pkg/sheet"
	"github.com/airenas/medscribe/internal/pkg/storage"
	"github.com/airenas/medscribe/internal/pkg/utils"
	"github.com/airenas/medscribe/internal/pkg/vertex"
	"github.com/labstack/gommon/color"
	"github.com/spf13/viper"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	ctx := context.Background()

	go utils.RunPerfEndpoint()

	store, closeFn, err := propstore.New(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init properties store")
	}
	defer closeFn()

	tokens, err := newTokens(ctx, cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init auth")
	}

	st, err := storage.NewClient(storage.Options{URL: cfg.GetString("storage.url"), User: cfg.GetString("storage.user"),
		Key: cfg.GetString("storage.key"), Region: cfg.GetString("storage.region"), Secure: cfg.GetBool("storage.ssl")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init storage")
	}

	rc, err := recognition.NewClient(defaultV(cfg.GetString("speech.url"), "https://speech.googleapis.com/v1"), tokens)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init speech client")
	}
	pl, err := poller.NewDefault(rc)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init poller")
	}

	projects, err := properties.NewProject(store)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init project source")
	}
	vc, err := vertex.NewClient(vertex.Options{
		URL:      defaultV(cfg.GetString("vertex.url"), "https://us-central1-aiplatform.googleapis.com/v1"),
		Project:  defaultV(cfg.GetString("vertex.project"), "scribeai-415023"),
		Projects: projects,
		Location: defaultV(cfg.GetString("vertex.location"), "us-central1"),
		Model:    defaultV(cfg.GetString("vertex.model"), "gemini-pro"),
	}, tokens)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init vertex client")
	}

	templates, err := properties.NewTemplates(store)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init templates")
	}
	training, err := properties.NewTraining(store)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init training")
	}
	synth, err := note.NewSynthesizer(vc, templates, training)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init synthesizer")
	}

	sData := &scribe.Data{Storage: st, Recognizer: rc, Waiter: pl, Synthesizer: synth,
		Bucket: cfg.GetString("storage.bucket"), URIScheme: cfg.GetString("storage.uriScheme")}
	if f := cfg.GetString("sheet.file"); f != "" {
		sl, err := sheet.NewLogger(f, defaultV(cfg.GetString("sheet.name"), sheet.DefaultName))
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init sheet logger")
		}
		sData.Sheet = sl
	}
	sc, err := scribe.NewService(sData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init scribe")
	}

	data := &service.Data{Port: cfg.GetInt("port"), Transcriber: sc, Templates: templates, Training: training,
		Checker: pl}
	err = service.StartWebServer(data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
}

func newTokens(ctx context.Context, cfg *viper.Viper) (*auth.Provider, error) {
	if t := cfg.GetString("auth.token"); t != "" {
		goapp.Log.Warn().Msg("using static access token")
		return auth.NewStaticProvider(t), nil
	}
	return auth.NewGoogleProvider(ctx, cfg.GetStringSlice("auth.scopes")...)
}

func defaultV[T comparable](v, def T) T {
	var e T
	if v == e {
		return def
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
                        __                    _ __
   ____ ___  ___  ____/ /_____________(_) /_  ___
  / __ ` + "`" + `__ \/ _ \/ __  / ___/ ___/ ___/ / __ \/ _ \
 / / / / / /  __/ /_/ (__  ) /__/ /  / / /_/ /  __/
/_/ /_/ /_/\___/\__,_/____/\___/_/  /_/_.___/\___/  v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/airenas/medscribe"))
}
