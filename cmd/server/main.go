package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Brownie44l1/digit-api/internal/config"
	"github.com/Brownie44l1/digit-api/internal/handlers"
	"github.com/Brownie44l1/digit-api/internal/logging"
	"github.com/Brownie44l1/digit-api/internal/model"
	"github.com/Brownie44l1/digit-api/internal/preprocess"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file (default "+config.ConfigFile+")")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	if os.Getenv("GO_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	pre, err := preprocess.New(cfg.Preprocess())
	if err != nil {
		log.Fatal().Err(err).Msg("create preprocessor")
	}

	classifier, closeModel, err := openClassifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open classifier")
	}
	defer closeModel()

	handler := handlers.NewHandler(classifier, pre, cfg.MaxUploadBytes)
	router := handlers.NewRouter(handler)

	log.Info().
		Str("port", cfg.Port).
		Str("backend", classifier.Backend()).
		Bool("model_ready", classifier.Available()).
		Str("polarity", cfg.Polarity).
		Str("filter", cfg.Filter).
		Msg("server starting")

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("run server")
	}
}

// openClassifier picks the remote scorer when configured, otherwise the
// local ONNX model. A local model that fails to load leaves the service up
// without a model, so predictions report "unavailable" rather than guessing.
func openClassifier(cfg *config.Config) (*model.Classifier, func(), error) {
	if cfg.RemoteURL != "" {
		remote, err := model.NewRemoteScorer(cfg.RemoteURL, nil, time.Duration(cfg.RemoteTimeout))
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("url", cfg.RemoteURL).Msg("using remote model")
		return model.NewClassifier(remote, model.WithBackend("remote")), func() {}, nil
	}

	log.Info().Str("model", cfg.ModelPath).Str("metadata", cfg.MetadataPath).Msg("loading model")
	session, err := model.NewSession(cfg.ModelPath, cfg.MetadataPath, cfg.SharedLibraryPath)
	if err != nil {
		log.Error().Err(err).Msg("model not loaded; predictions will be unavailable")
		return model.NewClassifier(nil, model.WithBackend("onnx")), func() {}, nil
	}

	md := session.Metadata
	if md.StrokePolarity != "" && md.StrokePolarity != cfg.Polarity {
		session.Close()
		return nil, nil, fmt.Errorf("model expects stroke polarity %q but config says %q", md.StrokePolarity, cfg.Polarity)
	}

	log.Info().Strs("classes", md.Classes).Ints64("input_shape", md.InputShape).Msg("model loaded")
	return model.NewClassifier(session,
		model.WithBackend("onnx"),
		model.WithClasses(md.Classes),
		model.WithSoftmax(md.OutputLogits),
	), session.Close, nil
}
