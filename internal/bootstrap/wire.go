package bootstrap

import (
	"context"

	"go.uber.org/zap"

	"vocabtalk/internal/apiclient"
	"vocabtalk/internal/audio"
	"vocabtalk/internal/config"
	"vocabtalk/internal/logging"
	"vocabtalk/internal/observability"
	"vocabtalk/internal/ports"
	"vocabtalk/internal/rules"
	"vocabtalk/internal/usecase"
)

// Services is the assembled runtime graph shared by the desktop and web surfaces.
type Services struct {
	Config  config.Config
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Client  *apiclient.Client
	Rules   *rules.Engine

	Translation  *usecase.TranslationController
	Vocabulary   *usecase.VocabularyController
	Conversation *usecase.ConversationController
}

// Build loads configuration, creates the logger and wires every dependency.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return Services{}, err
	}

	return Assemble(cfg, logger, eventSink)
}

// Assemble wires the runtime graph from an already resolved configuration.
func Assemble(cfg config.Config, logger *zap.Logger, eventSink ports.EventSink) (Services, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rulesEngine, err := rules.NewEngine(cfg.Rules.Path, cfg.Rules.IterationLimit)
	if err != nil {
		return Services{}, err
	}

	metrics := observability.NewMetrics("vocabtalk")

	client := apiclient.New(apiclient.Config{
		BaseURL:  cfg.Backend.BaseURL,
		Timeout:  cfg.Backend.Timeout,
		Logger:   logger,
		Observer: metrics,
	})
	if cfg.Backend.AuthEnabled {
		client = client.WithTokens(apiclient.NewTokenManager(client, cfg.Backend.TokenSkew))
	}

	opts := []usecase.Option{usecase.WithLogger(logger), usecase.WithObserver(metrics)}

	settleDelay := cfg.Session.SettleDelay
	if settleDelay == 0 {
		settleDelay = -1
	}

	conversation := usecase.NewConversationController(
		audio.NewFFMPEGCapture(cfg.Audio.RecorderCommand),
		client,
		rulesEngine,
		eventSink,
		usecase.ConversationConfig{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			ChunkSize:     cfg.Session.ChunkSize,
			SettleDelay:   settleDelay,
			MaxAudioBytes: cfg.Session.MaxAudioBytes,
		},
		opts...,
	)

	logger.Info("services assembled",
		zap.String("backend", client.BaseURL()),
		zap.Bool("auth", cfg.Backend.AuthEnabled),
		zap.String("config_file", cfg.File),
		zap.Int("rules", rulesEngine.Len()),
	)

	return Services{
		Config:       cfg,
		Logger:       logger,
		Metrics:      metrics,
		Client:       client,
		Rules:        rulesEngine,
		Translation:  usecase.NewTranslationController(client, eventSink, opts...),
		Vocabulary:   usecase.NewVocabularyController(client, eventSink, opts...),
		Conversation: conversation,
	}, nil
}

// WatchRules reloads the transcript rules on file changes until ctx is done.
// It does nothing when watching is disabled or no rules file is configured.
func (s Services) WatchRules(ctx context.Context) error {
	if !s.Config.Rules.Watch || s.Rules.Path() == "" {
		return nil
	}
	return s.Rules.Watch(ctx, func(err error) {
		if err != nil {
			s.Logger.Warn("transcript rules reload failed", zap.Error(err))
			return
		}
		s.Logger.Info("transcript rules reloaded", zap.Int("rules", s.Rules.Len()))
	})
}

// Close stops any in-flight recording and flushes the logger.
func (s Services) Close() {
	if s.Conversation != nil {
		s.Conversation.Close()
	}
	if s.Logger != nil {
		_ = s.Logger.Sync()
	}
}
