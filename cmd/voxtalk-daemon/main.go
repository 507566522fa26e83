package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/afero"
	cli "github.com/spf13/pflag"

	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"voxtalk/internal/api"
	"voxtalk/internal/assistant"
	"voxtalk/internal/audio"
	"voxtalk/internal/chat"
	"voxtalk/internal/config"
	"voxtalk/internal/events"
	"voxtalk/internal/ipc"
	"voxtalk/internal/notify"
	"voxtalk/internal/proxy"
	"voxtalk/internal/trace"
	"voxtalk/internal/tts"
	"voxtalk/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func setupLogger(level string) {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      logLevelMap[level],
		TimeFormat: time.Kitchen,
	})))
}

func main() {
	setupLogger("info")

	cfg, err := config.Load(cli.NewFlagSet("voxtalk-daemon", cli.ExitOnError), os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			log.Error("ERROR: GROQ_API_KEY not found!")
		} else {
			log.Error("Failed to load configuration", "err", err)
		}
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)
	log.Info("Booting up")

	if err := run(cfg); err != nil {
		log.Error("Daemon failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	httpClient, err := proxy.NewClient(cfg.Proxy, cfg.RequestTimeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		return err
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithRequestTimeout(cfg.RequestTimeout),
		option.WithMaxRetries(0),
	)

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		return err
	}
	defer rec.Close()

	log.Debug("Loaded recorder")

	transcriber, err := stt.NewTranscriber(client, cfg.TranscribeModel)
	if err != nil {
		return err
	}

	synth, err := tts.NewSynthesizer(client, tts.SynthOptions{
		Model:    cfg.SpeechModel,
		Voice:    cfg.Voice,
		Language: cfg.Language,
	})
	if err != nil {
		return err
	}

	engine := audio.NewBeepEngine()
	playerOpts := []tts.PlayerOption{tts.WithPollInterval(cfg.PollInterval)}
	if cfg.Duck {
		playerOpts = append(playerOpts, tts.WithDucker(audio.NewDucker([]string{"voxtalk-daemon"}, cfg.DuckFactor, 300*time.Millisecond)))
	}
	player := tts.NewPlayer(synth, engine, tts.NewScratch(afero.NewOsFs(), cfg.ScratchDir), playerOpts...)

	listen := audio.DefaultListenOptions()
	listen.Calibration = cfg.Calibration
	listen.OnsetTimeout = cfg.OnsetTimeout
	listen.Pause = cfg.Pause

	ear := &assistant.MicEar{Mic: rec, Options: listen, Transcriber: transcriber}
	if cfg.Cue != "" {
		ear.Cue = func(ctx context.Context) error { return notify.Cue(ctx, engine, cfg.Cue) }
	}

	var observers []assistant.Observer

	if cfg.TraceDB != "" {
		journal, err := trace.Open(cfg.TraceDB)
		if err != nil {
			log.Error("Failed to open turn journal", "path", cfg.TraceDB, "err", err)
			return err
		}
		defer journal.Close()
		observers = append(observers, journal)
	}

	if cfg.BusURL != "" {
		bus, err := events.Dial(cfg.BusURL)
		if err != nil {
			log.Warn("Bus unavailable, events disabled", "url", cfg.BusURL, "err", err)
		} else {
			defer bus.Close()
			observers = append(observers, bus)
		}
	}

	session := assistant.NewSession(cfg.SystemPrompt)
	loop := assistant.NewLoop(session, ear, chat.NewClient(client, cfg.ChatModel), player, observers...)

	srv, err := ipc.StartServer(cfg.Socket, func(msg ipc.ControlMessage) ipc.ControlReply {
		switch msg.Cmd {
		case "start":
			loop.Start()
		case "stop":
			loop.Stop()
		case "status":
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return ipc.ControlReply{Error: "unknown command " + msg.Cmd}
		}
		st := loop.Status(false)
		return ipc.ControlReply{OK: true, Active: st.Active, Turns: st.Turns, Session: st.SessionID}
	})
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		return err
	}
	defer srv.Close()

	var httpSrv *http.Server
	if cfg.HTTPAddr != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           api.NewHandler(loop).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP control failed", "addr", cfg.HTTPAddr, "err", err)
			}
		}()
		log.Info("HTTP control listening", "addr", cfg.HTTPAddr)
	}

	log.Info("Boot up - successful", "session", session.ID, "socket", cfg.Socket)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpSrv != nil {
		if err := httpSrv.Shutdown(ctx); err != nil {
			log.Warn("HTTP shutdown", "err", err)
		}
	}
	if err := loop.Shutdown(ctx); err != nil {
		log.Warn("Loop did not stop in time", "err", err)
	}

	return nil
}
