package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"voco/audio"
	"voco/clipboard"
	"voco/config"
	"voco/diarize"
	"voco/doctor"
	"voco/hotkey"
	"voco/llm"
	"voco/log"
	"voco/overlay"
	"voco/permission"
	"voco/runloop"
	"voco/shutdown"
	"voco/sound"
	"voco/speech"
	"voco/store"
	"voco/transcriber"
	"voco/workflow"
)

var version = "dev"

var shutdownOnce sync.Once

func run() {
	configFlag := flag.String("config", "", "config file path (default: OS config dir)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	deviceFlag := flag.String("device", "", "use named microphone device")
	versionFlag := flag.Bool("version", false, "print version and exit")
	doctorFlag := flag.Bool("doctor", false, "run system diagnostics and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("voco %s\n", version)
		os.Exit(0)
	}

	logDir, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logDir)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}
	cfg, warnings, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "Warning: "+w)
		log.Warn(w)
	}

	trans, err := transcriber.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Language != "" {
		if l, ok := trans.(interface{ SetLanguage(string) }); ok {
			l.SetLanguage(cfg.Language)
		}
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	preferred := *deviceFlag
	if preferred == "" {
		preferred = cfg.Device
	}
	source := audio.Source{Kind: audio.SourceMicrophone}
	if preferred != "" {
		if devices, err := actx.Devices(); err == nil {
			for _, d := range devices {
				if d.Name == preferred {
					source.DeviceID = d.ID
					break
				}
			}
		}
		if source.DeviceID == "" {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", preferred)
		}
	}

	loop := runloop.New()
	go loop.Run()

	keys := hotkey.NewRegistry(loop, hotkey.XBackend{})
	defer keys.Close()

	app := overlay.New()
	mgr := workflow.NewManager(loop, app, keys)

	deps := workflow.Deps{
		Loop:          loop,
		Manager:       mgr,
		Audio:         actx,
		Transcriber:   trans,
		Sink:          clipboard.NewSystem(),
		Permission:    permission.NewStatic(true),
		SpeechHold:    cfg.ParsedSpeechHold(),
		WarmupTimeout: cfg.ParsedWarmupTimeout(),
		Dwell:         cfg.ParsedDoneDwell(),
		Source:        source,
	}

	if !cfg.DisableSounds {
		deps.Cues = sound.New(speech.NewPlayer())
	}

	if !cfg.DisableHistory {
		dbPath := cfg.DBPath
		if dbPath == "" {
			dbPath = store.DefaultPath(log.Dir())
		}
		st, err := store.Open(dbPath)
		if err != nil {
			log.Warnf("history disabled: %v", err)
		} else {
			deps.History = st
			defer st.Close()
		}
	}

	if chat, err := llm.New(); err != nil {
		log.Warnf("conversation replies unavailable: %v", err)
	} else {
		deps.LLM = chat
	}
	if synth, err := speech.New(); err != nil {
		log.Warnf("spoken replies unavailable: %v", err)
	} else {
		deps.Synth = synth
		deps.Player = speech.NewPlayer()
	}
	if diar, err := diarize.New(); err != nil {
		log.Infof("diarization unavailable: %v", err)
	} else {
		deps.Diarizer = diar
	}

	dict, err := workflow.NewDictation(deps)
	if err != nil {
		log.Errorf("dictation init: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	bind(loop, mgr, dict, cfg.DictationKey)

	if deps.LLM != nil {
		conv, err := workflow.NewConversation(deps)
		if err != nil {
			log.Errorf("conversation init: %v", err)
		} else {
			bind(loop, mgr, conv, cfg.ConversationKey)
		}
	}

	meet, err := workflow.NewMeeting(deps)
	if err != nil {
		log.Errorf("meeting init: %v", err)
	} else {
		bind(loop, mgr, meet, cfg.MeetingKey)
	}

	watcher := audio.Watch(actx, 3*time.Second, func(devices []audio.DeviceInfo) {
		log.Infof("capture devices changed: %d available", len(devices))
	})
	defer watcher.Stop()

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown(loop, mgr, app)
	}()

	log.Infof("voco %s ready (transcriber=%s)", version, trans.Name())

	// Blocks on the UI event loop until the user quits.
	if err := app.Run(); err != nil {
		log.Errorf("UI error: %v", err)
	}
	gracefulShutdown(loop, mgr, app)
}

// bind registers a workflow chord from its config string.
func bind(loop *runloop.Loop, mgr *workflow.Manager, w workflow.Workflow, chord string) {
	b, err := hotkey.Parse(chord)
	if err != nil {
		log.Errorf("%s hotkey %q: %v", w.Name(), chord, err)
		return
	}
	loop.Do(func() { mgr.Bind(w, b) })
}

func gracefulShutdown(loop *runloop.Loop, mgr *workflow.Manager, app overlay.App) {
	shutdownOnce.Do(func() {
		loop.Do(func() { mgr.CancelActive() })
		loop.Stop()
		app.Quit()
		log.Close()
	})
}
