package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"murmur/archive"
	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/daemon"
	"murmur/doctor"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/session"
	"murmur/shutdown"
	"murmur/transcriber"
)

var version = "dev"

var shutdownOnce sync.Once

func gracefulShutdown(sess *session.Session) {
	shutdownOnce.Do(func() {
		if sess != nil {
			// Let an in-flight transcription land before exiting.
			select {
			case <-sess.Done():
			case <-time.After(10 * time.Second):
			}
			log.SessionEnd(sess.Completed())
		}
		log.Close()
		daemon.RemovePidfile()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText(cfg *config.Config) string {
	label := "whisper " + transcriber.NormalizeModel(cfg.Whisper.Model)
	if cfg.Whisper.Language != "" {
		label += " (" + cfg.Whisper.Language + ")"
	}
	return fmt.Sprintf("[%s | %s]", label, cfg.Hotkey)
}

func run() {
	daemonFlag := flag.Bool("daemon", false, "Run in the background and return the shell prompt")
	statusFlag := flag.Bool("status", false, "Report whether the background daemon is running")
	stopFlag := flag.Bool("stop", false, "Stop the background daemon")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses the configured or default device)")
	deviceFlag := flag.String("device", "", "Use named microphone device (overrides config)")
	configFlag := flag.String("config", "", "Config file path (default: ~/.config/murmur/config.json)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	verboseFlag := flag.Bool("verbose", false, "Verbose diagnostic logging")
	silentFlag := flag.Bool("silent", false, "Disable audible cues")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", false, "Run in the foreground with a terminal UI")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	if *statusFlag {
		pid, err := daemon.Status()
		if errors.Is(err, daemon.ErrNotRunning) {
			fmt.Println("murmur is not running")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("murmur is running (pid %d)\n", pid)
		os.Exit(0)
	}

	if *stopFlag {
		if err := daemon.Stop(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("murmur stopped")
		os.Exit(0)
	}

	cfgPath := *configFlag
	if cfgPath == "" {
		cfgPath = config.Path()
	}
	store, err := config.NewStore(cfgPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *verboseFlag || store.Snapshot().Logging.Level == "debug" {
		log.SetVerbose(true)
	}
	if *silentFlag {
		beep.Disable()
	}

	if *doctorFlag {
		os.Exit(doctor.Run(store.Snapshot()))
	}

	if *testFlag {
		if flag.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(flag.Arg(0), store)
		return
	}

	// Resolve -setup into -device early (before daemonization)
	if *setupFlag && *deviceFlag == "" {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Printf("Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		if dev, _ := audio.SelectDevice(actx); dev != nil {
			*deviceFlag = dev.Name
		}
		actx.Close()
	}

	// Daemonize: re-exec in background, return shell prompt
	if *daemonFlag && !daemon.InBackground() {
		var extra []string
		if *deviceFlag != "" {
			extra = append(extra, "-device", *deviceFlag)
		}
		if err := daemon.Background(extra...); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("murmur started in background (murmur -stop to stop)")
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if err := daemon.WritePidfile(); err != nil {
		log.Errorf("pidfile error: %v", err)
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer daemon.RemovePidfile()

	cfg := store.Snapshot()
	combo, err := hotkey.Parse(cfg.Hotkey)
	if err != nil {
		log.Errorf("hotkey parse error: %v", err)
		fmt.Printf("Error: bad hotkey %q: %v\n", cfg.Hotkey, err)
		os.Exit(1)
	}

	if err := clipboard.Init(); err != nil {
		fmt.Printf("Warning: paste init failed: %v\n", err)
		fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	hk := hotkey.New(combo)
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Printf("Error registering hotkey: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	sess := session.New(actx, nil, nil)
	sess.Events = uiEvents{}

	// startConfig pins the current snapshot for the session about to start.
	// ToggleFunc evaluates it atomically with the Idle check, so a reload or
	// a pipeline finishing in parallel can never hand a session a stale config.
	startConfig := func() session.Config {
		cfg := store.Snapshot()
		deviceName := cfg.Audio.Device
		if *deviceFlag != "" {
			deviceName = *deviceFlag
		}
		dev, err := audio.FindDevice(actx, deviceName)
		if err != nil {
			log.Warnf("configured device %q not found, using default: %v", deviceName, err)
			dev = nil
		}

		var archiver session.Archiver
		if cfg.ArchiveDir != "" {
			if a, err := archive.New(cfg.ArchiveDir); err == nil {
				archiver = a
			} else {
				log.Warnf("archive dir unavailable: %v", err)
			}
		}

		tuiSend(DeviceLineMsg{Text: deviceLineText(dev)})
		return session.Config{
			SampleRate:         cfg.Audio.SampleRate,
			Channels:           cfg.Audio.Channels,
			Device:             dev,
			NoiseReduction:     cfg.Audio.NoiseReductionLevel,
			SilenceThresholdDB: cfg.Audio.SilenceThresholdDB,
			TranscribeTimeout:  cfg.Whisper.Timeout(),
			Model:              transcriber.NormalizeModel(cfg.Whisper.Model),
			Gateway: transcriber.NewWhisper(
				cfg.Whisper.Binary, cfg.Whisper.ModelDir, cfg.Whisper.Model, cfg.Whisper.Language),
			Sink:     inject.New(cfg.Typing.PerChar()),
			Archiver: archiver,
		}
	}

	if err := store.Watch(func(next *config.Config) {
		log.Info("config reloaded")
		if next.Hotkey != combo.String() {
			log.Warn("hotkey changed in config, restart murmur to apply")
		}
		tuiSend(ModeLineMsg{Text: modeLineText(next)})
	}, func(err error) {
		log.Warnf("config reload failed, keeping previous: %v", err)
	}); err != nil {
		log.Warnf("config watch unavailable: %v", err)
	}

	// Start TUI
	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram()
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(sess)
		}()

		<-tuiReady
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)

	go beep.Init()

	log.SessionStart(transcriber.NormalizeModel(cfg.Whisper.Model), cfg.Audio.Device, combo.String())
	tuiSend(ModeLineMsg{Text: modeLineText(cfg)})

	// Serial event loop: one toggle at a time, keyups acknowledged and
	// dropped so a held combo cannot queue up ghost toggles.
	for {
		select {
		case <-hk.Keydown():
			if sess.ToggleFunc(startConfig) == session.OutcomeBusy {
				beep.PlayBusy()
			}

		case <-hk.Keyup():
			// Toggles fire on the press edge only.

		case <-sigChan:
			gracefulShutdown(sess)
			return
		}
	}
}
