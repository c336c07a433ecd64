package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/clipboard"
	"murmur/config"
	"murmur/hotkey"
	"murmur/inject"
	"murmur/log"
	"murmur/session"
	"murmur/transcriber"
)

// runTestMode drives the full pipeline headless from stdin commands, with a
// WAV fixture standing in for the microphone. One command per line:
// KEYDOWN, KEYUP, WAIT (pipeline done), LOSS (device loss), SLEEP <ms>, QUIT.
func runTestMode(wavPath string, store *config.Store) {
	beep.Disable()

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if err := clipboard.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: paste init failed: %v\n", err)
	}

	pcm, err := audio.LoadWAV(wavPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	cfg := store.Snapshot()
	fakeCtx := audio.NewFakeContext(pcm)
	gateway := transcriber.NewWhisper(
		cfg.Whisper.Binary, cfg.Whisper.ModelDir, cfg.Whisper.Model, cfg.Whisper.Language)
	sess := session.New(fakeCtx, gateway, inject.New(cfg.Typing.PerChar()))

	log.SessionStart(gateway.Model(), "fake", cfg.Hotkey)

	hk := hotkey.NewFake()

	scfg := session.Config{
		SampleRate:         cfg.Audio.SampleRate,
		Channels:           cfg.Audio.Channels,
		NoiseReduction:     cfg.Audio.NoiseReductionLevel,
		SilenceThresholdDB: cfg.Audio.SilenceThresholdDB,
		TranscribeTimeout:  cfg.Whisper.Timeout(),
		Model:              gateway.Model(),
	}

	// Stdin driver in background; the event loop below stays authoritative.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch cmd {
			case "KEYDOWN":
				hk.SimKeydown()
			case "KEYUP":
				hk.SimKeyup()
			case "WAIT":
				<-sess.Done()
			case "LOSS":
				if c := fakeCtx.LastCapture(); c != nil {
					c.SimulateLoss()
				}
			case "QUIT":
				log.SessionEnd(sess.Completed())
				os.Exit(0)
			default:
				if strings.HasPrefix(cmd, "SLEEP ") {
					if ms, err := strconv.Atoi(cmd[6:]); err == nil {
						time.Sleep(time.Duration(ms) * time.Millisecond)
					}
				}
			}
		}
		log.SessionEnd(sess.Completed())
		os.Exit(0)
	}()

	// Same serial dispatch as run()
	for {
		select {
		case <-hk.Keydown():
			sess.Toggle(scfg)
		case <-hk.Keyup():
		}
	}
}
