package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	session "github.com/medivoice/voice-core/core"
	"github.com/medivoice/voice-core/core/audio/miniaudio"
	"github.com/medivoice/voice-core/core/audio/portaudio"
	"github.com/medivoice/voice-core/internal/tui"
)

const portaudioBufferSize = 1024

func main() {
	backendURL := flag.String("backend", "http://localhost:8000/api/med", "base URL of the conversational backend")
	channelURL := flag.String("channel", "ws://localhost:8000/ws/voice", "websocket URL of the voice channel")
	language := flag.String("language", session.DefaultLanguage, "exchange language, or auto")
	username := flag.String("username", "", "user identity attached to exchanges")
	structured := flag.Bool("structured-flow", false, "use the backend's guided question flow")
	audioBackend := flag.String("audio", "miniaudio", "audio backend: miniaudio, portaudio or none")
	flag.Parse()

	events := make(chan tea.Msg, 64)
	opts := []session.SessionOption{
		session.WithBackendURL(*backendURL),
		session.WithChannelURL(*channelURL),
		session.WithLanguage(*language),
		session.WithUserIdentity(*username),
		session.WithStructuredFlow(*structured),
		session.WithModeChangedCallback(func(mode session.Mode) {
			events <- tui.ModeChangedMsg{Mode: mode}
		}),
		session.WithTurnAppendedCallback(func(turn session.Turn) {
			events <- tui.TurnAppendedMsg{Turn: turn}
		}),
		session.WithTurnUpdatedCallback(func(turn session.Turn) {
			events <- tui.TurnUpdatedMsg{Turn: turn}
		}),
		session.WithAlertCallback(func(message string) {
			events <- tui.AlertMsg{Message: message}
		}),
	}

	audioOpts, closeAudio, err := audioClientOptions(*audioBackend)
	if err != nil {
		log.Fatalf("Failed to initialize audio: %v", err)
	}
	defer closeAudio()
	opts = append(opts, audioOpts...)

	sess := session.NewSession(opts...)
	defer sess.Close()

	program := tea.NewProgram(tui.New(sess, events), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "medivoice: %v\n", err)
		os.Exit(1)
	}
}

func audioClientOptions(backend string) ([]session.SessionOption, func(), error) {
	switch backend {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, nil, err
		}
		return []session.SessionOption{
			session.WithAudioInput(client),
			session.WithAudioOutput(client),
		}, client.Close, nil

	case "portaudio":
		client, err := portaudio.NewClient(portaudioBufferSize)
		if err != nil {
			return nil, nil, err
		}
		return []session.SessionOption{
			session.WithAudioInput(client),
			session.WithAudioOutput(client),
		}, client.Close, nil

	case "none":
		// Text-only operation; voice commands will report the missing device.
		return nil, func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown audio backend %q", backend)
}
