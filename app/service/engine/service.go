package engine

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"soapbatch/app/client/telegram"
	"soapbatch/app/service/dispatch"
	"soapbatch/app/service/interpreter"
	"soapbatch/app/service/queue"
	"soapbatch/app/service/state"
	"soapbatch/app/service/transcribe"

	"github.com/samber/do"
)

const (
	replyVoiceFailed     = "Sorry, I couldn't understand your voice message."
	replyTextOrVoiceOnly = "Please send a text or voice message."
)

type transport interface {
	SetListener(telegram.MessageHandler)
	Run(ctx context.Context) error
	SendMessage(chatID int64, text string) error
	DownloadVoice(ctx context.Context, fileID string) (string, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, oggPath string) string
}

type intentInterpreter interface {
	Interpret(ctx context.Context, text string, current state.Batch) interpreter.Result
}

type actionDispatcher interface {
	Apply(ctx context.Context, chatID int64, result interpreter.Result) []string
}

type Service struct {
	transport     transport
	transcribeSvc transcriber
	interpretSvc  intentInterpreter
	dispatchSvc   actionDispatcher
	stateStore    *state.Store
	queueSvc      *queue.Service
}

func New(di *do.Injector) (*Service, error) {
	return &Service{
		transport:     do.MustInvoke[*telegram.Client](di),
		transcribeSvc: do.MustInvoke[*transcribe.Service](di),
		interpretSvc:  do.MustInvoke[*interpreter.Service](di),
		dispatchSvc:   do.MustInvoke[*dispatch.Service](di),
		stateStore:    do.MustInvoke[*state.Store](di),
		queueSvc:      do.MustInvoke[*queue.Service](di),
	}, nil
}

// Run consumes inbound messages one at a time until the context is
// cancelled. Per-message failures are logged and never stop the loop.
func (s *Service) Run(ctx context.Context) {
	s.transport.SetListener(func(chatID int64, text, voiceFileID string) {
		s.queueSvc.Add(queue.Message{
			ChatID:      chatID,
			Text:        text,
			VoiceFileID: voiceFileID,
		})
	})

	go func() {
		if err := s.transport.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Transport stopped", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-s.queueSvc.Channel():
			if !ok {
				return
			}

			start := time.Now()
			s.handleMessage(ctx, msg)

			slog.Info("Processed message",
				"chat_id", msg.ChatID,
				"duration", time.Since(start))
		}
	}
}

func (s *Service) handleMessage(ctx context.Context, msg queue.Message) {
	text := msg.Text

	if msg.VoiceFileID != "" {
		voicePath, err := s.transport.DownloadVoice(ctx, msg.VoiceFileID)
		if err != nil {
			slog.Error("Failed to download voice note", "chat_id", msg.ChatID, "error", err)
			s.reply(msg.ChatID, replyVoiceFailed)
			return
		}
		defer os.Remove(voicePath)

		text = s.transcribeSvc.Transcribe(ctx, voicePath)
		if text == "" {
			s.reply(msg.ChatID, replyVoiceFailed)
			return
		}
	}

	if text == "" {
		s.reply(msg.ChatID, replyTextOrVoiceOnly)
		return
	}

	slog.Debug("Handling message", "chat_id", msg.ChatID, "text", text)

	current := s.stateStore.Get(msg.ChatID)
	result := s.interpretSvc.Interpret(ctx, text, current)

	for _, reply := range s.dispatchSvc.Apply(ctx, msg.ChatID, result) {
		s.reply(msg.ChatID, reply)
	}
}

func (s *Service) reply(chatID int64, text string) {
	if err := s.transport.SendMessage(chatID, text); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}
