package service

import (
	"context"
	"errors"
	"strings"

	"enquiry-cli/internal/api"
	"enquiry-cli/internal/config"
	"enquiry-cli/internal/conversation"

	"go.uber.org/zap"
)

// User-visible failure messages stored on failed exchanges.
const (
	MsgCancelled   = "Request cancelled."
	MsgTimedOut    = "Request timed out. Please try again."
	MsgFailed      = "Failed to get response. Please try again."
	MsgNoBody      = "The server sent an empty response. Please try again."
	MsgInterrupted = "The response was interrupted. Please try again."
	MsgBusy        = "Please wait for the current answer to finish."
)

// ErrEmptyQuestion is returned for a question that is blank after trimming.
var ErrEmptyQuestion = errors.New("question is empty")

// Options carries the per-request settings sent with every question.
type Options struct {
	Language     config.Language
	CustomerName string
}

// OptionsFromConfig builds request options from the loaded profile.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{Language: cfg.Lang(), CustomerName: strings.TrimSpace(cfg.CustomerName)}
}

// BuildRequest validates the question and assembles the chat payload.
func BuildRequest(question string, opts Options) (api.ChatRequest, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return api.ChatRequest{}, ErrEmptyQuestion
	}
	lang := opts.Language
	if lang == "" {
		lang = config.English
	}
	return api.ChatRequest{
		Message:      q,
		CustomerName: strings.TrimSpace(opts.CustomerName),
		Language:     string(lang),
	}, nil
}

// Runner drives one exchange at a time against a conversation log. The
// fragment callback runs on the caller's goroutine, so Run and RunOnce must
// be called from the goroutine that owns the log.
type Runner struct {
	client api.ChatAPI
	log    *conversation.Log
	logger *zap.Logger
}

func NewRunner(client api.ChatAPI, log *conversation.Log, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{client: client, log: log, logger: logger}
}

// Log returns the conversation log the runner appends to.
func (r *Runner) Log() *conversation.Log {
	return r.log
}

// Run submits question, streams the reply into the open exchange and closes
// it. onFragment, if set, sees each fragment after it has been appended. The
// returned exchange is the final copy; err is nil only when it finished.
func (r *Runner) Run(ctx context.Context, question string, opts Options, onFragment func(string)) (conversation.Exchange, error) {
	req, h, err := r.open(question, opts)
	if err != nil {
		return conversation.Exchange{}, err
	}

	err = r.client.StreamChat(ctx, req, func(fragment string) {
		if appendErr := r.log.AppendFragment(h, fragment); appendErr != nil {
			r.logger.Debug("dropping fragment", zap.String("exchange", h.ID()), zap.Error(appendErr))
			return
		}
		if onFragment != nil {
			onFragment(fragment)
		}
	})
	return r.close(h, err)
}

// RunOnce is Run without streaming: the whole reply is appended at once.
func (r *Runner) RunOnce(ctx context.Context, question string, opts Options) (conversation.Exchange, error) {
	req, h, err := r.open(question, opts)
	if err != nil {
		return conversation.Exchange{}, err
	}

	text, err := r.client.SendMessage(ctx, req)
	if err == nil && text != "" {
		err = r.log.AppendFragment(h, text)
	}
	return r.close(h, err)
}

func (r *Runner) open(question string, opts Options) (api.ChatRequest, conversation.Handle, error) {
	req, err := BuildRequest(question, opts)
	if err != nil {
		return api.ChatRequest{}, conversation.Handle{}, err
	}
	h, err := r.log.Submit(req.Message, req.Language)
	if err != nil {
		return api.ChatRequest{}, conversation.Handle{}, err
	}
	r.logger.Debug("exchange opened", zap.String("exchange", h.ID()), zap.String("language", req.Language))
	return req, h, nil
}

func (r *Runner) close(h conversation.Handle, err error) (conversation.Exchange, error) {
	if err != nil {
		msg := ErrorMessage(err)
		r.logger.Warn("exchange failed", zap.String("exchange", h.ID()), zap.String("reason", msg), zap.Error(err))
		_ = r.log.Fail(h, msg)
	} else {
		_ = r.log.Complete(h)
	}
	ex, _ := r.log.Get(h)
	return ex, err
}

// ErrorMessage maps an exchange error to the message shown to the user.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		busy      *conversation.BusyError
		streamErr *api.StreamReadError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimedOut
	case errors.As(err, &busy):
		return MsgBusy
	case errors.Is(err, api.ErrNoBody):
		return MsgNoBody
	case errors.As(err, &streamErr):
		return MsgInterrupted
	}
	return MsgFailed
}

// Suggestion returns the server's remediation hint, if the error carries one.
func Suggestion(err error) string {
	var transport *api.TransportError
	if errors.As(err, &transport) {
		return transport.Suggestion
	}
	return ""
}
