package packlate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	// DefaultMaxContinuations caps "continue" messages per truncated reply.
	DefaultMaxContinuations = 5

	// ContinueMessage asks the backend to resume a truncated reply.
	ContinueMessage = "continue"
)

// FixingPrompt asks the backend to restate a previous reply as exactly the
// translation object.
func FixingPrompt(previous string) string {
	var b strings.Builder
	b.WriteString("Your previous answer could not be read as the required json object. ")
	b.WriteString("Reply with only this object, with the null values replaced by the corresponding translation ")
	b.WriteString("and no other text:\n")
	b.WriteString(TranslationTemplate())
	b.WriteString("\n\nPrevious answer:\n")
	b.WriteString(previous)
	return b.String()
}

// requestTranslation runs one session for source: the initial exchange, and a
// single fixing exchange if the first reply does not parse. The session is
// closed exactly once, whatever the outcome.
func (t *Translator) requestTranslation(ctx context.Context, source string, log *zap.Logger) (Translation, error) {
	sess, err := t.backend.OpenSession(ctx)
	if err != nil {
		return Translation{}, fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(context.WithoutCancel(ctx)); cerr != nil {
			log.Warn("failed to close backend session", zap.Error(cerr))
		}
	}()

	reply, err := t.exchange(ctx, sess, source, log)
	if err != nil {
		return Translation{}, err
	}

	tr, perr := ParseTranslation(reply)
	if perr == nil {
		return tr, nil
	}
	log.Debug("reply did not parse; asking backend to reformat", zap.Error(perr))

	fixed, err := t.exchange(ctx, sess, FixingPrompt(reply), log)
	if err != nil {
		return Translation{}, err
	}

	tr, err = ParseTranslation(fixed)
	if err != nil {
		return Translation{}, &TranslationError{Message: "reply unparseable after reformat request", Cause: err}
	}
	return tr, nil
}

// exchange sends message and follows truncated replies with continuation
// requests, concatenating the fragments.
func (t *Translator) exchange(ctx context.Context, sess Session, message string, log *zap.Logger) (string, error) {
	reply, err := sess.Send(ctx, message)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(reply.Text)

	for n := 0; reply.Truncated; n++ {
		if n >= t.maxContinuations {
			log.Warn("reply still truncated after continuation limit", zap.Int("continuations", n))
			break
		}
		reply, err = sess.Send(ctx, ContinueMessage)
		if err != nil {
			return "", err
		}
		b.WriteString(reply.Text)
	}

	return b.String(), nil
}
