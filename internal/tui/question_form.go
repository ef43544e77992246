package tui

import (
	"errors"

	"github.com/charmbracelet/huh"

	"github.com/parleyhq/parley/internal/core/conversation"
	"github.com/parleyhq/parley/internal/styles"
	"github.com/parleyhq/parley/internal/transport"
)

// AnswerForm wraps a huh.Form collecting answers for one question or a whole
// batch. One field is built per question: selects for fixed option sets,
// inputs for open text.
type AnswerForm struct {
	form      *huh.Form
	batchID   string
	questions []conversation.Question

	texts      []string
	selections []string
	multi      [][]string
}

// questionFields converts a pending single question into form input.
func questionFields(in conversation.Interaction) []conversation.Question {
	q := conversation.Question{
		ID:   in.Message.QuestionID(),
		Text: in.Message.Content,
	}
	if in.Message.Data != nil {
		q.Type = in.Message.Data.QuestionType
		q.Options = in.Message.Data.Options
		q.AllowMultiple = in.Message.Data.AllowMultiple
	}
	return []conversation.Question{q}
}

// NewSingleAnswerForm builds a form for the pending question.
func NewSingleAnswerForm(in conversation.Interaction) *AnswerForm {
	return newAnswerForm(questionFields(in), "")
}

// NewBatchAnswerForm builds a form for an unanswered batch entry.
func NewBatchAnswerForm(b *conversation.BatchGroup) *AnswerForm {
	return newAnswerForm(b.Questions, b.BatchID)
}

func newAnswerForm(questions []conversation.Question, batchID string) *AnswerForm {
	f := &AnswerForm{
		batchID:    batchID,
		questions:  questions,
		texts:      make([]string, len(questions)),
		selections: make([]string, len(questions)),
		multi:      make([][]string, len(questions)),
	}

	fields := make([]huh.Field, 0, len(questions))
	for i, q := range questions {
		switch {
		case len(q.Options) > 0 && q.AllowMultiple:
			options := make([]huh.Option[string], len(q.Options))
			for j, opt := range q.Options {
				options[j] = huh.NewOption(opt, opt)
			}
			fields = append(fields, huh.NewMultiSelect[string]().
				Title(q.Text).
				Options(options...).
				Value(&f.multi[i]))

		case len(q.Options) > 0:
			options := make([]huh.Option[string], len(q.Options))
			for j, opt := range q.Options {
				options[j] = huh.NewOption(opt, opt)
			}
			fields = append(fields, huh.NewSelect[string]().
				Title(q.Text).
				Options(options...).
				Value(&f.selections[i]))

		default:
			fields = append(fields, huh.NewInput().
				Title(q.Text).
				Value(&f.texts[i]).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("an answer is required")
					}
					return nil
				}))
		}
	}

	f.form = huh.NewForm(huh.NewGroup(fields...)).WithTheme(styles.FormTheme())
	return f
}

// Form returns the underlying huh.Form for tea.Model integration.
func (f *AnswerForm) Form() *huh.Form {
	return f.form
}

// SetForm replaces the wrapped form after an Update cycle.
func (f *AnswerForm) SetForm(form *huh.Form) {
	f.form = form
}

// BatchID returns the batch this form answers, or empty for a single
// question.
func (f *AnswerForm) BatchID() string {
	return f.batchID
}

// Completed reports whether the user submitted the form.
func (f *AnswerForm) Completed() bool {
	return f.form.State == huh.StateCompleted
}

// Answers returns the collected answers. Only valid once Completed.
func (f *AnswerForm) Answers() []transport.BatchAnswer {
	answers := make([]transport.BatchAnswer, 0, len(f.questions))
	for i, q := range f.questions {
		a := transport.BatchAnswer{QuestionID: q.ID}
		switch {
		case len(q.Options) > 0 && q.AllowMultiple:
			a.Selected = f.multi[i]
		case len(q.Options) > 0:
			if f.selections[i] != "" {
				a.Selected = []string{f.selections[i]}
			}
		default:
			a.Text = f.texts[i]
		}
		answers = append(answers, a)
	}
	return answers
}

// View renders the form.
func (f *AnswerForm) View() string {
	return f.form.View()
}
