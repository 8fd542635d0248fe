package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/xob0t/SlipStencil/pkg/template"
)

// askTemplate lets the user pick a template, defaulting to current (or the
// first template when current is empty).
func askTemplate(ctx context.Context, reg *template.Registry, current string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	list := reg.List()
	options := make([]string, len(list))
	def := list[0].Name
	for i, t := range list {
		options[i] = t.Name
		if t.ID == current {
			def = t.Name
		}
	}

	var picked int
	prompt := &survey.Select{
		Message: "Template:",
		Options: options,
		Default: def,
	}
	if err := survey.AskOne(prompt, &picked); err != nil {
		return "", translateSurveyErr(err)
	}
	return list[picked].ID, nil
}

// askValues prompts for each form field, offering the current value as
// the default.
func askValues(ctx context.Context, values template.FormValues) (template.FormValues, error) {
	labels := map[template.FieldID]string{
		template.FieldName:    "Donor name:",
		template.FieldAmount:  "Amount:",
		template.FieldPurpose: "Purpose:",
	}

	for _, f := range template.Fields {
		if err := ctx.Err(); err != nil {
			return values, err
		}

		var out string
		prompt := &survey.Input{
			Message: labels[f],
			Default: values.Get(f),
		}
		if err := survey.AskOne(prompt, &out); err != nil {
			return values, translateSurveyErr(err)
		}
		values = values.With(f, out)
	}
	return values, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return fmt.Errorf("prompt cancelled: %w", context.Canceled)
	}
	return err
}
