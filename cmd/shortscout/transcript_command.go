package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"shortscout/internal/transcript"
	"shortscout/internal/translation"
)

func newTranscriptCommand(ctx *commandContext) *cobra.Command {
	var videoURL string
	var lang string
	var translateTo string

	cmd := &cobra.Command{
		Use:   "transcript [url]",
		Short: "Print the transcript of a single video",
		Long: "Print the transcript of a single video.\n\n" +
			"The URL comes from the argument, --url, or the VIDEO_URL environment\n" +
			"variable, in that order.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			raw := strings.TrimSpace(videoURL)
			if len(args) == 1 {
				raw = strings.TrimSpace(args[0])
			}
			if raw == "" {
				raw = strings.TrimSpace(os.Getenv("VIDEO_URL"))
			}
			if raw == "" {
				return errors.New("video url required (argument, --url, or VIDEO_URL)")
			}
			id := transcript.ExtractVideoID(raw)
			if id == "" {
				return fmt.Errorf("%q is not a YouTube watch, shorts, or youtu.be url", raw)
			}

			logger := ctx.loggerFor()
			provider, err := transcript.New(cfg.Transcripts, logger)
			if err != nil {
				return err
			}
			text, err := provider.Fetch(cmd.Context(), id, lang)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if text == "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "No captions available for %s\n", id)
				return nil
			}
			fmt.Fprintln(out, text)

			if strings.TrimSpace(translateTo) == "" {
				return nil
			}
			translator, err := translation.New(cfg, logger)
			if err != nil {
				return err
			}
			translated, err := translator.Translate(cmd.Context(), text, translateTo)
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, translated)
			return nil
		},
	}

	cmd.Flags().StringVarP(&videoURL, "url", "u", "", "Video URL")
	cmd.Flags().StringVarP(&lang, "language", "l", "", "Preferred caption language")
	cmd.Flags().StringVar(&translateTo, "translate", "", "Also translate the transcript into this language")
	return cmd
}
