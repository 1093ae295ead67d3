package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/idrak"
	"github.com/poiesic/idrak/assistant"
	"github.com/poiesic/idrak/core"
	"github.com/poiesic/idrak/reembed"
	"github.com/poiesic/idrak/search"
	"github.com/urfave/cli/v2"
)

func extractCommand(c *cli.Context) error {
	transcript, err := readTranscript(c)
	if err != nil {
		return err
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ex, err := svc.Extract(c.Context, transcript)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return printJSON(c.App.Writer, ex)
}

func saveCommand(c *cli.Context) error {
	transcript, err := readTranscript(c)
	if err != nil {
		return err
	}
	owner := c.String("owner")

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ex, err := svc.Extract(c.Context, transcript)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	note, err := svc.SaveNote(c.Context, idrak.NoteFromExtraction(owner, transcript, ex))
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	if c.Bool("embed") {
		if _, err := svc.EmbedNote(c.Context, owner, note.Id); err != nil {
			return fmt.Errorf("note %s saved but not embedded: %w", note.Id, err)
		}
	}

	fmt.Fprintf(c.App.Writer, "%s\t%s\n", note.Id, note.Title)
	return nil
}

func showCommand(c *cli.Context) error {
	id, err := noteIDArg(c, 0)
	if err != nil {
		return err
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	note, err := svc.GetNote(c.Context, c.String("owner"), id)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, note)
}

func tagsCommand(c *cli.Context) error {
	tag := strings.Join(c.Args().Slice(), " ")
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	notes, err := svc.NotesByTag(c.Context, c.String("owner"), tag)
	if err != nil {
		return err
	}
	for _, note := range notes {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\n", note.Id, note.UpdatedAt.Format("2006-01-02"), note.Title)
	}
	return nil
}

func doneCommand(c *cli.Context) error {
	id, err := noteIDArg(c, 0)
	if err != nil {
		return err
	}
	number, err := strconv.Atoi(c.Args().Get(1))
	if err != nil || number < 1 {
		return fmt.Errorf("task number must be a positive integer, got %q", c.Args().Get(1))
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	result, err := svc.SetTaskCompleted(c.Context, c.String("owner"), id, number-1, !c.Bool("undo"))
	if err != nil {
		return err
	}
	if !result.Changed() {
		fmt.Fprintln(c.App.Writer, "unchanged")
		return nil
	}
	fmt.Fprintln(c.App.Writer, "updated")
	return nil
}

func embedCommand(c *cli.Context) error {
	id, err := noteIDArg(c, 0)
	if err != nil {
		return err
	}
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	embedding, err := svc.EmbedNote(c.Context, c.String("owner"), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\t%d dimensions\t%s\n", id, len(embedding.Vector), embedding.Model)
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	return runSearch(c, search.TextQuery(query))
}

func relatedCommand(c *cli.Context) error {
	id, err := noteIDArg(c, 0)
	if err != nil {
		return err
	}
	return runSearch(c, search.NoteQuery(id))
}

func runSearch(c *cli.Context, query search.QuerySpec) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	results, err := svc.Search(c.Context, c.String("owner"), query, c.Int("k"))
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Fprintf(c.App.Writer, "%.4f\t%s\t%s\n", r.Score, r.Note.Id, r.Note.Title)
	}
	return nil
}

func topicCommand(c *cli.Context) error {
	ids := make([]core.ID, 0, c.NArg())
	for i := range c.NArg() {
		id, err := noteIDArg(c, i)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	label, err := svc.SynthesizeTopic(c.Context, c.String("owner"), ids)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, label)
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.Join(c.Args().Slice(), " ")
	historyPath := c.String("history")
	history, err := readHistory(historyPath)
	if err != nil {
		return err
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	answer, history, err := svc.Ask(c.Context, c.String("owner"), history, question)
	if err != nil {
		return err
	}
	if historyPath != "" {
		data, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(historyPath, data, 0o600); err != nil {
			return fmt.Errorf("failed to save history: %w", err)
		}
	}
	fmt.Fprintln(c.App.Writer, answer)
	return nil
}

func reembedCommand(c *cli.Context) error {
	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
		PoolSize:       c.Int("workers"),
		Force:          c.Bool("force"),
		Normalize:      c.Bool("normalize"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	reembedder, err := reembed.NewReembedder(svc.Repository(), svc.Provider(), reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}
	result, err := reembedder.Run(c.Context, c.String("owner"))
	if err != nil {
		return fmt.Errorf("reembedding failed after %d notes: %w", result.Embedded, err)
	}
	fmt.Fprintf(c.App.Writer, "%d notes, %d selected, %d embedded, %d without text\n",
		result.Total, result.Selected, result.Embedded, result.Skipped)
	return nil
}

// readTranscript takes the transcript from --file or from the arguments.
func readTranscript(c *cli.Context) (string, error) {
	var text string
	switch path := c.String("file"); path {
	case "":
		text = strings.Join(c.Args().Slice(), " ")
	case "-":
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read transcript: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", core.ErrEmptyTranscript
	}
	return text, nil
}

func noteIDArg(c *cli.Context, n int) (core.ID, error) {
	arg := c.Args().Get(n)
	if arg == "" {
		return "", core.ErrEmptyID
	}
	return core.ParseID(arg)
}

// readHistory loads a saved conversation. A missing file is an empty
// conversation.
func readHistory(path string) (assistant.History, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	var history assistant.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	return history, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
