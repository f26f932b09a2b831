// Package ankiconnect talks to a running Anki through the AnkiConnect add-on
// and files extracted notes into it.
package ankiconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"

	"github.com/KNN-07/NotebookLM2Anki/core/config"
	"github.com/KNN-07/NotebookLM2Anki/core/notetype"
)

var (
	// ErrUnreachable means the endpoint could not be reached at all.
	ErrUnreachable = errors.New("Connection failed: is Anki open?")

	// ErrNoneAdded means a non-empty batch was rejected in full, which
	// almost always means the note type is missing.
	ErrNoneAdded = errors.New("0 cards added")
)

// APIError carries the error string AnkiConnect returned for an action.
type APIError struct {
	Action  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ankiconnect %s: %s", e.Action, e.Message)
}

type request struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Note is one addNotes entry.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Tags      []string          `json:"tags"`
}

type cardTemplate struct {
	Name  string `json:"Name"`
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

// Client issues AnkiConnect actions. Calls are sequential and never retried.
type Client struct {
	http    *resty.Client
	url     string
	version int
	logger  *slog.Logger
}

// NewClient creates a Client for the endpoint described by cfg.
func NewClient(cfg config.AnkiConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New()
	client.SetHeader("content-type", "application/json")
	return &Client{
		http:    client,
		url:     cfg.URL,
		version: cfg.Version,
		logger:  logger,
	}
}

// invoke posts one action and decodes its result into out (which may be nil).
func (c *Client) invoke(ctx context.Context, action string, params any, out any) error {
	if params == nil {
		params = struct{}{}
	}
	c.logger.Debug("ankiconnect request", "action", action)

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(request{Action: action, Version: c.version, Params: params}).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("%w (%s: %v)", ErrUnreachable, action, err)
	}
	if res.IsError() {
		return &APIError{Action: action, Message: fmt.Sprintf("unexpected HTTP status %s", res.Status())}
	}

	var reply response
	if err := json.Unmarshal(res.Body(), &reply); err != nil {
		return fmt.Errorf("decoding %s reply: %w", action, err)
	}
	if reply.Error != nil {
		return &APIError{Action: action, Message: *reply.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(reply.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", action, err)
	}
	return nil
}

// Version returns the protocol version the add-on reports.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

// CreateDeck creates name (a "::" path) if it does not exist and returns its id.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	err := c.invoke(ctx, "createDeck", map[string]any{"deck": name}, &id)
	return id, err
}

// ModelNames lists the note types present in the collection.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	var names []string
	err := c.invoke(ctx, "modelNames", nil, &names)
	return names, err
}

// CreateModel registers a note type.
func (c *Client) CreateModel(ctx context.Context, s notetype.Schema) error {
	params := map[string]any{
		"modelName":     s.Name,
		"inOrderFields": s.Fields,
		"css":           s.CSS,
		"cardTemplates": []cardTemplate{{
			Name:  s.Template.Name,
			Front: s.Template.Front,
			Back:  s.Template.Back,
		}},
	}
	return c.invoke(ctx, "createModel", params, nil)
}

// AddNotes submits notes in one batch. The reply holds one id per note, nil
// where Anki rejected the note.
func (c *Client) AddNotes(ctx context.Context, notes []Note) ([]*int64, error) {
	var ids []*int64
	err := c.invoke(ctx, "addNotes", map[string]any{"notes": notes}, &ids)
	return ids, err
}
