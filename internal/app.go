package internal

import (
	"net/http"
)

// App wires the stores and the backend client together. It is the only place
// the session is created, and it passes the session to every dependent.
type App struct {
	Config  *Config
	Store   KVStore
	Client  *Client
	Session *SessionStore
	Dialogs *DialogStore
}

// NewApp opens the configured store and builds the components on top of it.
func NewApp(cfg *Config, httpClient *http.Client) (*App, error) {
	store, err := OpenStore(cfg.Storage)
	if err != nil {
		return nil, err
	}
	return NewAppWithStore(cfg, store, httpClient), nil
}

// NewAppWithStore builds the components on an already opened store
func NewAppWithStore(cfg *Config, store KVStore, httpClient *http.Client) *App {
	client := NewClient(cfg.APIURL, httpClient)
	session := NewSessionStore(store, client)
	return &App{
		Config:  cfg,
		Store:   store,
		Client:  client,
		Session: session,
		Dialogs: NewDialogStore(store, session),
	}
}

// NewOrchestrator creates an orchestrator for dialogID using the app's components
func (a *App) NewOrchestrator(dialogID string) *Orchestrator {
	o := NewOrchestrator(a.Dialogs, a.Session, a.Client, dialogID)
	o.QueryTimeout = a.Config.QueryTimeout
	return o
}

// Close releases the store
func (a *App) Close() error {
	return a.Store.Close()
}
