package internal

import (
	"context"
	"strings"
	"sync"
	"time"
)

// State is the orchestrator's request state
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting-response"
	default:
		return "unknown"
	}
}

// ReplyFunc is called after a reply has been appended, or with the error that
// prevented appending it.
type ReplyFunc func(msg *Message, err error)

// Orchestrator drives the request/response cycle of one conversation view.
//
// Requests are not cancellable. A reply is always appended to the dialog the
// request was issued for, even if the active dialog has changed since.
type Orchestrator struct {
	dialogs *DialogStore
	session *SessionStore
	querier Querier

	// QueryTimeout bounds each query when positive.
	QueryTimeout time.Duration
	// OnReply, when set, observes every appended reply.
	OnReply ReplyFunc

	mu       sync.Mutex
	dialogID string
	state    State
	pending  sync.WaitGroup
}

// NewOrchestrator creates an orchestrator viewing dialogID (empty for a new conversation).
func NewOrchestrator(dialogs *DialogStore, session *SessionStore, querier Querier, dialogID string) *Orchestrator {
	return &Orchestrator{
		dialogs:  dialogs,
		session:  session,
		querier:  querier,
		dialogID: dialogID,
	}
}

// State returns the current request state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// ActiveDialog returns the dialog the view is showing, empty for none
func (o *Orchestrator) ActiveDialog() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dialogID
}

// SetActiveDialog switches the view. In-flight requests are unaffected.
func (o *Orchestrator) SetActiveDialog(ctx context.Context, dialogID string) {
	o.mu.Lock()
	o.dialogID = dialogID
	o.mu.Unlock()
	o.Sync(ctx)
}

// Submit appends the user's input to the active dialog, creating one when the
// view has none, and dispatches the query.
func (o *Orchestrator) Submit(ctx context.Context, input string) (*AddMessageResult, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return nil, ErrEmptyInput
	}

	o.mu.Lock()
	if o.state == StateAwaitingResponse {
		o.mu.Unlock()
		return nil, ErrRequestInFlight
	}
	dialogID := o.dialogID
	o.mu.Unlock()

	result, err := o.dialogs.AddMessage(dialogID, text, MessageRoleUser)
	if err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.dialogID == "" || result.CreatedNewDialog {
		o.dialogID = result.DialogID
	}
	o.mu.Unlock()

	o.Sync(ctx)
	return result, nil
}

// Sync inspects the active dialog and dispatches a query when it ends with an
// unanswered user message and no request is in flight.
func (o *Orchestrator) Sync(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateIdle || o.dialogID == "" {
		return
	}
	dialog, ok, err := o.dialogs.GetDialogWithMessages(o.dialogID)
	if err != nil {
		LogWarn("Failed to read dialog %s: %v", o.dialogID, err)
		return
	}
	if !ok || len(dialog.Messages) == 0 {
		return
	}
	last := dialog.Messages[len(dialog.Messages)-1]
	if last.Role != MessageRoleUser {
		return
	}

	username := ""
	if user := o.session.Current(); user != nil {
		username = user.Username
	}

	o.state = StateAwaitingResponse
	o.pending.Add(1)
	go o.resolve(context.WithoutCancel(ctx), o.dialogID, last.Content, username)
}

func (o *Orchestrator) resolve(ctx context.Context, dialogID, query, username string) {
	defer o.pending.Done()

	if o.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.QueryTimeout)
		defer cancel()
	}

	LogDebug("Dispatching query for dialog %s", dialogID)
	env, err := o.querier.Query(ctx, query, username)
	if err != nil {
		LogWarn("Query for dialog %s failed: %v", dialogID, err)
	} else if serverErr := env.Err(); serverErr != nil {
		LogWarn("Query for dialog %s: %v", dialogID, serverErr)
	}
	text := RenderReply(env, err)

	result, appendErr := o.dialogs.AddMessage(dialogID, text, MessageRoleAssistant)
	if appendErr != nil {
		LogError("Failed to append reply to dialog %s: %v", dialogID, appendErr)
	}

	o.mu.Lock()
	o.state = StateIdle
	moved := o.dialogID != dialogID
	o.mu.Unlock()

	if o.OnReply != nil {
		if appendErr != nil {
			o.OnReply(nil, appendErr)
		} else {
			o.OnReply(result.Message, nil)
		}
	}

	// Only a view that moved to another dialog can have an unanswered message
	// waiting. A failed append leaves this dialog unanswered and is not retried.
	if appendErr == nil && moved {
		o.Sync(ctx)
	}
}

// Wait blocks until every dispatched request has been resolved.
func (o *Orchestrator) Wait() {
	o.pending.Wait()
}
