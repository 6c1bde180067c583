package internal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DialogStore manages the current user's dialogs and their messages. Every
// operation runs its whole read-modify-write under one lock; there is no
// network I/O here.
type DialogStore struct {
	kv      KVStore
	session *SessionStore
	now     func() time.Time
	newID   func() string

	mu       sync.Mutex
	dialogs  []Dialog
	loadedAs string // user id the in-memory list belongs to
}

// NewDialogStore creates a store bound to session. The dialog list is reloaded
// whenever the session user changes.
func NewDialogStore(kv KVStore, session *SessionStore) *DialogStore {
	d := &DialogStore{
		kv:      kv,
		session: session,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	session.Subscribe(func(*User) {
		if err := d.LoadDialogs(); err != nil {
			LogWarn("Failed to reload dialogs: %v", err)
		}
	})
	if err := d.LoadDialogs(); err != nil {
		LogWarn("Failed to load dialogs: %v", err)
	}
	return d
}

// LoadDialogs replaces the in-memory list with the persisted list of the
// current user. Without a session the list is empty.
func (d *DialogStore) LoadDialogs() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadLocked()
}

func (d *DialogStore) loadLocked() error {
	user := d.session.Current()
	d.dialogs = nil
	d.loadedAs = ""
	if user == nil {
		return nil
	}
	d.loadedAs = user.ID

	var dialogs []Dialog
	if _, err := loadJSON(d.kv, dialogsKey(user.ID), &dialogs); err != nil {
		return err
	}
	d.dialogs = dialogs
	LogDebug("Loaded %d dialog(s) for user %s", len(dialogs), user.ID)
	return nil
}

// Dialogs returns the current user's dialogs, most recent first
func (d *DialogStore) Dialogs() []Dialog {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Dialog(nil), d.dialogs...)
}

// CreateDialog starts a dialog titled after initialMessage.
func (d *DialogStore) CreateDialog(initialMessage string) (*Dialog, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.createLocked(initialMessage)
}

func (d *DialogStore) createLocked(initialMessage string) (*Dialog, error) {
	user := d.session.Current()
	if user == nil {
		return nil, ErrNoActiveUser
	}

	now := d.now().UTC()
	dialog := Dialog{
		ID:        d.newID(),
		Title:     DialogTitle(initialMessage),
		UserID:    user.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	updated := append([]Dialog{dialog}, d.dialogs...)
	if err := saveJSON(d.kv, dialogsKey(user.ID), updated); err != nil {
		return nil, err
	}
	d.dialogs = updated
	d.loadedAs = user.ID
	return &dialog, nil
}

// UpdateDialog merges fields into the dialog and refreshes its UpdatedAt.
// Unknown ids are ignored.
func (d *DialogStore) UpdateDialog(dialogID string, fields DialogUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.touchLocked(dialogID, func(dialog *Dialog) {
		if fields.Title != nil {
			dialog.Title = *fields.Title
		}
	})
}

// touchLocked applies fn to the matching dialog, bumps UpdatedAt and persists.
func (d *DialogStore) touchLocked(dialogID string, fn func(*Dialog)) error {
	idx := d.indexLocked(dialogID)
	if idx < 0 {
		return nil
	}

	updated := append([]Dialog(nil), d.dialogs...)
	fn(&updated[idx])
	updated[idx].UpdatedAt = d.now().UTC()

	if err := saveJSON(d.kv, dialogsKey(d.loadedAs), updated); err != nil {
		return err
	}
	d.dialogs = updated
	return nil
}

// DeleteDialog removes the dialog and its messages as one batch. Unknown ids
// are ignored.
func (d *DialogStore) DeleteDialog(dialogID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteLocked(dialogID)
}

func (d *DialogStore) deleteLocked(dialogID string) error {
	idx := d.indexLocked(dialogID)
	if idx < 0 {
		return nil
	}

	updated := make([]Dialog, 0, len(d.dialogs)-1)
	updated = append(updated, d.dialogs[:idx]...)
	updated = append(updated, d.dialogs[idx+1:]...)

	key := dialogsKey(d.loadedAs)
	value, err := encodeJSON(key, updated)
	if err != nil {
		return err
	}
	if err := writeBatch(d.kv, []KeyValuePair{{Key: key, Value: value}}, []string{messagesKey(dialogID)}); err != nil {
		return err
	}
	d.dialogs = updated
	LogDebug("Deleted dialog %s", dialogID)
	return nil
}

// GetDialogWithMessages returns the dialog and its transcript. It does not
// modify any state.
func (d *DialogStore) GetDialogWithMessages(dialogID string) (*DialogWithMessages, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := d.indexLocked(dialogID)
	if idx < 0 {
		return nil, false, nil
	}

	messages, err := d.messagesLocked(dialogID)
	if err != nil {
		return nil, false, err
	}
	return &DialogWithMessages{Dialog: d.dialogs[idx], Messages: messages}, true, nil
}

// AddMessage appends a message to dialogID. An empty or unknown dialogID with a
// user message starts a new dialog; with an assistant message it fails without
// side effects. A dialog started here is removed again if its first message
// cannot be stored.
func (d *DialogStore) AddMessage(dialogID, content string, role MessageRole) (*AddMessageResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result := &AddMessageResult{DialogID: dialogID}
	if dialogID == "" || d.indexLocked(dialogID) < 0 {
		if role != MessageRoleUser {
			if dialogID == "" {
				return nil, ErrDialogRequired
			}
			return nil, ErrDialogNotFound
		}
		dialog, err := d.createLocked(content)
		if err != nil {
			return nil, err
		}
		result.DialogID = dialog.ID
		result.CreatedNewDialog = true
	}

	messages, err := d.messagesLocked(result.DialogID)
	if err != nil {
		return nil, err
	}

	msg := Message{
		ID:        d.newID(),
		DialogID:  result.DialogID,
		Content:   content,
		Role:      role,
		Timestamp: d.now().UTC(),
	}
	messages = append(messages, msg)
	if err := saveJSON(d.kv, messagesKey(result.DialogID), messages); err != nil {
		if result.CreatedNewDialog {
			if rbErr := d.deleteLocked(result.DialogID); rbErr != nil {
				LogWarn("Failed to remove empty dialog %s: %v", result.DialogID, rbErr)
			}
		}
		return nil, err
	}

	if err := d.touchLocked(result.DialogID, func(*Dialog) {}); err != nil {
		LogWarn("Failed to refresh dialog %s timestamp: %v", result.DialogID, err)
	}

	result.Message = &msg
	return result, nil
}

func (d *DialogStore) messagesLocked(dialogID string) ([]Message, error) {
	var messages []Message
	if _, err := loadJSON(d.kv, messagesKey(dialogID), &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// indexLocked finds dialogID in the list, reloading first if the session user
// changed since the last load.
func (d *DialogStore) indexLocked(dialogID string) int {
	if user := d.session.Current(); user == nil || user.ID != d.loadedAs {
		if err := d.loadLocked(); err != nil {
			LogWarn("Failed to reload dialogs: %v", err)
		}
	}
	for i := range d.dialogs {
		if d.dialogs[i].ID == dialogID {
			return i
		}
	}
	return -1
}
