// Package mailbox is a Mailbox backed by a YAML file of messages.
//
// File layout:
//
//	messages:
//	  - id: 18c2f0a9
//	    from: alice@example.com
//	    subject: Team offsite
//	    body: Please join us on March 3 at 10am in Room 4.
//	    received_at: 2025-02-20T09:15:00Z
package mailbox

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hrygo/rundown/server/service/calendar"
)

type file struct {
	Messages []calendar.MailMessage `yaml:"messages"`
}

// Mailbox reads messages from a YAML file on every call.
type Mailbox struct {
	path string
	mu   sync.Mutex
}

// New creates a Mailbox on path. A missing file is an empty mailbox.
func New(path string) *Mailbox {
	return &Mailbox{path: path}
}

func (m *Mailbox) ListRecent(ctx context.Context, since time.Time) ([]calendar.MailMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.read()
	if err != nil {
		return nil, err
	}
	var out []calendar.MailMessage
	for _, msg := range f.Messages {
		if !msg.ReceivedAt.Before(since) {
			out = append(out, msg)
		}
	}
	calendar.SortNewestFirst(out)
	return out, nil
}

// Append adds messages to the file, skipping ids already present.
// It returns how many were added.
func (m *Mailbox) Append(ctx context.Context, messages ...calendar.MailMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.read()
	if err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(f.Messages))
	for _, msg := range f.Messages {
		seen[msg.ID] = struct{}{}
	}
	added := 0
	for _, msg := range messages {
		if msg.ID == "" {
			return added, errors.New("message id is required")
		}
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		f.Messages = append(f.Messages, msg)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, m.write(f)
}

func (m *Mailbox) read() (*file, error) {
	body, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &file{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mailbox %s", m.path)
	}
	var f file
	if err := yaml.Unmarshal(body, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to parse mailbox %s", m.path)
	}
	return &f, nil
}

func (m *Mailbox) write(f *file) error {
	body, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "failed to encode mailbox")
	}
	tmp := filepath.Join(filepath.Dir(m.path), "."+filepath.Base(m.path)+".tmp")
	if err := os.WriteFile(tmp, body, 0o600); err != nil {
		return errors.Wrap(err, "failed to write mailbox")
	}
	return errors.Wrap(os.Rename(tmp, m.path), "failed to replace mailbox")
}

var _ calendar.Mailbox = (*Mailbox)(nil)
