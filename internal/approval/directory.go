// Package approval implements the gate that pauses restricted orders behind
// a manager decision, and the controller that resumes or terminates them.
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNoApprover         = errors.New("no approver found for department")
	ErrNotAuthorized      = errors.New("request assigned to a different approver")
	ErrEmptyReason        = errors.New("rejection reason must not be empty")
	ErrNoPendingRejection = errors.New("no rejection awaiting a reason")
)

// Approver is the identity authorized to decide requests for a department.
type Approver struct {
	ID         int64
	FirstName  string
	LastName   string
	Department string
}

func (a Approver) FullName() string {
	name := strings.TrimSpace(a.FirstName + " " + a.LastName)
	if name == "" {
		return "Manager of department " + a.Department
	}
	return name
}

// Source loads the full approver roster from the external directory.
type Source interface {
	Load(ctx context.Context) ([]Approver, error)
}

// Directory resolves the approver for a routing department.
type Directory interface {
	Resolve(ctx context.Context, department string) (*Approver, error)
}

// CachedDirectory serves lookups from a TTL cache over a Source. A failed
// refresh falls back to stale data rather than blocking decisions.
type CachedDirectory struct {
	source Source
	ttl    time.Duration

	mu        sync.Mutex
	byDept    map[string]Approver
	fetchedAt time.Time
}

func NewCachedDirectory(source Source, ttl time.Duration) *CachedDirectory {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CachedDirectory{source: source, ttl: ttl}
}

func (d *CachedDirectory) Resolve(ctx context.Context, department string) (*Approver, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.byDept == nil || time.Since(d.fetchedAt) > d.ttl {
		if err := d.refreshLocked(ctx); err != nil {
			if d.byDept == nil {
				return nil, fmt.Errorf("load approver directory: %w", err)
			}
			logrus.WithError(err).Warn("Approver directory refresh failed, serving stale data")
		}
	}

	approver, ok := d.byDept[department]
	if !ok {
		return nil, ErrNoApprover
	}
	out := approver
	return &out, nil
}

func (d *CachedDirectory) refreshLocked(ctx context.Context) error {
	roster, err := d.source.Load(ctx)
	if err != nil {
		return err
	}
	byDept := make(map[string]Approver, len(roster))
	for _, a := range roster {
		byDept[a.Department] = a
	}
	d.byDept = byDept
	d.fetchedAt = time.Now()
	return nil
}
