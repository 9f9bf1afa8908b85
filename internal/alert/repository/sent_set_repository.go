package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/reeeportnewsss/nww/pkg/logger"
)

// ErrPersist marks a failure to durably record a notified identity.
var ErrPersist = errors.New("failed to persist sent set")

// SentSetRepository keeps the identities that were already notified.
type SentSetRepository interface {
	// Load replaces the in-memory set with the persisted one. A missing or unreadable
	// backing store yields an empty set; the problem is logged, not returned.
	Load(ctx context.Context)
	Contains(identity string) bool
	// AddAndPersist inserts identity and writes the full set through before returning.
	// Errors wrap ErrPersist.
	AddAndPersist(ctx context.Context, identity string) error
	Len() int
	Members() []string
}

// memberSet is an insertion-ordered string set.
type memberSet struct {
	index   map[string]struct{}
	members []string
}

func newMemberSet(members ...string) memberSet {
	s := memberSet{index: make(map[string]struct{}, len(members))}
	for _, m := range members {
		s.add(m)
	}
	return s
}

func (s *memberSet) add(m string) bool {
	if _, ok := s.index[m]; ok {
		return false
	}
	s.index[m] = struct{}{}
	s.members = append(s.members, m)
	return true
}

func (s *memberSet) contains(m string) bool {
	_, ok := s.index[m]
	return ok
}

func (s *memberSet) list() []string {
	out := make([]string, len(s.members))
	copy(out, s.members)
	return out
}

// NewFileSentSetRepository creates a sent set stored as a JSON array of strings at path.
func NewFileSentSetRepository(path string, log *logger.Logger) SentSetRepository {
	return &fileSentSetRepository{
		path: path,
		log:  log,
		set:  newMemberSet(),
	}
}

type fileSentSetRepository struct {
	path string
	log  *logger.Logger
	set  memberSet
}

func (r *fileSentSetRepository) Load(ctx context.Context) {
	r.set = newMemberSet()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.log.InfoContext(ctx, "Sent set file not found, starting empty", logger.StringField("path", r.path))
			return
		}
		r.log.WarnContext(ctx, "Failed to read sent set file, starting empty", logger.ErrorField(err), logger.StringField("path", r.path))
		return
	}

	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		r.log.WarnContext(ctx, "Failed to parse sent set file, starting empty", logger.ErrorField(err), logger.StringField("path", r.path))
		return
	}

	r.set = newMemberSet(members...)
	r.log.InfoContext(ctx, "Loaded sent set", logger.StringField("path", r.path), logger.IntField("count", r.set.len()))
}

func (r *fileSentSetRepository) Contains(identity string) bool {
	return r.set.contains(identity)
}

func (r *fileSentSetRepository) AddAndPersist(ctx context.Context, identity string) error {
	r.set.add(identity)
	if err := r.write(); err != nil {
		r.log.ErrorContext(ctx, "Failed to write sent set file", logger.ErrorField(err), logger.StringField("path", r.path))
		return fmt.Errorf("%w: %s: %v", ErrPersist, r.path, err)
	}
	return nil
}

// write replaces the file atomically so a crash never leaves a truncated array behind.
func (r *fileSentSetRepository) write() error {
	data, err := json.Marshal(r.set.list())
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(r.path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

func (r *fileSentSetRepository) Len() int {
	return r.set.len()
}

func (r *fileSentSetRepository) Members() []string {
	return r.set.list()
}

func (s *memberSet) len() int {
	return len(s.members)
}
