package session

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/ruleflow/internal/history"
	"github.com/roach88/ruleflow/internal/ruleflow"
)

var errBoom = errors.New("boom")

type memStore struct {
	mu       sync.Mutex
	docs     map[string]*ruleflow.Configuration
	loadErr  error
	saveErr  error
	saves    int
	lastSave *ruleflow.Configuration
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]*ruleflow.Configuration)}
}

func key(appID, runtimeID string) string { return appID + "/" + runtimeID }

func (s *memStore) put(cfg *ruleflow.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key(cfg.Metadata.AppID, cfg.Metadata.RuntimeID)] = cfg.Clone()
}

func (s *memStore) Load(_ context.Context, appID, runtimeID string) (*ruleflow.Configuration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	cfg, ok := s.docs[key(appID, runtimeID)]
	if !ok {
		return nil, ruleflow.ErrNotFound
	}
	return cfg.Clone(), nil
}

func (s *memStore) Save(_ context.Context, cfg *ruleflow.Configuration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.lastSave = cfg.Clone()
	s.docs[key(cfg.Metadata.AppID, cfg.Metadata.RuntimeID)] = cfg.Clone()
	return nil
}

type memLog struct {
	mu      sync.Mutex
	records []ruleflow.ActionRecord
	start   int64
}

func (l *memLog) AppendAction(_ context.Context, _, _ string, rec ruleflow.ActionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return nil
}

func (l *memLog) TruncateActions(_ context.Context, _, _ string, after int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.records[:0]
	for _, rec := range l.records {
		if rec.Seq <= after {
			kept = append(kept, rec)
		}
	}
	removed := int64(len(l.records) - len(kept))
	l.records = kept
	return removed, nil
}

func (l *memLog) LastSeq(context.Context, string, string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n := len(l.records); n > 0 {
		return l.records[n-1].Seq, nil
	}
	return l.start, nil
}

type memHistory struct {
	versions []history.VersionInfo
	current  int
	calls    int
}

func (h *memHistory) SaveHistory(_ context.Context, _, _ string, versions []history.VersionInfo, current int) error {
	h.versions, h.current = versions, current
	h.calls++
	return nil
}

type stubGenerator struct{ err error }

func (g stubGenerator) Generate(_ context.Context, cfg *ruleflow.Configuration) (*ruleflow.Artifact, error) {
	if g.err != nil {
		return nil, g.err
	}
	return &ruleflow.Artifact{
		Filename:   cfg.Metadata.ClassName + ".py",
		Language:   "python",
		Source:     "# generated",
		ConfigHash: ruleflow.MustHash(cfg),
	}, nil
}

type bogusAction struct {
	ruleflow.DeletePackage
}

func (bogusAction) Type() ruleflow.ActionType { return "EXPLODE" }
