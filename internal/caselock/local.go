// Package caselock serializa escritas por caso: um mutex por caso dentro do
// processo, ou um lock no Redis quando há mais de uma instância da API.
package caselock

import (
	"context"
	"sync"
)

type slot struct {
	ch   chan struct{}
	refs int // donos + quem espera
}

type Local struct {
	mu    sync.Mutex
	cases map[uint]*slot
}

func NewLocal() *Local {
	return &Local{cases: map[uint]*slot{}}
}

// Lock espera o caso ficar livre ou o contexto expirar. A entrada do caso
// sai do mapa quando ninguém mais segura nem espera o lock.
func (l *Local) Lock(ctx context.Context, caseID uint) (func(), error) {
	l.mu.Lock()
	s, ok := l.cases[caseID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.cases[caseID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(caseID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(caseID, s)
		})
	}, nil
}

func (l *Local) release(caseID uint, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 && l.cases[caseID] == s {
		delete(l.cases, caseID)
	}
}

// Held: casos com lock ativo ou com alguém esperando
func (l *Local) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cases)
}
