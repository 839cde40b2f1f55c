package versioned

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zefrenchwan/egonet.git/elements"
	"github.com/zefrenchwan/egonet.git/lifetimes"
	"github.com/zefrenchwan/egonet.git/schema"
	"github.com/zefrenchwan/egonet.git/storage"
	"go.uber.org/zap"
)

// Options configure a store. Zero values are valid
type Options struct {
	// Logger receives rejections at info level, nop logger if nil
	Logger *zap.SugaredLogger
	// Counter mints datum ids, PropertyCounter if nil
	Counter DatumCounter
	// Clock returns the wall clock to stamp secondary timestamps, time.Now if nil
	Clock func() time.Time
	// OnRejection is called for each rejected operation, if not nil
	OnRejection func(*RejectionError)
}

// Store is the versioned attribute store over a row store
type Store struct {
	backend     storage.Store
	logger      *zap.SugaredLogger
	counter     DatumCounter
	clock       func() time.Time
	onRejection func(*RejectionError)
}

// New returns a store over backend
func New(backend storage.Store, options Options) *Store {
	result := &Store{
		backend:     backend,
		logger:      options.Logger,
		counter:     options.Counter,
		clock:       options.Clock,
		onRejection: options.OnRejection,
	}

	if result.logger == nil {
		result.logger = zap.NewNop().Sugar()
	}

	if result.counter == nil {
		result.counter = PropertyCounter{}
	}

	if result.clock == nil {
		result.clock = time.Now
	}

	return result
}

// Backend returns the underlying row store
func (s *Store) Backend() storage.Store {
	return s.backend
}

// Close closes the underlying row store
func (s *Store) Close() error {
	return s.backend.Close()
}

// Session is a sequence of operations within a single transaction
type Session struct {
	store   *Store
	ctx     context.Context
	tx      storage.Tx
	catalog schema.Catalog
	// now is the wall clock at transaction start
	now lifetimes.Moment
}

// newSession returns a session over tx
func (s *Store) newSession(ctx context.Context, tx storage.Tx) *Session {
	return &Session{
		store:   s,
		ctx:     ctx,
		tx:      tx,
		catalog: schema.NewCatalog(tx),
		now:     lifetimes.FromTime(s.clock()),
	}
}

// Update runs fn in a write transaction. Any error returned by fn, rejections included, rolls back
func (s *Store) Update(ctx context.Context, fn func(*Session) error) error {
	return s.update(ctx, "session", fn)
}

// View runs fn in a read only transaction
func (s *Store) View(ctx context.Context, fn func(*Session) error) error {
	return s.view(ctx, "session", fn)
}

// update runs a write transaction and measures it
func (s *Store) update(ctx context.Context, operation string, fn func(*Session) error) error {
	timer := prometheus.NewTimer(transactionDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	return s.backend.Update(ctx, func(tx storage.Tx) error {
		return fn(s.newSession(ctx, tx))
	})
}

// view runs a read only transaction and measures it
func (s *Store) view(ctx context.Context, operation string, fn func(*Session) error) error {
	timer := prometheus.NewTimer(transactionDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	return s.backend.View(ctx, func(tx storage.Tx) error {
		return fn(s.newSession(ctx, tx))
	})
}

// Tx returns the transaction of the session
func (s *Session) Tx() storage.Tx {
	return s.tx
}

// Now returns the moment the session started at
func (s *Session) Now() lifetimes.Moment {
	return s.now
}

// reject builds, logs and reports a rejection
func (s *Session) reject(kind RejectionKind, operation string, format string, args ...any) error {
	rejection := &RejectionError{Kind: kind, Operation: operation, Message: fmt.Sprintf(format, args...)}
	s.store.logger.Infow("rejected operation", "operation", operation, "kind", string(kind), "reason", rejection.Message)
	rejectionsTotal.WithLabelValues(string(kind)).Inc()
	if s.store.onRejection != nil {
		s.store.onRejection(rejection)
	}

	return rejection
}

// applied counts a successful mutation
func (s *Session) applied(operation string) {
	mutationsTotal.WithLabelValues(operation).Inc()
}

// DeclareAttribute declares an attribute in its own transaction
func (s *Store) DeclareAttribute(ctx context.Context, declaration schema.Attribute) error {
	return s.update(ctx, "declare_attribute", func(session *Session) error {
		return session.DeclareAttribute(declaration)
	})
}

// AddElement extends the lifetime of element in its own transaction
func (s *Store) AddElement(ctx context.Context, element elements.Element, interval lifetimes.TimeInterval) error {
	return s.update(ctx, "add_element", func(session *Session) error {
		return session.AddElement(element, interval)
	})
}

// RemoveElement cuts the lifetime of element in its own transaction
func (s *Store) RemoveElement(ctx context.Context, element elements.Element, interval lifetimes.TimeInterval) error {
	return s.update(ctx, "remove_element", func(session *Session) error {
		return session.RemoveElement(element, interval)
	})
}

// SetAttributeValueAt sets a value in its own transaction
func (s *Store) SetAttributeValueAt(ctx context.Context, interval lifetimes.TimeInterval, name string, element elements.Element, value string) error {
	return s.update(ctx, "set_value", func(session *Session) error {
		return session.SetAttributeValueAt(interval, name, element, value)
	})
}

// RenameAlter renames an alter in its own transaction
func (s *Store) RenameAlter(ctx context.Context, oldName, newName string) error {
	return s.update(ctx, "rename_alter", func(session *Session) error {
		return session.RenameAlter(oldName, newName)
	})
}

// Import applies facts in a single transaction
func (s *Store) Import(ctx context.Context, facts []Fact) (ImportReport, error) {
	var report ImportReport
	err := s.update(ctx, "import", func(session *Session) error {
		var err error
		report, err = session.Import(facts)
		return err
	})

	return report, err
}

// GetValueAt reads a value at m
func (s *Store) GetValueAt(ctx context.Context, m lifetimes.Moment, name string, element elements.Element) (string, bool, error) {
	var value string
	var found bool
	err := s.view(ctx, "get_value", func(session *Session) error {
		var err error
		value, found, err = session.GetValueAt(m, name, element)
		return err
	})

	return value, found, err
}

// GetAllValuesOverTime reads the history of an attribute for element
func (s *Store) GetAllValuesOverTime(ctx context.Context, name string, element elements.Element) (*lifetimes.TimeVaryingValue, error) {
	var result *lifetimes.TimeVaryingValue
	err := s.view(ctx, "get_history", func(session *Session) error {
		var err error
		result, err = session.GetAllValuesOverTime(name, element)
		return err
	})

	return result, err
}

// GetAllEntitiesAt reads the elements existing during interval
func (s *Store) GetAllEntitiesAt(ctx context.Context, interval lifetimes.TimeInterval) ([]elements.Element, error) {
	var result []elements.Element
	err := s.view(ctx, "get_entities", func(session *Session) error {
		var err error
		result, err = session.GetAllEntitiesAt(interval)
		return err
	})

	return result, err
}

// Context returns the context the session runs in
func (s *Session) Context() context.Context {
	return s.ctx
}
