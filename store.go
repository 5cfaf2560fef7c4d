package docflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kyuff/docflow/internal/seqs"
	"github.com/kyuff/docflow/internal/uuid"
)

// Store is the engine root. It owns the entity workers, the saga runtimes
// and the correlation fabric on top of a Storage journal.
type Store struct {
	storage Storage
	cfg     *Config
	ctx     context.Context
	cancel  context.CancelFunc

	mux      sync.Mutex
	machines map[string]StateMachine
	sagas    map[string]*sagaRuntime

	entities     *entityRegistry
	correlations *correlations
}

func New(storage Storage, opts ...Option) *Store {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Store{
		storage:      storage,
		cfg:          applyOptions(defaultOptions(), opts...),
		ctx:          ctx,
		cancel:       cancel,
		machines:     make(map[string]StateMachine),
		sagas:        make(map[string]*sagaRuntime),
		correlations: newCorrelations(),
	}
	s.entities = newEntityRegistry(s)

	return s
}

// RegisterAggregate makes the Store accept commands for aggregateType,
// deciding with machine. The contentTypes are the event shapes the
// aggregate's streams may hold.
func (s *Store) RegisterAggregate(aggregateType string, machine StateMachine, contentTypes ...Content) error {
	err := s.storage.Register(aggregateType, contentTypes...)
	if err != nil {
		return fmt.Errorf("docflow: registering %s content: %w", aggregateType, err)
	}

	s.mux.Lock()
	defer s.mux.Unlock()

	if _, ok := s.machines[aggregateType]; ok {
		return fmt.Errorf("docflow: aggregate already registered: %s", aggregateType)
	}
	s.machines[aggregateType] = machine

	return nil
}

// Execute routes the command to the entity worker owning its aggregate
// instance and blocks until the resulting event is durably appended and
// published, the command is rejected or ignored, or ctx is done. Rejections
// are returned as a *Rejection error carrying the rejection event.
func (s *Store) Execute(ctx context.Context, cmd Command) (Event, error) {
	if cmd.Content == nil {
		return Event{}, errors.New("docflow: command without content")
	}
	if cmd.CorrelationID == "" {
		cmd.CorrelationID = uuid.V7()
	}

	s.mux.Lock()
	machine, ok := s.machines[cmd.AggregateType]
	s.mux.Unlock()
	if !ok {
		return Event{}, fmt.Errorf("docflow: unknown aggregate type: %s", cmd.AggregateType)
	}

	return s.entities.execute(ctx, machine, cmd)
}

// Project replays the events of an aggregate instance, in order, through
// the handler. It reads the journal directly and does not touch the entity
// worker, so it is safe to call while commands are in flight.
func (s *Store) Project(ctx context.Context, aggregateType, aggregateID string, handler Handler) error {
	for event, err := range s.storage.Read(ctx, aggregateType, aggregateID, 0) {
		if err != nil {
			return err
		}

		err = handler.Handle(ctx, event)
		if err != nil {
			return err
		}
	}

	return nil
}

// Subscribe a Handler to all events published for an aggregateType.
// Handlers run on the publishing path and must be fast.
func (s *Store) Subscribe(ctx context.Context, aggregateType, subscriberID string, handler Handler) error {
	return s.cfg.eventBus.Subscribe(ctx, aggregateType, subscriberID, handler)
}

// SubscribeCorrelation registers a one-shot subscription resolved by the
// count'th event matching the predicate. Register before submitting the
// command the subscription waits for, or the event may be published first.
func (s *Store) SubscribeCorrelation(predicate func(Event) bool, count int) *Correlation {
	return s.correlations.subscribe(predicate, count)
}

// publish fans the freshly appended events out on the bus and to the
// correlation fabric.
func (s *Store) publish(ctx context.Context, aggregateType string, events []Event) error {
	for _, event := range events {
		s.correlations.offer(event)
	}

	return s.cfg.eventBus.Write(ctx, aggregateType, seqs.Seq2(events...))
}

func (s *Store) Close() error {
	s.cancel()

	return errors.Join(
		s.cfg.eventBus.Close(),
		s.storage.Close(),
	)
}
