package worker

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"imaginarium/internal/logger"
	"imaginarium/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second
)

// EventHandler processes one stream event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.PushEvent) error
}

// Manager runs worker goroutines consuming the push stream.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	log         logrus.FieldLogger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type ManagerConfig struct {
	WorkerCount  int
	BatchSize    int64
	BlockTimeout time.Duration
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig, log logrus.FieldLogger) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      queue.StreamPush,
		group:       queue.ConsumerGroupPush,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		log:         logger.Component(log, "WorkerManager"),
	}
}

// Start ensures the consumer group and launches the workers. Stop shuts
// them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, "worker-"+strconv.Itoa(i))
	}

	m.log.WithFields(logrus.Fields{"workers": m.workerCount, "stream": m.stream, "group": m.group}).Info("workers started")
	return nil
}

// Stop blocks until every worker has returned.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
	m.log.Info("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()
	log := m.log.WithField("worker", workerID)

	// Crash recovery: finish what this consumer had in flight.
	m.processPending(log, consumerName)

	for {
		select {
		case <-m.ctx.Done():
			return
		default:
			m.processMessages(log, consumerName)
		}
	}
}

func (m *Manager) processPending(log logrus.FieldLogger, consumerName string) {
	for {
		messages, err := m.consumer.ReadPending(m.ctx, m.stream, m.group, consumerName, m.batchSize)
		if err != nil {
			log.WithError(err).Warn("read pending failed")
			return
		}
		if len(messages) == 0 {
			return
		}
		log.WithField("count", len(messages)).Info("replaying pending messages")
		m.handleMessages(log, messages)
	}
}

func (m *Manager) processMessages(log logrus.FieldLogger, consumerName string) {
	messages, err := m.consumer.Read(m.ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if m.ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("read failed")
		select {
		case <-m.ctx.Done():
		case <-time.After(time.Second):
		}
		return
	}
	if len(messages) > 0 {
		m.handleMessages(log, messages)
	}
}

// handleMessages acks every message, including ones the handler failed on,
// so a poison message cannot loop forever.
func (m *Manager) handleMessages(log logrus.FieldLogger, messages []queue.Message) {
	for _, msg := range messages {
		if err := m.handler.HandleEvent(m.ctx, msg.Event); err != nil {
			log.WithError(err).WithField("msg_id", msg.ID).Warn("handler error")
		}
		if err := m.consumer.Ack(m.ctx, m.stream, m.group, msg.ID); err != nil {
			log.WithError(err).WithField("msg_id", msg.ID).Warn("ack failed")
		}
	}
}
