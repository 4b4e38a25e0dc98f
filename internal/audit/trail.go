package audit

/*
Trail — движок персистентности журнала аудита.

- Non-blocking recording: события уходят в буферизованный канал, задержки
  записи в БД не влияют на Response Time обработчиков. Отказ синка никогда
  не превращает успешную операцию пользователя в ошибку.
- Batching: накопление событий в памяти и пакетная запись (Bulk Insert)
  в PostgreSQL по таймеру или при достижении лимита (100 событий).
- Drain Pattern & Graceful Shutdown: при Stop() вход «запирается», воркер
  вычитывает остатки канала и делает финальный flush — события не теряются
  при перезагрузке сервиса.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mysched/admin-console/internal/infra"
	"go.uber.org/zap"
)

// SinkInterface определяет, куда физически сохраняются события
type SinkInterface interface {
	// WriteBatch сохраняет пачку событий за один раз
	WriteBatch(ctx context.Context, events []Event) error
}

// BufferGauge — крючок для метрики заполненности буфера (backpressure).
// Сигнатуре удовлетворяет prometheus.Gauge.
type BufferGauge interface {
	Set(float64)
}

type Trail struct {
	ch            chan Event
	sink          SinkInterface
	logger        *zap.Logger
	gauge         BufferGauge
	flushInterval time.Duration
	wg            sync.WaitGroup
	// Защита от записи после остановки (0 - открыт, 1 - закрыт)
	isClosed int32
}

func NewTrail(sink SinkInterface, logger *zap.Logger, bufferSize int, flushInterval time.Duration, gauge BufferGauge) *Trail {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if flushInterval <= 0 {
		flushInterval = 500 * time.Millisecond
	}
	return &Trail{
		ch:            make(chan Event, bufferSize),
		sink:          sink,
		logger:        logger.Named("audit"),
		gauge:         gauge,
		flushInterval: flushInterval,
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop «запирает» вход в канал и ждёт, пока воркер всё допишет.
func (t *Trail) Stop() {
	// 1. Сначала ставим флаг
	atomic.StoreInt32(&t.isClosed, 1)

	// 2. Крошечная пауза, чтобы текущие Record успели проскочить
	time.Sleep(10 * time.Millisecond)

	// 3. Drain Pattern: завершение воркера идёт исключительно через
	// закрытие входного канала — он вычитает остатки и сделает flush.
	t.logger.Info("stopping audit trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped gracefully")
}

// Record фиксирует успешную привилегированную операцию.
// Fire-and-forget: вызов не блокирует и не возвращает ошибку.
func (t *Trail) Record(ctx context.Context, actor, subject, action, rowID string, details map[string]any) {
	t.log(Event{
		TraceID: infra.TraceIDFromContext(ctx),
		Actor:   actor,
		Subject: subject,
		Action:  action,
		RowID:   rowID,
		Details: SanitizeDetails(details),
	})
}

// RecordError фиксирует сбой. Контракт тот же: отказ синка гасится
// внутри и никогда не доходит до вызывающего.
func (t *Trail) RecordError(ctx context.Context, actor, subject, message string, details map[string]any) {
	t.log(Event{
		TraceID: infra.TraceIDFromContext(ctx),
		Actor:   actor,
		Subject: subject,
		Action:  ActionError,
		Message: message,
		Details: SanitizeDetails(details),
	})
}

func (t *Trail) log(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Actor == "" {
		event.Actor = SystemActor
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Атомарно проверяем, не остановлен ли trail
	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("audit event dropped: trail is stopping", zap.String("id", event.ID))
		return
	}

	// Load Shedding: при переполненном буфере событие уходит хотя бы в лог
	select {
	case t.ch <- event:
		if t.gauge != nil {
			t.gauge.Set(float64(len(t.ch)))
		}
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.String("actor", event.Actor),
			zap.String("subject", event.Subject),
			zap.String("trace_id", event.TraceID),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Event, 0, 100)
	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст может быть уже закрыт
			if err := t.sink.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("audit flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case event, ok := <-t.ch:
			if !ok {
				// Канал закрыт в Stop() — воркер уже вычитал остатки
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, event)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
