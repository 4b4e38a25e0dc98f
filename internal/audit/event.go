package audit

import "time"

// SystemActor — маркер актора для событий, у которых нет резолвнутого
// администратора (например, сбой до этапа identity).
const SystemActor = "system"

// Действия нормализуются в верхний регистр при записи.
const (
	ActionInsert = "INSERT"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionError  = "ERROR"
)

// Event — одна append-only запись журнала аудита. После передачи
// в Trail событие не изменяется и не удаляется.
type Event struct {
	ID      string `json:"id"`       // UUID события
	TraceID string `json:"trace_id"` // Сквозной ID запроса
	Actor   string `json:"actor"`    // Кто делал (admin id или "system")
	Subject string `json:"subject"`  // Над чем ("sections", "classes", ...)
	Action  string `json:"action"`   // INSERT / UPDATE / DELETE / ERROR
	RowID   string `json:"row_id,omitempty"`

	Message   string         `json:"message,omitempty"` // Для ERROR — что случилось
	Details   map[string]any `json:"details,omitempty"` // После редактирования секретов
	Timestamp time.Time      `json:"timestamp"`
}
