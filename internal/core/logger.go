package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// logRetentionDays — сколько дней хранить ежедневные файлы логов.
const logRetentionDays = 7

type logState struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	env    string
	dir    string
	// Логгеры, выданные через Logger(), пишут в эти sink-и; при ротации
	// меняется только файл внутри, копии логгера остаются рабочими.
	mainSink  *fileSink
	errorSink *fileSink
}

var (
	state = &logState{
		logger:    zerolog.New(os.Stderr).With().Timestamp().Logger(),
		mainSink:  &fileSink{},
		errorSink: &fileSink{},
	}
	cleanupOnce sync.Once
)

// fileSink — файл, который можно подменить на лету.
// Без файла запись молча отбрасывается.
type fileSink struct {
	mu sync.Mutex
	f  *os.File
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return len(p), nil
	}
	return s.f.Write(p)
}

// swap ставит новый файл и закрывает прежний.
func (s *fileSink) swap(f *os.File) {
	s.mu.Lock()
	old := s.f
	s.f = f
	s.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// InitLogger настраивает глобальный zerolog-логгер.
// dev — читаемый вывод в консоль, иначе JSON. Если dir не пуст, дополнительно
// пишем в logs/DD-MM-YYYY.log и дублируем ERROR в logs/errors-DD-MM-YYYY.log.
func InitLogger(env, dir string) error {
	state.mu.Lock()
	defer state.mu.Unlock()

	state.env = env
	state.dir = dir
	return state.openLocked()
}

// RotateLog переоткрывает файлы логов под текущую дату.
func RotateLog() error {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.openLocked()
}

func (s *logState) openLocked() error {
	var console io.Writer = os.Stdout
	if s.env == "dev" {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.TimeOnly}
	}

	if s.dir == "" {
		s.closeFilesLocked()
		s.logger = zerolog.New(console).With().Timestamp().Logger()
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("создание каталога логов: %w", err)
	}

	dateStr := time.Now().Format("02-01-2006")
	mainFile, err := os.OpenFile(filepath.Join(s.dir, dateStr+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("открытие основного лог-файла: %w", err)
	}
	errorFile, err := os.OpenFile(filepath.Join(s.dir, "errors-"+dateStr+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_ = mainFile.Close()
		return fmt.Errorf("открытие файла ошибок: %w", err)
	}

	s.mainSink.swap(mainFile)
	s.errorSink.swap(errorFile)
	multi := zerolog.MultiLevelWriter(console, s.mainSink, errorSplitter{w: s.errorSink})
	s.logger = zerolog.New(multi).With().Timestamp().Logger()

	dir := s.dir
	cleanupOnce.Do(func() { go cleanupOldLogs(dir, logRetentionDays) })
	return nil
}

func (s *logState) closeFilesLocked() {
	s.mainSink.swap(nil)
	s.errorSink.swap(nil)
}

// errorSplitter пропускает в файл ошибок только записи уровня ERROR и выше.
type errorSplitter struct {
	w io.Writer
}

func (e errorSplitter) Write(p []byte) (int, error) {
	return len(p), nil
}

func (e errorSplitter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel {
		return len(p), nil
	}
	return e.w.Write(p)
}

// Logger возвращает текущий логгер (копию) для компонентов,
// которым нужен zerolog.Logger напрямую. Копия переживает RotateLog.
func Logger() zerolog.Logger {
	state.mu.RLock()
	defer state.mu.RUnlock()
	return state.logger
}

// SetLogger подменяет глобальный логгер (используется в тестах).
func SetLogger(l zerolog.Logger) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.closeFilesLocked()
	state.logger = l
}

func LogInfo(msg string, fields map[string]interface{}) {
	logEvent(zerolog.InfoLevel, msg, fields)
}

func LogWarn(msg string, fields map[string]interface{}) {
	logEvent(zerolog.WarnLevel, msg, fields)
}

func LogError(msg string, fields map[string]interface{}) {
	logEvent(zerolog.ErrorLevel, msg, fields)
}

func logEvent(level zerolog.Level, msg string, fields map[string]interface{}) {
	state.mu.RLock()
	defer state.mu.RUnlock()

	event := state.logger.WithLevel(level)
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func cleanupOldLogs(dir string, days int) {
	files, err := os.ReadDir(dir)
	if err != nil {
		LogError("Не удалось прочитать каталог логов", map[string]interface{}{"dir": dir, "error": err.Error()})
		return
	}

	cutoff := time.Now().AddDate(0, 0, -days)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		info, err := file.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, file.Name())
			if err := os.Remove(path); err != nil {
				LogError("Не удалось удалить старый лог", map[string]interface{}{"path": path, "error": err.Error()})
			}
		}
	}
}

// Close закрывает файлы логов; дальнейший вывод идёт в stderr.
func Close() {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.closeFilesLocked()
	state.logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
