package pipeline

import (
	"sync"
	"time"
)

// FileStatus tracks where a file is in the
// Idle -> Loading -> Normalizing/Sanitizing/Extracting/Assembling -> done
// lifecycle. Only the terminal and active distinctions matter to callers;
// the intermediate stages surface through progress messages.
type FileStatus string

const (
	FileStatusPending   FileStatus = "pending"
	FileStatusActive    FileStatus = "active"
	FileStatusCompleted FileStatus = "completed"
	FileStatusFailed    FileStatus = "failed"
	FileStatusSkipped   FileStatus = "skipped"
)

// FileState is the runtime state of one file moving through the pipeline.
type FileState struct {
	mu        sync.RWMutex
	Name      string
	Status    FileStatus
	StartTime *time.Time
	EndTime   *time.Time
	Message   string
	Err       error
}

// NewFileState creates a pending state for a file.
func NewFileState(name string) *FileState {
	return &FileState{Name: name, Status: FileStatusPending}
}

// Start marks the file active.
func (s *FileState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = FileStatusActive
}

// Complete marks the file done.
func (s *FileState) Complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = FileStatusCompleted
}

// Skip marks the file skipped with a reason. Skipping never fails the run.
func (s *FileState) Skip(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = FileStatusSkipped
	s.Message = reason
}

// Fail marks the file failed. Reserved for defects the pipeline cannot
// absorb as a skip; the run itself still continues.
func (s *FileState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = FileStatusFailed
	s.Err = err
}

// Progress updates the active stage message.
func (s *FileState) Progress(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Message = message
}

// Duration returns how long the file took, or zero while still active.
func (s *FileState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil || s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(*s.StartTime)
}
