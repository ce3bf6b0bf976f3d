package errs

import (
	"os"
	"path/filepath"
)

// maxRecoveryAttempts bounds automatic recovery per distinct error key so a
// persistent failure can never loop.
const maxRecoveryAttempts = 3

// RecoveryAction names an automatic recovery the log is allowed to execute.
// Everything outside this allowlist is surfaced as a textual suggestion and
// never run.
type RecoveryAction string

const (
	RecoverCreateDir RecoveryAction = "create_missing_directory"
)

// Recover attempts the named recovery for an entry. It returns true when
// the recovery ran and succeeded. Attempts are counted per error key; once
// the bound is reached further calls return false without acting.
func (l *Log) Recover(e Entry, action RecoveryAction) bool {
	l.mu.Lock()
	key := e.key()
	if l.attempts[key] >= maxRecoveryAttempts {
		l.mu.Unlock()
		return false
	}
	l.attempts[key]++
	l.mu.Unlock()

	switch action {
	case RecoverCreateDir:
		if e.Path == "" {
			return false
		}
		if err := os.MkdirAll(filepath.Dir(e.Path), 0o755); err != nil {
			l.Addf(CategoryFilesystem, SeverityMedium, e.Path, "recovery %s failed: %v", action, err)
			return false
		}
		return true
	}
	return false
}

// Attempts reports how many recovery attempts have been made for an entry.
func (l *Log) Attempts(e Entry) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts[e.key()]
}
