package errors

import (
	stderrors "errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
	}{
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError},
		{"io warning", ErrCodePathInaccessible, CategoryIO, SeverityWarning},
		{"watcher fatal", ErrCodeWatcherInstances, CategoryWatcher, SeverityFatal},
		{"validation", ErrCodeInvalidPath, CategoryValidation, SeverityError},
		{"internal", ErrCodeInternal, CategoryInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
		})
	}
}

func TestIndexError_ErrorFormat(t *testing.T) {
	err := New(ErrCodeInvalidPath, "bad path", nil)
	assert.Equal(t, "[ERR_401_INVALID_PATH] bad path", err.Error())
}

func TestIndexError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Wrap(ErrCodeInternal, cause)

	require.NotNil(t, err)
	assert.Equal(t, cause, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, cause))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIndexError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeInvalidPath, "a", nil)
	b := New(ErrCodeInvalidPath, "b", nil)
	c := New(ErrCodeInternal, "c", nil)

	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrCodeInternal, "boom", nil).
		WithDetail("path", "/tmp/a").
		WithDetail("op", "reindex")

	assert.Equal(t, "/tmp/a", err.Details["path"])
	assert.Equal(t, "reindex", err.Details["op"])
}

func TestWatcherInitError_ClassifiesErrno(t *testing.T) {
	tests := []struct {
		name  string
		errno syscall.Errno
		code  string
	}{
		{"too many instances", syscall.EMFILE, ErrCodeWatcherInstances},
		{"too many open files", syscall.ENFILE, ErrCodeWatcherOpenFiles},
		{"out of kernel memory", syscall.ENOMEM, ErrCodeWatcherKernelMemory},
		{"other", syscall.EACCES, ErrCodeWatcherInit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WatcherInitError(fmt.Errorf("inotify_init: %w", tt.errno))
			assert.Equal(t, tt.code, err.Code)
			assert.True(t, IsFatal(err))
		})
	}
}

func TestWatcherInitError_NonErrnoCause(t *testing.T) {
	err := WatcherInitError(fmt.Errorf("opaque failure"))
	assert.Equal(t, ErrCodeWatcherInit, err.Code)
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, GetCode(New(ErrCodeInternal, "x", nil)))
	assert.Equal(t, "", GetCode(fmt.Errorf("plain")))
	assert.Equal(t, "", GetCode(nil))
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(fmt.Errorf("plain")))
	assert.False(t, IsFatal(New(ErrCodeInvalidPath, "x", nil)))
	assert.True(t, IsFatal(New(ErrCodeWatcherInit, "x", nil)))
}

func TestPathInaccessibleError_CarriesPathDetail(t *testing.T) {
	err := PathInaccessibleError("/tmp/secret", syscall.EACCES)
	assert.Equal(t, ErrCodePathInaccessible, err.Code)
	assert.Equal(t, "/tmp/secret", err.Details["path"])
	assert.Equal(t, SeverityWarning, err.Severity)
}
