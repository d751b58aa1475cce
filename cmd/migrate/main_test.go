package main

import (
	"errors"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	upErr   error
	version uint
}

func (f *fakeMigrator) Up() error { f.calls = append(f.calls, "up"); return f.upErr }
func (f *fakeMigrator) Down() error { f.calls = append(f.calls, "down"); return nil }
func (f *fakeMigrator) Steps(n int) error { f.calls = append(f.calls, "steps"); f.steps = n; return nil }
func (f *fakeMigrator) Force(v int) error { f.calls = append(f.calls, "force"); f.version = uint(v); return nil }
func (f *fakeMigrator) Version() (uint, bool, error) {
	if f.version == 0 {
		return 0, false, migrate.ErrNilVersion
	}
	return f.version, false, nil
}

func TestRun_UpNoChangeIsSuccess(t *testing.T) {
	m := &fakeMigrator{upErr: migrate.ErrNoChange, version: 3}
	require.NoError(t, run(m, []string{"up"}, zerolog.Nop()))
	assert.Equal(t, []string{"up"}, m.calls)
}

func TestRun_UpFailure(t *testing.T) {
	m := &fakeMigrator{upErr: errors.New("dirty database")}
	assert.EqualError(t, run(m, []string{"up"}, zerolog.Nop()), "dirty database")
}

func TestRun_StepsParsesCount(t *testing.T) {
	m := &fakeMigrator{}
	require.NoError(t, run(m, []string{"steps", "-2"}, zerolog.Nop()))
	assert.Equal(t, -2, m.steps)
}

func TestRun_ForceNeedsVersion(t *testing.T) {
	err := run(&fakeMigrator{}, []string{"force"}, zerolog.Nop())
	assert.ErrorIs(t, err, errUsage)

	err = run(&fakeMigrator{}, []string{"force", "abc"}, zerolog.Nop())
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
}

func TestRun_UnknownCommand(t *testing.T) {
	assert.ErrorIs(t, run(&fakeMigrator{}, []string{"sideways"}, zerolog.Nop()), errUsage)
}
